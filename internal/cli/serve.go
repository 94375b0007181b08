package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homedash/internal/handlers"
	"homedash/internal/logger"
	"homedash/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the dashboard: JSON API under /api/v1, live feed on /ws, HTML pages
under /dashboard and the Swagger UI under /swagger/index.html.

With demo.enabled the measurement simulator writes readings for demo.home_id.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("port", "", "listen port or address")
	serveCmd.Flags().Bool("demo", false, "run the measurement simulator")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("demo.enabled", serveCmd.Flags().Lookup("demo"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	apiHandler := handlers.NewHandler(a.services, a.log, handlers.Options{
		CookieName:   a.cfg.Auth.CookieName,
		SecureCookie: a.cfg.Auth.SecureCookie,
		TokenTTL:     a.cfg.Auth.TokenTTL,
		Location:     a.cfg.Location(),
		ChartWidth:   a.cfg.Chart.Width,
		ChartHeight:  a.cfg.Chart.Height,
		HistoryLimit: a.cfg.History.Limit,
		MaxPoints:    a.cfg.History.MaxPoints,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if a.cfg.Demo.Enabled {
		a.log.Infow("simulator started", "home_id", a.cfg.Demo.HomeID)
		go a.services.Simulator.Run(ctx, a.cfg.Demo.HomeID)
	}

	// start HTTP server
	srv := &server.Server{}
	errc := runHTTPServer(srv, a.cfg.Port, apiHandler, a.log)

	// graceful shutdown
	return waitForShutdown(cancel, srv, errc, a.log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) <-chan error {
	errc := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "port", port)
		errc <- srv.Run(port, handler.InitRoutes())
	}()
	return errc
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, errc <-chan error, log *logger.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		cancel()
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errc
}
