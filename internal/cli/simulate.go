package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Write simulated measurements until interrupted",
	Long: `Run the measurement simulator for one home without serving HTTP. Readings
are written at the home's logging interval.

Example:
  homedash simulate --home homeA`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().String("home", "", "home id (default demo.home_id)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	homeID, _ := cmd.Flags().GetString("home")
	if homeID == "" {
		homeID = a.cfg.Demo.HomeID
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Infow("simulator started", "home_id", homeID)
	a.services.Simulator.Run(ctx, homeID)
	a.log.Infow("simulator stopped", "home_id", homeID)
	return nil
}
