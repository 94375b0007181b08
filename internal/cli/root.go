// Package cli holds the homedash commands. Running the binary without a
// subcommand serves the dashboard.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "homedash",
	Short: "Home monitoring dashboard",
	Long: `homedash serves a realtime dashboard of home sensor readings with a
remotely controlled lamp and a configurable logging interval.

Without a subcommand it starts the HTTP server, like "homedash serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default configs/config.yml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("db", "", "SQLite database path")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("db.path", flags.Lookup("db"))

	rootCmd.AddCommand(serveCmd, userCmd, lookupCmd, measurementCmd, chartCmd, simulateCmd)
}
