package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Find the measurement in effect at a date and time",
	Long: `Print the last measurement recorded at or before the given minute.

Examples:
  homedash lookup --home homeA --at 2024-01-01T11:30
  homedash lookup --home homeA --at "2024-01-01 11:30" --tz UTC`,
	Args: cobra.NoArgs,
	RunE: runLookup,
}

func init() {
	lookupCmd.Flags().String("home", "", "home id")
	lookupCmd.Flags().String("at", "", "date and time: YYYY-MM-DDTHH:MM, YYYY-MM-DD HH:MM or RFC3339")
	lookupCmd.Flags().String("tz", "", "IANA timezone of --at (default display.timezone)")
	_ = lookupCmd.MarkFlagRequired("home")
	_ = lookupCmd.MarkFlagRequired("at")
}

func runLookup(cmd *cobra.Command, args []string) error {
	homeID, _ := cmd.Flags().GetString("home")
	at, _ := cmd.Flags().GetString("at")
	tz, _ := cmd.Flags().GetString("tz")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.cfg.Location()
	if tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
	}

	res, err := a.services.LookupAt(cmd.Context(), homeID, at, loc)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}
