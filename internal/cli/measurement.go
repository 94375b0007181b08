package cli

import (
	"fmt"
	"time"

	"homedash/internal/models"

	"github.com/spf13/cobra"
)

var measurementCmd = &cobra.Command{
	Use:     "measurement",
	Aliases: []string{"m", "measurements"},
	Short:   "Write measurement data",
	Long:    `Commands for seeding measurements the way a sensor gateway would.`,
}

var measurementAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record one measurement",
	Long: `Record one measurement for a home. Omitted values are stored as absent.

Examples:
  homedash measurement add --home homeA --inside-temp 21.4 --inside-humidity 45
  homedash measurement add --home homeA --at 2024-01-01T10:00:00Z --outside-temp 3.5`,
	Args: cobra.NoArgs,
	RunE: runMeasurementAdd,
}

func init() {
	f := measurementAddCmd.Flags()
	f.String("home", "", "home id")
	f.String("at", "", "RFC3339 timestamp (default now)")
	f.Float64("inside-temp", 0, "inside temperature in °C")
	f.Float64("inside-humidity", 0, "inside relative humidity in %")
	f.Float64("outside-temp", 0, "outside temperature in °C")
	f.Float64("outside-humidity", 0, "outside relative humidity in %")
	_ = measurementAddCmd.MarkFlagRequired("home")
	measurementCmd.AddCommand(measurementAddCmd)
}

func runMeasurementAdd(cmd *cobra.Command, args []string) error {
	homeID, _ := cmd.Flags().GetString("home")
	at := time.Now()
	if s, _ := cmd.Flags().GetString("at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid --at %q: %w", s, err)
		}
		at = t
	}

	node := models.MeasurementNode{
		Inside:  sensorFromFlags(cmd, "inside-temp", "inside-humidity"),
		Outside: sensorFromFlags(cmd, "outside-temp", "outside-humidity"),
	}
	if node.Inside == nil && node.Outside == nil {
		return fmt.Errorf("no value given; set at least one of --inside-temp, --inside-humidity, --outside-temp, --outside-humidity")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	key, err := a.services.Record(cmd.Context(), homeID, at, node)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), node.Point(key))
}

// sensorFromFlags builds a sensor block from the flags that were set.
func sensorFromFlags(cmd *cobra.Command, tempFlag, humidityFlag string) *models.SensorNode {
	var s models.SensorNode
	set := false
	if cmd.Flags().Changed(tempFlag) {
		s.Temperature, _ = cmd.Flags().GetFloat64(tempFlag)
		set = true
	}
	if cmd.Flags().Changed(humidityFlag) {
		s.Humidity, _ = cmd.Flags().GetFloat64(humidityFlag)
		set = true
	}
	if !set {
		return nil
	}
	return &s
}
