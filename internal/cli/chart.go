package cli

import (
	"fmt"
	"io"
	"os"

	"homedash/internal/chart"
	"homedash/internal/models"

	"github.com/spf13/cobra"
)

var chartKinds = map[string]func([]models.GraphPoint, float64, float64) chart.Chart{
	"temperature": chart.TemperatureChart,
	"humidity":    chart.HumidityChart,
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a history chart as SVG",
	Long: `Render the recent history of a home as an SVG chart.

Examples:
  homedash chart --home homeA --kind temperature > temperature.svg
  homedash chart --home homeA --kind humidity --out humidity.svg`,
	Args: cobra.NoArgs,
	RunE: runChart,
}

func init() {
	chartCmd.Flags().String("home", "", "home id")
	chartCmd.Flags().String("kind", "temperature", "temperature or humidity")
	chartCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	_ = chartCmd.MarkFlagRequired("home")
}

func runChart(cmd *cobra.Command, args []string) error {
	homeID, _ := cmd.Flags().GetString("home")
	kind, _ := cmd.Flags().GetString("kind")
	outPath, _ := cmd.Flags().GetString("out")

	build, ok := chartKinds[kind]
	if !ok {
		return fmt.Errorf("unknown chart kind %q, want temperature or humidity", kind)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	pts, err := a.services.History(cmd.Context(), homeID, a.cfg.History.Limit, a.cfg.History.MaxPoints)
	if err != nil {
		return err
	}
	svg := chart.RenderSVG(build(pts, a.cfg.Chart.Width, a.cfg.Chart.Height))

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}
	_, err = w.Write(svg)
	return err
}
