package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesdash/internal/dashboard"
	"github.com/KaramelBytes/salesdash/internal/dataset"
	"github.com/KaramelBytes/salesdash/internal/export"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/termplot"
)

var (
	renderSKU    string
	renderFormat string
	renderColor  string
	renderList   bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the dashboard once for one filter value",
	Long: `Render performs one non-interactive rerun of the dashboard. The text format
draws the page and its charts in the terminal; the json format prints the view
with every chart request (columns and data) for an external plotting engine.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd)
		if err != nil {
			return err
		}
		settings := cfg.DashboardSettings()
		sel, err := export.Selections(ds.Table, settings, renderSKU, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch renderFormat {
		case "text":
			color, err := wantColor(out, renderColor)
			if err != nil {
				return err
			}
			return renderText(out, ds.Table, settings, sel[0], textOptions{Color: color, ListOptions: renderList})
		case "json":
			v := dashboard.Render(ds.Table, sel[0], settings)
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal view: %w", err)
			}
			fmt.Fprintln(out, string(b))
			return nil
		default:
			return fmt.Errorf("unsupported --format: %s (use text or json)", renderFormat)
		}
	},
}

type textOptions struct {
	Color bool
	// ListOptions prints every filter value under the select box.
	ListOptions bool
}

// renderText draws one rerun for sel as styled text.
func renderText(out io.Writer, t *dataset.Table, settings dashboard.Settings, sel string, opt textOptions) error {
	page := termplot.NewPage(out, opt.Color)
	page.Selection = sel
	page.ShowOptions = opt.ListOptions
	plotter := termplot.New(out, termplot.Options{Color: opt.Color})
	v, err := dashboard.Run(page, plotter, t, settings)
	if err != nil {
		return err
	}
	logger.Debug("rendered", "selection", v.Selected, "rows", v.Rows, "charts", len(v.Charts))
	return nil
}

func wantColor(out io.Writer, mode string) (bool, error) {
	switch mode {
	case "auto", "":
		return logging.IsTerminal(out), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("unsupported --color: %s (use auto, always or never)", mode)
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&renderSKU, "sku", "", "filter value to show (default: the first one)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "text", "output format: text|json")
	renderCmd.Flags().StringVar(&renderColor, "color", "auto", "color text output: auto|always|never")
	renderCmd.Flags().BoolVar(&renderList, "list-options", false, "list every filter value under the select box (text format)")
}
