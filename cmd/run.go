package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesdash/internal/export"
	"github.com/KaramelBytes/salesdash/internal/logging"
	"github.com/KaramelBytes/salesdash/internal/tui"
)

var runSKU string

var dashCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive dashboard",
	Long: `Run opens the dashboard in the terminal: a sidebar select box over the SKUs
(↑/↓ or j/k) and a scrollable chart pane (pgup/pgdn). Press q to quit.
Without a terminal it prints one text rerun instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd)
		if err != nil {
			return err
		}
		settings := cfg.DashboardSettings()
		sel, err := export.Selections(ds.Table, settings, runSKU, false)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !logging.IsTerminal(out) {
			logger.Debug("no terminal, rendering once", "selection", sel[0])
			return renderText(out, ds.Table, settings, sel[0], textOptions{})
		}
		if cfg.LogFile == "" {
			logger = logging.Discard()
		}
		v, err := tui.Run(ds.Table, settings, tui.Options{Initial: sel[0], Color: true})
		if err != nil {
			return err
		}
		logger.Info("dashboard closed", "selection", v.Selected)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashCmd)
	dashCmd.Flags().StringVar(&runSKU, "sku", "", "initial filter value")
}
