package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesdash/internal/dashboard"
)

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the filter values of the identifier column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd)
		if err != nil {
			return err
		}
		settings := cfg.DashboardSettings()
		opts, ok := dashboard.FilterOptions(ds.Table, settings.Roles.Identifier)
		out := cmd.OutOrStdout()
		if !ok {
			warning(out, "%s", settings.MissingIdentifierWarning())
			return nil
		}
		for _, o := range opts {
			fmt.Fprintln(out, o)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}
