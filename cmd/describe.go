package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/salesdash/internal/analysis"
	"github.com/KaramelBytes/salesdash/internal/utils"
)

var (
	descOutputPath string
	descSampleRows int
	descGroupBy    string
	descMaxGroups  int
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Summarize the cleaned dataset as Markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd)
		if err != nil {
			return err
		}
		opt := analysis.DefaultSummaryOptions()
		opt.GroupBy = cfg.IdentifierColumn
		if cmd.Flags().Changed("sample-rows") {
			opt.SampleRows = descSampleRows
		}
		if cmd.Flags().Changed("group-by") {
			opt.GroupBy = descGroupBy
		}
		if descMaxGroups > 0 {
			opt.MaxGroups = descMaxGroups
		}
		rep := analysis.Summarize(filepath.Base(cfg.DataFile), ds.Table, ds.Report, opt)
		md := rep.Markdown()

		out := cmd.OutOrStdout()
		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			success(out, "Wrote summary to %s", descOutputPath)
			return nil
		}
		fmt.Fprintln(out, md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include (0 = none)")
	describeCmd.Flags().StringVar(&descGroupBy, "group-by", "", "column to group means by (default: identifier column, empty to skip)")
	describeCmd.Flags().IntVar(&descMaxGroups, "max-groups", 20, "maximum groups listed")
}
