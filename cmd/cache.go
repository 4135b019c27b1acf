package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the load cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "List cached dataset snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newStore().Entries()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cache_dir: %s\n", cfg.CacheDir)
		if len(entries) == 0 {
			fmt.Fprintln(out, "No snapshots")
			return nil
		}
		var total int64
		for _, e := range entries {
			fmt.Fprintf(out, "%-12s  %-24s  %6d rows  %3d cols  %8d bytes  %-5s  %s\n",
				e.Key[:12], e.Source, e.Rows, e.Columns, e.Size, e.Compression, e.Created.Format("2006-01-02 15:04"))
			total += e.Size
		}
		fmt.Fprintf(out, "%d snapshot(s), %d bytes\n", len(entries), total)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newStore().Clear()
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Removed %d snapshot(s)", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
