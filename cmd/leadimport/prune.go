package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneOlderThanDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Strip retained message bodies from old failed imports",
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff := time.Now().AddDate(0, 0, -pruneOlderThanDays)
		n, err := st.StripFailedImportBodies(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Stripped bodies from %d failed imports older than %d days.\n",
			n, pruneOlderThanDays)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneOlderThanDays, "older-than-days", 90,
		"strip bodies from failed imports older than this many days")
	rootCmd.AddCommand(pruneCmd)
}
