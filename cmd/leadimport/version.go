package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the leadimport version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("leadimport", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
