package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	retryLenient bool
	retryAll     bool
)

var retryCmd = &cobra.Command{
	Use:   "retry [id...]",
	Short: "Re-import previously failed leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := args
		if retryAll {
			failed, err := st.GetUnresolvedFailedImports(cmd.Context(), 0)
			if err != nil {
				return err
			}
			for _, f := range failed {
				ids = append(ids, f.ID)
			}
		}
		if len(ids) == 0 {
			return fmt.Errorf("no failed import ids given; pass ids or --all")
		}

		result, err := imp.Retry(cmd.Context(), ids, retryLenient)
		if err != nil {
			return err
		}

		return printResult(result, func() {
			fmt.Printf("Processed:  %d\n", result.Processed)
			fmt.Printf("Successful: %d\n", result.Successful)
			fmt.Printf("Failed:     %d\n", result.Failed)
			for _, item := range result.Items {
				if item.Error != "" {
					fmt.Printf("  %s: %s\n", item.ID, item.Error)
				} else {
					fmt.Printf("  %s: customer %s\n", item.ID, item.CustomerID)
				}
			}
		})
	},
}

func init() {
	retryCmd.Flags().BoolVar(&retryLenient, "lenient", false, "relax the lead acceptance rules")
	retryCmd.Flags().BoolVar(&retryAll, "all", false, "retry every unresolved failed import")
	rootCmd.AddCommand(retryCmd)
}
