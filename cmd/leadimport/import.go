package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relocato/leadimport/internal/credential"
	"github.com/relocato/leadimport/internal/importer"
	"github.com/relocato/leadimport/internal/model"
)

var (
	importFolder  string
	importLimit   int
	importLenient bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run one import against the referral mailbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := resolveMailboxPassword(); err != nil {
			return err
		}

		stats, err := imp.Run(ctx, importer.Options{
			Folder:  importFolder,
			Limit:   importLimit,
			Lenient: importLenient,
		})
		if err != nil {
			return err
		}

		return printStats(stats)
	},
}

var importFileCmd = &cobra.Command{
	Use:   "import-file <path>",
	Short: "Import leads from a CSV or iCalendar export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		var (
			msgs   []model.RawEmailMessage
			source string
		)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			msgs, err = importer.ReadCSVLeads(f)
			source = model.ImportSourceCSV
		case ".ics":
			msgs, err = importer.ReadICSLeads(f)
			source = model.ImportSourceICS
		default:
			return fmt.Errorf("unsupported file type %q, expected .csv or .ics", filepath.Ext(path))
		}
		if err != nil {
			return err
		}

		stats, err := imp.ImportMessages(cmd.Context(), msgs, source)
		if err != nil {
			return err
		}
		return printStats(stats)
	},
}

func printStats(stats *model.ImportStats) error {
	return printResult(stats, func() {
		fmt.Printf("Messages:      %d\n", stats.TotalMessages)
		fmt.Printf("Processed:     %d\n", stats.Processed)
		fmt.Printf("New customers: %d\n", stats.NewCustomers)
		fmt.Printf("Duplicates:    %d\n", stats.Duplicates)
		fmt.Printf("Errors:        %d\n", stats.Errors)
		fmt.Printf("Skipped:       %d\n", stats.Skipped)
		for src, n := range stats.BySource {
			fmt.Printf("  %-12s %d\n", src+":", n)
		}
		fmt.Printf("Duration:      %s\n", stats.ProcessingTime.Round(time.Millisecond))
	})
}

// resolveMailboxPassword fills in the IMAP password from the keyring,
// environment, or config file, in that order.
func resolveMailboxPassword() error {
	pw, err := credential.IMAPPassword(cfg.Mailbox.Username, cfg.Mailbox.Password)
	if err != nil {
		return err
	}
	cfg.Mailbox.Password = pw
	return nil
}

func init() {
	importCmd.Flags().StringVar(&importFolder, "folder", "", "mailbox folder to import (default from config)")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "max messages to process, 0 for all")
	importCmd.Flags().BoolVar(&importLenient, "lenient", false, "relax the lead acceptance rules")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importFileCmd)
}
