package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/relocato/leadimport/internal/importer"
	"github.com/relocato/leadimport/internal/model"
	"github.com/relocato/leadimport/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configPath string
	jsonOutput bool

	cfg    *model.AppConfig
	st     *store.SQLiteStore
	imp    *importer.Importer
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "leadimport",
	Short:         "leadimport - referral mailbox importer for the moving business",
	Long:          "Leadimport polls the referral mailbox, parses portal emails into customers and draft quotes, and tracks failed imports for retry.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Commands that never touch config or database.
		switch cmd.Name() {
		case "help", "version":
			return nil
		}

		path := configPath
		if path == "" {
			path = model.DefaultConfigPath()
		}
		var err error
		cfg, err = model.LoadConfig(path)
		if err != nil {
			return err
		}

		// Credential commands only need the config for the username.
		switch cmd.Name() {
		case "set-password", "delete-password":
			return nil
		}

		st, err = store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return err
		}
		imp = importer.New(cfg, st, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if st != nil {
			st.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default "+model.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"print results as JSON")
}

// printResult writes a command result either as JSON or through the
// provided human-readable formatter.
func printResult(v interface{}, human func()) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
