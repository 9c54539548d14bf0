package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relocato/leadimport/internal/credential"
)

var setPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the IMAP password in the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Mailbox.Username == "" {
			return fmt.Errorf("no mailbox username configured; set mailbox.username first")
		}

		fmt.Printf("IMAP password for %s: ", cfg.Mailbox.Username)
		reader := bufio.NewReader(os.Stdin)
		pw, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		pw = strings.TrimRight(pw, "\r\n")
		if pw == "" {
			return fmt.Errorf("empty password")
		}

		if err := credential.SetIMAPPassword(cfg.Mailbox.Username, pw); err != nil {
			return err
		}
		fmt.Println("Password stored.")
		return nil
	},
}

var deletePasswordCmd = &cobra.Command{
	Use:   "delete-password",
	Short: "Remove the IMAP password from the OS keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credential.DeleteIMAPPassword(cfg.Mailbox.Username); err != nil {
			return err
		}
		fmt.Println("Password removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(deletePasswordCmd)
}
