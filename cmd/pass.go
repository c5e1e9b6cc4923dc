// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/app"
	"sqlexplorer/cli/internal/config"
	"sqlexplorer/cli/internal/terminal"
)

var passUser string

var passCmd = &cobra.Command{
	Use:   "pass",
	Short: "Manage connection passwords in the credential store",
}

var passSetCmd = &cobra.Command{
	Use:   "set <dbid>",
	Short: "Ask for a password, verify it and store it",
	Long: `The set command asks for the user and password of a connection, verifies
them by connecting, and keeps them in the credential store. With the
default "memory" store they last only as long as this process; set
credentials.store to "os" to keep them in the OS keychain.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Config.Credentials.Store == config.StoreMemory {
			pterm.Warning.Println("credentials.store is \"memory\": the password is kept for this process only")
		}
		return promptPassword(cmd.Context(), a, args[0], passUser)
	},
}

var passClearCmd = &cobra.Command{
	Use:   "clear [dbid]",
	Short: "Forget the stored password of one connection, or of all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		dbid := ""
		if len(args) == 1 {
			dbid = args[0]
		}
		if err := a.Access.ClearPassword(dbid); err != nil {
			return err
		}
		pterm.Success.Println("Password cleared")
		return nil
	},
}

// promptPassword asks for credentials of dbid and stores them once a
// connection with them succeeds.
func promptPassword(ctx context.Context, a *app.App, dbid, user string) error {
	if user == "" {
		if d, ok, err := a.Registry.Get(dbid); err == nil && ok {
			user = d.User
		}
	}
	user, err := terminal.ReadLine(bufio.NewReader(os.Stdin), "User for "+dbid, user)
	if err != nil {
		return err
	}
	password, err := terminal.ReadSecret("Password")
	if err != nil {
		return err
	}
	if terminal.IsInteractive() {
		terminal.ClearPreviousLines(len("Password: "))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("verifying connection")
	err = a.Access.SetPassword(ctx, dbid, user, password, a.Executor.Ping)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if err != nil {
		pterm.Error.Println("Connection failed. Please check the user, the password and the network.")
		return err
	}
	a.Browser.Invalidate(dbid)
	pterm.Success.Printf("Password for %s verified and stored\n", dbid)
	return nil
}

func init() {
	rootCmd.AddCommand(passCmd)
	passCmd.AddCommand(passSetCmd, passClearCmd)
	passSetCmd.Flags().StringVar(&passUser, "user", "", "User name (default from the connection)")
}
