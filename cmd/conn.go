// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/connreg"
	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/dsn"
)

var (
	connFromDSN  string
	connType     string
	connName     string
	connHost     string
	connPort     int
	connUser     string
	connPassword string
	connDatabase string
	connPrinc    string
	connRealm    string
)

var connCmd = &cobra.Command{
	Use:   "conn",
	Short: "Manage database connections",
	Long: `Connections are stored in the connection file under db_root. Entries
defined through DB_<ID> environment variables (base64-encoded JSON) are
listed too but cannot be changed here.`,
}

var connListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Registry.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			pterm.Println("No connections configured.")
			pterm.Println("   Add one with: sqlexplorer conn add <id> --type sqlite --db data.db")
			return nil
		}
		data := pterm.TableData{{"ID", "TYPE", "NAME", "HOST", "DATABASE", "SOURCE"}}
		for _, e := range entries {
			source := "file"
			if e.Fixed {
				source = "env"
			}
			host := e.Host
			if e.Port != 0 {
				host += ":" + strconv.Itoa(int(e.Port))
			}
			data = append(data, []string{e.ID, e.Type.String(), e.Name, host, e.Database, source})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var connAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a connection",
	Long: `Add a connection either from flags or from a DSN, e.g.

  sqlexplorer conn add lite --type sqlite --db scratch.db
  sqlexplorer conn add pg --dsn postgres://bob@db.internal:5432/sales

A password given here is stored in the connection file; leave it out to be
asked for it on first use.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := descriptorFromFlags(args[0])
		if err != nil {
			return err
		}
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.Registry.Add(d); err != nil {
			return err
		}
		pterm.Success.Printf("Connection %s added\n", d.ID)
		return nil
	},
}

var connRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove a connection and its stored password",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Registry.Delete(args[0]); err != nil {
			return err
		}
		if err := a.Access.ClearPassword(args[0]); err != nil {
			a.Logger.Warn("clear stored password", "dbid", args[0], "error", err)
		}
		pterm.Success.Printf("Connection %s removed\n", args[0])
		return nil
	},
}

var connInfoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show a connection with its password masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d, ok, err := a.Registry.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			pterm.Warning.Printf("Connection %s is not configured\n", args[0])
			pterm.Println("   List connections with: sqlexplorer conn list")
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Type:     %s\n", d.Type)
		if d.Name != "" {
			fmt.Fprintf(&b, "Name:     %s\n", d.Name)
		}
		if d.Host != "" {
			fmt.Fprintf(&b, "Host:     %s\n", d.Host)
		}
		if d.Port != 0 {
			fmt.Fprintf(&b, "Port:     %d\n", d.Port)
		}
		if d.User != "" {
			fmt.Fprintf(&b, "User:     %s\n", d.User)
		}
		if d.Database != "" {
			fmt.Fprintf(&b, "Database: %s\n", d.Database)
		}
		if d.Principal != "" {
			fmt.Fprintf(&b, "Principal: %s\n", d.Principal)
		}
		password := "not stored"
		if d.Password != "" {
			password = "***"
		} else if ok, _, _ := a.Access.HasCredentials(d.ID); ok && d.Type.NeedsPassword() {
			password = "*** (credential store)"
		}
		if d.Type.NeedsPassword() {
			fmt.Fprintf(&b, "Password: %s", password)
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(d.ID)).
			WithPadding(1).
			Println(strings.TrimRight(b.String(), "\n"))
		return nil
	},
}

// descriptorFromFlags builds a descriptor from --dsn, then lets explicit flags override it.
func descriptorFromFlags(id string) (connreg.Descriptor, error) {
	d := connreg.Descriptor{ID: id}
	if connFromDSN != "" {
		info, err := dsn.ParseInfo(connFromDSN)
		if err != nil {
			return d, err
		}
		kind, ok := dialect.KindForDSN(info.Type)
		if !ok {
			return d, fmt.Errorf("unsupported DSN type %s", info.Type)
		}
		d.Type = kind
		d.Host, d.User, d.Password, d.Database = info.Host, info.User, info.Password, info.Database
		if info.Port != "" {
			p, err := strconv.Atoi(info.Port)
			if err != nil {
				return d, fmt.Errorf("invalid port in DSN %s", info)
			}
			d.Port = connreg.Port(p)
		}
	}
	if connType != "" {
		kind, err := dialect.ParseKind(connType)
		if err != nil {
			return d, err
		}
		d.Type = kind
	}
	if connName != "" {
		d.Name = connName
	}
	if connHost != "" {
		d.Host = connHost
	}
	if connPort != 0 {
		d.Port = connreg.Port(connPort)
	}
	if connUser != "" {
		d.User = connUser
	}
	if connPassword != "" {
		d.Password = connPassword
	}
	if connDatabase != "" {
		d.Database = connDatabase
	}
	if connPrinc != "" {
		d.Principal = connPrinc
	}
	if connRealm != "" {
		d.DefRealm = connRealm
	}
	return d, nil
}

func init() {
	rootCmd.AddCommand(connCmd)
	connCmd.AddCommand(connListCmd, connAddCmd, connRemoveCmd, connInfoCmd)

	f := connAddCmd.Flags()
	f.StringVar(&connFromDSN, "dsn", "", "Connection URL to take the settings from")
	f.StringVar(&connType, "type", "", "mysql, postgresql, oracle, hive, hive-kerberos or sqlite")
	f.StringVar(&connName, "name", "", "Display name")
	f.StringVar(&connHost, "host", "", "Server host")
	f.IntVar(&connPort, "port", 0, "Server port")
	f.StringVar(&connUser, "user", "", "User name")
	f.StringVar(&connPassword, "password", "", "Password to store in the connection file")
	f.StringVar(&connDatabase, "db", "", "Database, service name or SQLite file")
	f.StringVar(&connPrinc, "principal", "", "Kerberos principal (hive-kerberos)")
	f.StringVar(&connRealm, "realm", "", "Kerberos default realm (hive-kerberos)")
}
