// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/dialect"
)

var (
	browseDB    string
	browseTable string
)

var browseCmd = &cobra.Command{
	Use:   "browse [dbid]",
	Short: "Browse connections, databases, tables and columns",
	Long: `Without arguments browse lists the connections. With a connection id it
lists its databases or schemas; --db lists the tables of one of them and
--table the columns of a table. Connections without databases, such as
SQLite, list their tables directly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := cmd.Context()

		if len(args) == 0 {
			nodes, err := a.Browser.Connections(ctx)
			if err != nil {
				return err
			}
			data := pterm.TableData{{"ID", "TYPE", "DESCRIPTION"}}
			for _, n := range nodes {
				data = append(data, []string{n.Name, dialect.Kind(strconv.Itoa(n.SubType)).String(), n.Desc})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		}

		dbid := args[0]
		var nodes []dialect.Node
		root := dbid
		if browseTable != "" {
			nodes, err = a.Browser.Columns(ctx, dbid, browseDB, browseTable)
			root = browseTable
		} else {
			nodes, err = a.Browser.Children(ctx, dbid, browseDB)
			if browseDB != "" {
				root = browseDB
			}
		}
		if err != nil {
			return err
		}
		return renderNodes(root, nodes)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().StringVar(&browseDB, "db", "", "Database or schema")
	browseCmd.Flags().StringVar(&browseTable, "table", "", "Table whose columns to list")
}
