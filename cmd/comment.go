// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/comments"
)

var (
	commentSchema string
	commentTable  string
	commentColumn string
)

var commentCmd = &cobra.Command{
	Use:   "comment <dbid> <text>",
	Short: "Annotate a connection, schema, table or column",
	Long: `The comment command stores a note shown as the description in browse
output. The most specific flag decides what is annotated: --column needs
--table, and without flags the connection itself is annotated.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := comments.Comment{
			DBID:    args[0],
			Schema:  commentSchema,
			Table:   commentTable,
			Column:  commentColumn,
			Comment: args[1],
		}
		switch {
		case commentColumn != "":
			c.Level = comments.Column
		case commentTable != "":
			c.Level = comments.Table
		case commentSchema != "":
			c.Level = comments.Schema
		default:
			c.Level = comments.Conn
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Browser.AddComment(cmd.Context(), c); err != nil {
			return err
		}
		pterm.Success.Println("Comment saved")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
	commentCmd.Flags().StringVar(&commentSchema, "schema", "", "Database or schema")
	commentCmd.Flags().StringVar(&commentTable, "table", "", "Table")
	commentCmd.Flags().StringVar(&commentColumn, "column", "", "Column of --table")
}
