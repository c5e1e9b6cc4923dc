// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/app"
	"sqlexplorer/cli/internal/logging"
	"sqlexplorer/cli/internal/protocol"
	"sqlexplorer/cli/internal/rpc"
	"sqlexplorer/cli/internal/terminal"
)

var (
	querySchema string
	queryServer string
	queryToken  string
	queryTLS    bool
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <dbid> [sql]",
	Short: "Run one SQL statement and print its result",
	Long: `The query command runs one statement, read from the argument or from
stdin, and waits for its result. SELECT-like statements without a LIMIT get
the default limit; an explicit LIMIT is capped at the maximum.

With --server the statement runs on a 'sqlexplorer serve' instance over
gRPC; otherwise it runs in this process. Ctrl-C cancels the query.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbid := args[0]
		sql, err := statementFrom(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var (
			client protocol.Client
			local  *app.App
			remote *rpc.Client
		)
		if queryServer != "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			token := queryToken
			if token == "" {
				token = os.Getenv("SQLEXPLORER_TOKEN")
			}
			remote, err = rpc.Dial(queryServer, rpc.DialOptions{
				Token:          token,
				TLS:            queryTLS,
				RequestTimeout: cfg.Query.RequestTimeout,
			})
			if err != nil {
				return err
			}
			defer remote.Close()
			client = remote
		} else {
			local, err = buildApp()
			if err != nil {
				return err
			}
			defer local.Close()
			client = local.Protocol
		}

		resp := client.SubmitIn(ctx, dbid, querySchema, sql)
		if resp.Status == protocol.StatusNeedPass && local != nil && terminal.IsInteractive() {
			if err := promptPassword(ctx, local, dbid, resp.PassInfo.User); err != nil {
				return err
			}
			resp = client.SubmitIn(ctx, dbid, querySchema, sql)
		}
		resp = awaitWithSpinner(ctx, client, resp, queryJSON)

		switch resp.Status {
		case protocol.StatusData:
			return renderResult(resp.Data, queryJSON)
		case protocol.StatusNeedPass:
			pterm.Warning.Printf("Connection %s needs a password\n", dbid)
			pterm.Println("   Run: sqlexplorer pass set " + dbid)
			return errors.New("password required")
		case protocol.StatusCancelled:
			pterm.Warning.Println("Query cancelled")
			return nil
		}

		if remote != nil {
			if terr := remote.Err(); terr != nil {
				logging.PresentRPCError(terr, queryServer)
				return terr
			}
		}
		pterm.Error.Println(logging.Mask(resp.Error))
		if hint := logging.HintFor(resp.Kind); hint != "" {
			pterm.Println("   " + hint)
		}
		return errors.New("query failed")
	},
}

func statementFrom(args []string) (string, error) {
	if len(args) == 2 {
		return args[1], nil
	}
	if terminal.IsInteractive() {
		return "", errors.New("pass the statement as an argument or on stdin")
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	sql := strings.TrimSpace(string(b))
	if sql == "" {
		return "", errors.New("empty statement")
	}
	return sql, nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	f := queryCmd.Flags()
	f.StringVar(&querySchema, "db", "", "Database or schema to run in")
	f.StringVar(&queryServer, "server", "", "gRPC address of a running server")
	f.StringVar(&queryToken, "token", "", "Server token (default $SQLEXPLORER_TOKEN)")
	f.BoolVar(&queryTLS, "tls", false, "Use TLS towards --server")
	f.BoolVar(&queryJSON, "json", false, "Print the result as JSON")
}
