// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/server"
)

var (
	serveListen     string
	serveGRPCListen string
	serveBaseURL    string
	serveToken      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and, when configured, the gRPC query service",
	Long: `The serve command exposes the browser API under
<base_url>/jupyterlab-sql-explorer/ and keeps running queries in the
background until they are polled, cancelled or expire.

Flags override the server section of the config file. The token may also
be set through SQLEXPLORER_TOKEN.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Server.Listen = serveListen
		}
		if serveGRPCListen != "" {
			cfg.Server.GRPCListen = serveGRPCListen
		}
		if serveBaseURL != "" {
			cfg.Server.BaseURL = serveBaseURL
		}
		if serveToken == "" {
			serveToken = os.Getenv("SQLEXPLORER_TOKEN")
		}
		if serveToken != "" {
			cfg.Server.Token = serveToken
		}

		a, err := appFor(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, a)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveGRPCListen, "grpc-listen", "", "gRPC listen address (disabled when empty)")
	serveCmd.Flags().StringVar(&serveBaseURL, "base-url", "", "Path prefix of the HTTP API")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Token every request must carry")
}
