// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the sqlexplorer command-line interface: the server
// behind the notebook SQL browser, plus commands to manage connections and
// run queries from a terminal, locally or against a running server.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"sqlexplorer/cli/internal/app"
	"sqlexplorer/cli/internal/config"
	"sqlexplorer/cli/internal/logging"
)

var (
	showVersion bool
	configPath  string
	verbose     bool
	jsonLogs    bool
)

var rootCmd = &cobra.Command{
	Use:   "sqlexplorer",
	Short: "SQL browser backend with long-running query support",
	Long: `sqlexplorer keeps database connections, browses their catalogs and runs
queries that may take longer than a single request allows. Queries are
submitted, answered with a task id and polled until the result is ready.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("sqlexplorer %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
		if hint := logging.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $SQLEXPLORER_CONFIG or the XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: verbose,
		JSON:    jsonLogs,
		Writer:  os.Stderr,
	})
}

// buildApp loads the configuration and wires the components. Callers must Close the result.
func buildApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return appFor(cfg)
}

func appFor(cfg config.Config) (*app.App, error) {
	return app.Build(cfg, newLogger(cfg))
}
