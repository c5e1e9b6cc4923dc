// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app assembles the explorer components from a Config.
package app

import (
	"log/slog"
	"os"

	"sqlexplorer/cli/internal/catalog"
	"sqlexplorer/cli/internal/comments"
	"sqlexplorer/cli/internal/config"
	"sqlexplorer/cli/internal/connreg"
	"sqlexplorer/cli/internal/keychain"
	"sqlexplorer/cli/internal/protocol"
	"sqlexplorer/cli/internal/sqlexec"
	"sqlexplorer/cli/internal/task"
)

// App holds the wired components.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	DataDir  string
	Creds    *keychain.Manager
	Registry *connreg.Registry
	Access   *connreg.Access
	Executor *sqlexec.Executor
	Tasks    *task.Registry[*sqlexec.Result]
	Protocol *protocol.Service
	Comments *comments.Store
	Browser  *catalog.Browser
}

// Build wires every component. Close releases what Build opened.
func Build(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}
	creds, err := keychain.NewManager(cfg.Credentials.Store)
	if err != nil {
		return nil, err
	}
	storePath, err := comments.ParseStore(cfg.Comments.Store)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DataDir: dataDir, Creds: creds}
	if storePath != "" {
		if a.Comments, err = comments.Open(storePath, logger); err != nil {
			return nil, err
		}
	}

	a.Registry = connreg.New(dataDir, logger)
	a.Access = connreg.NewAccess(a.Registry, creds, dataDir, connreg.KerberosPaths{
		KeytabDir: cfg.Kerberos.KeytabDir,
		ConfPath:  cfg.Kerberos.ConfPath,
	})
	a.Executor = sqlexec.New(a.Access, sqlexec.Limits{
		Default: cfg.Query.DefaultLimit,
		Max:     cfg.Query.MaxLimit,
	}, logger)
	a.Browser = catalog.NewBrowser(a.Access, a.Registry, a.Comments, logger)
	a.Executor.OnChange = a.Browser.Invalidate

	a.Tasks = task.NewRegistry[*sqlexec.Result](cfg.Query.Workers)
	a.Protocol = protocol.NewService(a.Access, a.Executor, a.Tasks, protocol.Options{
		PollTimeout: cfg.Query.PollTimeout,
		Logger:      logger,
	})
	return a, nil
}

// Close stops running tasks and closes the comment store.
func (a *App) Close() error {
	a.Tasks.Close()
	if a.Comments != nil {
		return a.Comments.Close()
	}
	return nil
}
