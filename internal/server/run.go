// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"sqlexplorer/cli/internal/app"
	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/rpc"
	"sqlexplorer/cli/internal/sqlexec"
	"sqlexplorer/cli/internal/task"
)

const shutdownGrace = 5 * time.Second

// NewHandlers returns the HTTP API for a.
func NewHandlers(a *app.App) *Handlers {
	return &Handlers{
		Access:   a.Access,
		Browser:  a.Browser,
		Protocol: a.Protocol,
		Pinger:   a.Executor,
		Token:    a.Config.Server.Token,
		Logger:   a.Logger,
	}
}

// Sweeper periodically drops finished results nobody polled.
type Sweeper struct {
	cron *cron.Cron
}

// NewSweeper schedules tasks.Sweep(ttl) on spec, a cron expression or
// descriptor such as "@every 1m".
func NewSweeper(spec string, ttl time.Duration, tasks *task.Registry[*sqlexec.Result], logger *slog.Logger) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := tasks.Sweep(ttl); n > 0 {
			logger.Info("dropped unclaimed results", "count", n, "ttl", ttl)
		}
	})
	if err != nil {
		return nil, errors.Wrap(errors.InvalidConfig, "invalid query.sweep_schedule "+spec, err)
	}
	return &Sweeper{cron: c}, nil
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() { <-s.cron.Stop().Done() }

// Run serves HTTP (and gRPC when configured) until ctx ends, then shuts down.
func Run(ctx context.Context, a *app.App) error {
	cfg := a.Config
	logger := a.Logger

	sweeper, err := NewSweeper(cfg.Query.SweepSchedule, cfg.Query.ResultTTL, a.Tasks, logger)
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	limits := a.Executor.Limits()
	logger.Info("query limits",
		"default_rows", limits.Default,
		"max_rows", limits.Max,
		"poll_timeout", a.Protocol.PollTimeout())

	httpSrv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           NewHandlers(a).Routes(cfg.Server.BaseURL),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Query.RequestTimeout + 5*time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", ln.Addr().String(), "base_url", cfg.Server.BaseURL)
		if err := httpSrv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if cfg.Server.GRPCListen != "" {
		gln, err := net.Listen("tcp", cfg.Server.GRPCListen)
		if err != nil {
			_ = httpSrv.Close()
			return err
		}
		gs := rpc.NewGRPCServer(a.Protocol, cfg.Server.Token, logger)
		g.Go(func() error {
			logger.Info("grpc listening", "addr", gln.Addr().String())
			return gs.Serve(gln)
		})
		g.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}
