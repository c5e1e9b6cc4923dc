// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs one SQL statement against a registered connection.
//
// Every execution owns a fresh connection from the dialect driver, applies the
// row bound from the limiter when the dialect understands LIMIT, materializes
// the full result and converts driver values into JSON-friendly scalars.
package sqlexec

import (
	"context"
	"log/slog"
	"time"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/limiter"
)

// Resolver turns a connection id into a connection target. usedb overrides
// the database or schema when not empty.
type Resolver interface {
	Resolve(id, usedb string) (dialect.Target, error)
}

// Limits bounds SELECT results.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are the bounds used when none are configured.
var DefaultLimits = Limits{Default: 200, Max: 10000}

// Executor executes statements on connections named by id.
type Executor struct {
	resolver Resolver
	limits   Limits
	logger   *slog.Logger
	// driverFor is swapped in tests.
	driverFor func(dialect.Kind) (dialect.Driver, error)
	// OnChange is called with the connection id after a statement without a
	// result set succeeds.
	OnChange func(dbid string)
}

// New creates an Executor resolving connections through r.
func New(r Resolver, limits Limits, logger *slog.Logger) *Executor {
	if limits.Default <= 0 || limits.Max <= 0 {
		limits = DefaultLimits
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{resolver: r, limits: limits, logger: logger, driverFor: dialect.For}
}

// Limits returns the configured bounds.
func (e *Executor) Limits() Limits { return e.limits }

// Execute runs sql on connection dbid. schema, when set, selects the database
// or schema the statement runs in. A statement without a result set yields an
// empty Result.
func (e *Executor) Execute(ctx context.Context, dbid, sql, schema string) (*Result, error) {
	target, drv, err := e.target(dbid, schema)
	if err != nil {
		return nil, err
	}

	req := dialect.Request{SQL: sql}
	if target.Kind.SupportsLimit() {
		st, err := limiter.Limit(sql, e.limits.Default, e.limits.Max)
		if err != nil {
			return nil, err
		}
		req.SQL = st.SQL
	} else {
		if err := limiter.Single(sql); err != nil {
			return nil, err
		}
		req.MaxRows = e.limits.Max
	}

	res, err := e.run(ctx, drv, target, req)
	if err != nil {
		return nil, err
	}
	if res.Empty() && e.OnChange != nil {
		e.OnChange(dbid)
	}
	return res, nil
}

// Query runs a metadata statement without applying any row bound.
func (e *Executor) Query(ctx context.Context, dbid, sql, schema string) (*Result, error) {
	target, drv, err := e.target(dbid, schema)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, drv, target, dialect.Request{SQL: sql})
}

// Ping opens and closes a connection to t, reporting whether it is usable.
func (e *Executor) Ping(ctx context.Context, t dialect.Target) error {
	drv, err := e.driverFor(t.Kind)
	if err != nil {
		return errors.Wrap(errors.NoConnection, "unsupported connection type", err)
	}
	conn, err := drv.Connect(ctx, t)
	if err != nil {
		return errors.ExecutionError(t.Kind.String(), err)
	}
	return conn.Close()
}

func (e *Executor) target(dbid, schema string) (dialect.Target, dialect.Driver, error) {
	target, err := e.resolver.Resolve(dbid, schema)
	if err != nil {
		if errors.KindOf(err) == "" {
			err = errors.Wrap(errors.NoConnection, "resolve "+dbid, err)
		}
		return dialect.Target{}, nil, err
	}
	drv, err := e.driverFor(target.Kind)
	if err != nil {
		return dialect.Target{}, nil, errors.Wrap(errors.NoConnection, "unsupported connection type", err)
	}
	return target, drv, nil
}

func (e *Executor) run(ctx context.Context, drv dialect.Driver, target dialect.Target, req dialect.Request) (*Result, error) {
	start := time.Now()
	name := target.Kind.String()

	conn, err := drv.Connect(ctx, target)
	if err != nil {
		e.logger.Debug("connect failed", "dbid", target.ID, "dialect", name, "error", err)
		return nil, errors.ExecutionError(name, err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			e.logger.Debug("close connection", "dbid", target.ID, "error", cerr)
		}
	}()

	rows, err := conn.Query(ctx, req)
	if err != nil {
		e.logger.Debug("statement failed", "dbid", target.ID, "dialect", name, "error", err)
		return nil, errors.ExecutionError(name, err)
	}

	res := FromRows(rows)
	e.logger.Debug("statement done",
		"dbid", target.ID,
		"dialect", name,
		"rows", len(res.Rows),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return res, nil
}
