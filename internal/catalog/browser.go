// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package catalog serves the metadata tree: connections, databases or
// schemas, tables and columns.
//
// Metadata lookups open a short-lived connection through the dialect driver
// and are cached per connection until Invalidate is called, typically after
// a statement changed the schema.
package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"sqlexplorer/cli/internal/comments"
	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
)

// Resolver turns a connection id into a connection target.
type Resolver interface {
	Resolve(id, usedb string) (dialect.Target, error)
}

// Lister lists the configured connections as nodes.
type Lister interface {
	Nodes() ([]dialect.Node, error)
}

// Browser answers metadata questions with a per-connection cache.
type Browser struct {
	resolver  Resolver
	conns     Lister
	comments  *comments.Store
	logger    *slog.Logger
	driverFor func(dialect.Kind) (dialect.Driver, error)

	mu    sync.RWMutex
	cache map[string][]dialect.Node
}

// NewBrowser creates a Browser. store may be nil to disable comment overlays.
func NewBrowser(resolver Resolver, conns Lister, store *comments.Store, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{
		resolver:  resolver,
		conns:     conns,
		comments:  store,
		logger:    logger,
		driverFor: dialect.For,
		cache:     make(map[string][]dialect.Node),
	}
}

// Connections lists connection nodes with their comments applied.
func (b *Browser) Connections(ctx context.Context) ([]dialect.Node, error) {
	nodes, err := b.conns.Nodes()
	if err != nil {
		return nil, err
	}
	return b.overlay(nodes, func(s *comments.Store) (map[string]string, error) {
		return s.Conns(ctx)
	}), nil
}

// Children lists the databases of dbid, or the tables of db. Connections
// without a database layer list their tables directly.
func (b *Browser) Children(ctx context.Context, dbid, db string) ([]dialect.Node, error) {
	return b.cached(cacheKey(dbid, db), func() ([]dialect.Node, error) {
		var nodes []dialect.Node
		err := b.withConn(ctx, dbid, func(cat dialect.Catalog, conn dialect.Conn) error {
			var err error
			if db == "" && cat.HasDatabases() {
				nodes, err = cat.Databases(ctx, conn)
				if err == nil {
					nodes = b.overlay(nodes, func(s *comments.Store) (map[string]string, error) {
						return s.Schemas(ctx, dbid)
					})
				}
				return err
			}
			nodes, err = cat.Tables(ctx, conn, db)
			if err == nil {
				nodes = b.overlay(nodes, func(s *comments.Store) (map[string]string, error) {
					return s.Tables(ctx, dbid, db)
				})
			}
			return err
		})
		return nodes, err
	})
}

// Columns lists the columns of db.table on dbid.
func (b *Browser) Columns(ctx context.Context, dbid, db, table string) ([]dialect.Node, error) {
	if table == "" {
		return nil, errors.New(errors.InvalidConnection, "table name required")
	}
	return b.cached(cacheKey(dbid, db, table), func() ([]dialect.Node, error) {
		var nodes []dialect.Node
		err := b.withConn(ctx, dbid, func(cat dialect.Catalog, conn dialect.Conn) error {
			var err error
			nodes, err = cat.Columns(ctx, conn, db, table)
			if err == nil {
				nodes = b.overlay(nodes, func(s *comments.Store) (map[string]string, error) {
					return s.Columns(ctx, dbid, db, table)
				})
			}
			return err
		})
		return nodes, err
	})
}

// AddComment stores c and drops the cached nodes it annotates.
func (b *Browser) AddComment(ctx context.Context, c comments.Comment) error {
	if b.comments == nil {
		return errors.New(errors.InvalidConfig, "can't set comment, please set comment store first!")
	}
	if err := b.comments.Add(ctx, c); err != nil {
		return err
	}
	b.Invalidate(c.DBID)
	return nil
}

// Invalidate drops cached metadata of dbid, or everything when dbid is empty.
func (b *Browser) Invalidate(dbid string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dbid == "" {
		b.cache = make(map[string][]dialect.Node)
		return
	}
	prefix := dbid + "\x00"
	for k := range b.cache {
		if strings.HasPrefix(k, prefix) {
			delete(b.cache, k)
		}
	}
}

func (b *Browser) cached(key string, load func() ([]dialect.Node, error)) ([]dialect.Node, error) {
	b.mu.RLock()
	if nodes, ok := b.cache[key]; ok {
		b.mu.RUnlock()
		return clone(nodes), nil
	}
	b.mu.RUnlock()

	nodes, err := load()
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []dialect.Node{}
	}

	b.mu.Lock()
	b.cache[key] = nodes
	b.mu.Unlock()
	return clone(nodes), nil
}

func (b *Browser) withConn(ctx context.Context, dbid string, fn func(dialect.Catalog, dialect.Conn) error) error {
	target, err := b.resolver.Resolve(dbid, "")
	if err != nil {
		return err
	}
	drv, err := b.driverFor(target.Kind)
	if err != nil {
		return errors.Wrap(errors.NoConnection, "unsupported connection type", err)
	}
	conn, err := drv.Connect(ctx, target)
	if err != nil {
		return errors.ExecutionError(target.Kind.String(), err)
	}
	defer conn.Close()
	if err := fn(drv.Catalog(), conn); err != nil {
		if errors.KindOf(err) == "" {
			err = errors.ExecutionError(target.Kind.String(), err)
		}
		return err
	}
	return nil
}

// overlay applies comments from the store. Comment lookup failures are
// logged and leave nodes unchanged.
func (b *Browser) overlay(nodes []dialect.Node, lookup func(*comments.Store) (map[string]string, error)) []dialect.Node {
	if b.comments == nil || len(nodes) == 0 {
		return nodes
	}
	m, err := lookup(b.comments)
	if err != nil {
		b.logger.Warn("comment lookup failed", "error", err)
		return nodes
	}
	return comments.Overlay(nodes, m)
}

func cacheKey(parts ...string) string { return strings.Join(parts, "\x00") + "\x00" }

func clone(nodes []dialect.Node) []dialect.Node {
	out := make([]dialect.Node, len(nodes))
	copy(out, nodes)
	return out
}
