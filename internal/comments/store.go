// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package comments keeps user annotations on connections, schemas, tables
// and columns and overlays them on browser nodes.
//
// Comments are append-only; for every key the most recent one wins.
package comments

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/xdg"
)

// Level is the kind of object a comment is attached to.
type Level int

const (
	Conn   Level = 1
	Schema Level = 2
	Table  Level = 3
	Column Level = 4
)

// Comment is one annotation.
type Comment struct {
	Level   Level  `json:"type"`
	DBID    string `json:"dbid"`
	Schema  string `json:"schema,omitempty"`
	Table   string `json:"table,omitempty"`
	Column  string `json:"column,omitempty"`
	Comment string `json:"comment"`
}

func (c Comment) validate() error {
	if c.DBID == "" {
		return errors.New(errors.InvalidConnection, "comment needs a dbid")
	}
	switch c.Level {
	case Conn:
	case Schema:
		if c.Schema == "" {
			return errors.New(errors.InvalidConnection, "schema comment needs a schema")
		}
	case Table:
		if c.Table == "" {
			return errors.New(errors.InvalidConnection, "table comment needs a table")
		}
	case Column:
		if c.Table == "" || c.Column == "" {
			return errors.New(errors.InvalidConnection, "column comment needs a table and a column")
		}
	default:
		return errors.Newf(errors.InvalidConnection, "unknown comment type %d", c.Level)
	}
	return nil
}

const storePrefix = "database::"

// ParseStore interprets a store setting such as
// "database::sqlite:////home/me/comments.db". An empty setting or "none"
// disables comments and returns an empty path.
func ParseStore(setting string) (string, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" || setting == "none" {
		return "", nil
	}
	rest, ok := strings.CutPrefix(setting, storePrefix)
	if !ok {
		return "", errors.Newf(errors.InvalidConfig, "unsupported comment store %q", setting)
	}
	path, ok := strings.CutPrefix(rest, "sqlite:///")
	if !ok || path == "" {
		return "", errors.Newf(errors.InvalidConfig, "comment store must be a sqlite url, got %q", rest)
	}
	if path == ":memory:" {
		return path, nil
	}
	return xdg.ExpandHome(path)
}

// Store persists comments in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating when needed) the SQLite database at path and applies migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create comment store dir: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := migrateUp(db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Add records c.
func (s *Store) Add(ctx context.Context, c Comment) error {
	if err := c.validate(); err != nil {
		return err
	}
	row := map[string]any{"type": int(c.Level), "dbid": c.DBID, "comment": c.Comment}
	switch c.Level {
	case Column:
		row["column_name"] = c.Column
		fallthrough
	case Table:
		row["table_name"] = c.Table
		fallthrough
	case Schema:
		row["schema_name"] = c.Schema
	}
	q, args, err := sq.Insert("comments").SetMap(row).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// Conns returns the latest comment per connection.
func (s *Store) Conns(ctx context.Context) (map[string]string, error) {
	return s.latest(ctx, "dbid", sq.Eq{"type": int(Conn)})
}

// Schemas returns the latest comment per schema of dbid.
func (s *Store) Schemas(ctx context.Context, dbid string) (map[string]string, error) {
	return s.latest(ctx, "schema_name", sq.Eq{"type": int(Schema), "dbid": dbid})
}

// Tables returns the latest comment per table of dbid/schema.
func (s *Store) Tables(ctx context.Context, dbid, schema string) (map[string]string, error) {
	return s.latest(ctx, "table_name", sq.Eq{"type": int(Table), "dbid": dbid, "schema_name": schema})
}

// Columns returns the latest comment per column of dbid/schema/table.
func (s *Store) Columns(ctx context.Context, dbid, schema, table string) (map[string]string, error) {
	return s.latest(ctx, "column_name", sq.Eq{"type": int(Column), "dbid": dbid, "schema_name": schema, "table_name": table})
}

func (s *Store) latest(ctx context.Context, key string, where sq.Eq) (map[string]string, error) {
	sub, subArgs, err := sq.Select("max(id)").From("comments").Where(where).GroupBy(key).ToSql()
	if err != nil {
		return nil, err
	}
	q, args, err := sq.Select(key, "comment").From("comments").Where("id IN ("+sub+")", subArgs...).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Overlay replaces node descriptions with matching comments.
func Overlay(nodes []dialect.Node, comments map[string]string) []dialect.Node {
	for i := range nodes {
		if c, ok := comments[nodes[i].Name]; ok {
			nodes[i].Desc = c
		}
	}
	return nodes
}
