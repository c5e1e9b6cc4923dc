// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"sqlexplorer/cli/internal/dsn"
)

type sqliteDriver struct{}

func (sqliteDriver) Kind() Kind       { return SQLite }
func (sqliteDriver) Catalog() Catalog { return sqliteCatalog{} }

// Connect opens the database file, creating its parent directory first.
func (sqliteDriver) Connect(ctx context.Context, t Target) (Conn, error) {
	if t.Database != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(t.Database), 0o755); err != nil {
			return nil, err
		}
	}
	source, err := dsn.NewSQLiteResolver().Normalize(&dsn.DSNInfo{Type: dsn.DBTypeSQLite, Database: t.Database})
	if err != nil {
		return nil, err
	}
	return openSQL(ctx, "sqlite", source)
}
