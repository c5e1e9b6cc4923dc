// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

const memoryDatabase = ":memory:"

// SQLiteResolver handles sqlite:///path/to/file.db and file:path DSNs.
type SQLiteResolver struct{}

// NewSQLiteResolver creates a new SQLite resolver
func NewSQLiteResolver() *SQLiteResolver {
	return &SQLiteResolver{}
}

// Parse extracts the database file path. sqlite:///abs.db is absolute,
// sqlite://rel.db is relative to the data root.
func (r *SQLiteResolver) Parse(dsn string) (*DSNInfo, error) {
	lower := strings.ToLower(dsn)
	var rest string
	switch {
	case strings.HasPrefix(lower, "sqlite://"):
		rest = dsn[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:"):
		rest = dsn[len("file:"):]
	default:
		return nil, NewParseError(dsn, "missing or invalid scheme", "use sqlite:///path/to/file.db")
	}

	path, paramStr, _ := strings.Cut(rest, "?")
	if path == "" {
		return nil, NewParseError(dsn, "missing database file", "sqlite must set db name ( it's a database file )")
	}

	info := &DSNInfo{
		Type:     DBTypeSQLite,
		Database: path,
		Params:   make(map[string]string),
		Original: dsn,
	}
	if paramStr != "" {
		for _, param := range strings.Split(paramStr, "&") {
			if k, v, ok := strings.Cut(param, "="); ok {
				info.Params[k] = v
			}
		}
	}
	return info, nil
}

// Normalize returns the modernc.org/sqlite data source name.
func (r *SQLiteResolver) Normalize(info *DSNInfo) (string, error) {
	if info == nil || info.Database == "" {
		return "", NewParseError("", "missing database file", "")
	}
	if info.Database == memoryDatabase {
		return memoryDatabase, nil
	}
	q := "_pragma=busy_timeout(5000)"
	for k, v := range info.Params {
		q += "&" + k + "=" + v
	}
	return "file:" + info.Database + "?" + q, nil
}

// Validate checks if the DSN is valid
func (r *SQLiteResolver) Validate(dsn string) error {
	_, err := r.Parse(dsn)
	return err
}
