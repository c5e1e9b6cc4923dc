// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"strings"
)

// DBType represents the type of database
type DBType string

const (
	DBTypePostgreSQL DBType = "postgresql"
	DBTypeMySQL      DBType = "mysql"
	DBTypeOracle     DBType = "oracle"
	DBTypeHive       DBType = "hive"
	DBTypeSQLite     DBType = "sqlite"
	DBTypeUnknown    DBType = "unknown"
)

// DSNInfo contains parsed information from a DSN string
type DSNInfo struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	// Database is the database or service name; for SQLite it is the file path.
	Database string
	Params   map[string]string
	Original string
}

// String returns the DSN the info was parsed from with its password masked.
func (d *DSNInfo) String() string {
	return d.Redacted()
}

// Redacted replaces the password in the original DSN with ****.
// The host never contains @, so the last @ ends the credentials.
func (d *DSNInfo) Redacted() string {
	scheme, rest, ok := strings.Cut(d.Original, "://")
	if !ok {
		return d.Original
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return d.Original
	}
	user, _, hasPass := strings.Cut(rest[:at], ":")
	if !hasPass {
		return d.Original
	}
	return scheme + "://" + user + ":****@" + rest[at+1:]
}

// Resolver is an interface for database-specific DSN resolution
type Resolver interface {
	// Parse parses a DSN string and returns normalized DSN info
	Parse(dsn string) (*DSNInfo, error)

	// Normalize converts DSN info to the connection string the driver expects
	Normalize(info *DSNInfo) (string, error)

	// Validate checks if the DSN is valid for the database type
	Validate(dsn string) error
}

// ParseError represents an error that occurred during DSN parsing
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}
