// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"strings"
)

// DetectDBType detects the database type from a DSN string
func DetectDBType(dsn string) DBType {
	lower := strings.ToLower(dsn)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DBTypePostgreSQL
	case strings.HasPrefix(lower, "mysql://"):
		return DBTypeMySQL
	case strings.HasPrefix(lower, "oracle://"):
		return DBTypeOracle
	case strings.HasPrefix(lower, "hive://"):
		return DBTypeHive
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"):
		return DBTypeSQLite
	}

	return DBTypeUnknown
}

// ResolverFor returns the resolver for a database type.
func ResolverFor(t DBType) (Resolver, bool) {
	switch t {
	case DBTypePostgreSQL:
		return NewPostgreSQLResolver(), true
	case DBTypeMySQL:
		return NewMySQLResolver(), true
	case DBTypeOracle:
		return NewOracleResolver(), true
	case DBTypeHive:
		return NewHiveResolver(), true
	case DBTypeSQLite:
		return NewSQLiteResolver(), true
	}
	return nil, false
}

func resolverForDSN(dsn string) (Resolver, error) {
	if dsn == "" {
		return nil, NewParseError(dsn, "empty DSN", "provide a valid database connection string")
	}
	resolver, ok := ResolverFor(DetectDBType(dsn))
	if !ok {
		return nil, NewParseError(dsn, "unknown database type", "use postgres://, mysql://, oracle://, hive:// or sqlite://")
	}
	return resolver, nil
}

// Parse parses a DSN string and returns the connection string the driver expects.
// This is the main entry point for DSN parsing
func Parse(dsn string) (string, error) {
	resolver, err := resolverForDSN(dsn)
	if err != nil {
		return "", err
	}

	info, err := resolver.Parse(dsn)
	if err != nil {
		return "", err
	}

	return resolver.Normalize(info)
}

// Validate validates a DSN string without normalizing it
func Validate(dsn string) error {
	resolver, err := resolverForDSN(dsn)
	if err != nil {
		return err
	}
	return resolver.Validate(dsn)
}

// ParseInfo parses a DSN string and returns detailed DSN info
// Useful for inspecting connection details
func ParseInfo(dsn string) (*DSNInfo, error) {
	resolver, err := resolverForDSN(dsn)
	if err != nil {
		return nil, err
	}
	return resolver.Parse(dsn)
}

// Normalize builds the driver connection string for already parsed info.
func Normalize(info *DSNInfo) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil DSN info", "")
	}
	resolver, ok := ResolverFor(info.Type)
	if !ok {
		return "", NewParseError(info.Original, "unknown database type", "")
	}
	return resolver.Normalize(info)
}
