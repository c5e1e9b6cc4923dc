// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dialect is the closed set of database dialects sqlexplorer can talk to.
//
// Each dialect is a Driver: it opens one live connection for a Target and
// knows the catalog queries that list schemas, tables and columns. For
// returns the Driver of a Kind; there is no runtime registration, so adding a
// dialect means adding a Kind and a case in For.
//
// Kinds are persisted by their numeric wire tag ("1" MySQL ... "6" SQLite)
// so existing connection files keep working.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"sqlexplorer/cli/internal/dsn"
)

// Kind identifies a dialect by its wire tag.
type Kind string

const (
	MySQL        Kind = "1"
	PostgreSQL   Kind = "2"
	Oracle       Kind = "3"
	HiveLDAP     Kind = "4"
	HiveKerberos Kind = "5"
	SQLite       Kind = "6"
)

// Kinds lists every supported dialect in tag order.
func Kinds() []Kind {
	return []Kind{MySQL, PostgreSQL, Oracle, HiveLDAP, HiveKerberos, SQLite}
}

// ParseKind accepts a wire tag or a dialect name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "mysql":
		return MySQL, nil
	case "2", "pg", "postgres", "postgresql":
		return PostgreSQL, nil
	case "3", "oracle":
		return Oracle, nil
	case "4", "hive", "hive-ldap":
		return HiveLDAP, nil
	case "5", "hive-kerberos":
		return HiveKerberos, nil
	case "6", "sqlite":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown db type %q", s)
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, v := range Kinds() {
		if k == v {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case MySQL:
		return "mysql"
	case PostgreSQL:
		return "postgresql"
	case Oracle:
		return "oracle"
	case HiveLDAP:
		return "hive-ldap"
	case HiveKerberos:
		return "hive-kerberos"
	case SQLite:
		return "sqlite"
	}
	return "unknown(" + string(k) + ")"
}

// Subtype is the numeric tag shown on connection nodes.
func (k Kind) Subtype() int {
	n, _ := strconv.Atoi(string(k))
	return n
}

// DefaultPort returns the port used when a connection does not name one.
func (k Kind) DefaultPort() int {
	switch k {
	case MySQL:
		return 3306
	case PostgreSQL:
		return 5432
	case Oracle:
		return 1521
	case HiveLDAP, HiveKerberos:
		return 10000
	}
	return 0
}

// NeedsPassword is false for dialects that authenticate without a user password.
func (k Kind) NeedsPassword() bool {
	return k != SQLite && k != HiveKerberos
}

// DatabaseIsSchema reports whether switching database is how the dialect
// switches schema, so a browse or query "usedb" replaces the connection's
// database name.
func (k Kind) DatabaseIsSchema() bool {
	return k == MySQL || k == HiveLDAP || k == HiveKerberos
}

// SupportsLimit reports whether the dialect accepts a trailing LIMIT clause.
func (k Kind) SupportsLimit() bool {
	return k != Oracle
}

// DSNType maps the dialect to the DSN resolver that builds its connection string.
func (k Kind) DSNType() dsn.DBType {
	switch k {
	case MySQL:
		return dsn.DBTypeMySQL
	case PostgreSQL:
		return dsn.DBTypePostgreSQL
	case Oracle:
		return dsn.DBTypeOracle
	case HiveLDAP, HiveKerberos:
		return dsn.DBTypeHive
	case SQLite:
		return dsn.DBTypeSQLite
	}
	return dsn.DBTypeUnknown
}

// KindForDSN maps a parsed DSN type back to a dialect. Hive DSNs map to Hive-LDAP.
func KindForDSN(t dsn.DBType) (Kind, bool) {
	switch t {
	case dsn.DBTypeMySQL:
		return MySQL, true
	case dsn.DBTypePostgreSQL:
		return PostgreSQL, true
	case dsn.DBTypeOracle:
		return Oracle, true
	case dsn.DBTypeHive:
		return HiveLDAP, true
	case dsn.DBTypeSQLite:
		return SQLite, true
	}
	return "", false
}
