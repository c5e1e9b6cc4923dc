// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"fmt"
	"strconv"
)

// Target is everything a driver needs to open one live connection:
// the stored connection fields with effective credentials filled in.
type Target struct {
	ID       string
	Kind     Kind
	Host     string
	Port     int
	User     string
	Password string
	// Database is the database (MySQL, PostgreSQL, Hive), service (Oracle)
	// or absolute file path (SQLite).
	Database string
	// Schema is applied after connecting where the dialect has a session
	// schema (PostgreSQL search_path, Oracle CURRENT_SCHEMA).
	Schema   string
	Kerberos *Kerberos
}

// Kerberos holds Hive-Kerberos settings.
type Kerberos struct {
	Principal    string
	DefaultRealm string
	// Realms maps realm name to its krb5.conf settings (kdc, admin_server, ...).
	Realms map[string]map[string]string
	// Keytab is the keytab file passed to kinit.
	Keytab string
	// ConfPath is where krb5.conf is written.
	ConfPath string
}

// Addr returns host:port with the dialect default port when none is set.
func (t Target) Addr() (string, int) {
	port := t.Port
	if port == 0 {
		port = t.Kind.DefaultPort()
	}
	return t.Host, port
}

func (t Target) portString() string {
	_, port := t.Addr()
	return strconv.Itoa(port)
}

// Request is one statement sent over a Conn.
type Request struct {
	SQL  string
	Args []any
	// MaxRows stops materialization after that many rows; 0 means no bound.
	MaxRows int
}

// Rows is a fully materialized result. Columns is empty when the statement
// produced no result set.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Conn is a live connection owned by a single execution.
type Conn interface {
	Query(ctx context.Context, req Request) (*Rows, error)
	Close() error
}

// Driver is the capability set of one dialect.
type Driver interface {
	Kind() Kind
	// Connect opens a connection for t. The caller closes it.
	Connect(ctx context.Context, t Target) (Conn, error)
	Catalog() Catalog
}

// For returns the driver of a dialect.
func For(k Kind) (Driver, error) {
	switch k {
	case MySQL:
		return mysqlDriver{}, nil
	case PostgreSQL:
		return postgresDriver{}, nil
	case Oracle:
		return oracleDriver{}, nil
	case HiveLDAP:
		return hiveDriver{kind: HiveLDAP}, nil
	case HiveKerberos:
		return hiveDriver{kind: HiveKerberos}, nil
	case SQLite:
		return sqliteDriver{}, nil
	}
	return nil, fmt.Errorf("unsupported database type %q", string(k))
}
