// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Node types of the browser tree.
const (
	NodeConn   = "conn"
	NodeDB     = "db"
	NodeTable  = "table"
	NodeColumn = "col"
)

// PartitionKey marks Hive partition columns.
const PartitionKey = "parkey"

// Node is one entry of the browser tree.
type Node struct {
	Name    string `json:"name"`
	Desc    string `json:"desc"`
	Type    string `json:"type"`
	SubType int    `json:"subtype,omitempty"`
	SType   string `json:"stype,omitempty"`
	// Fix is 1 for connections defined by the environment.
	Fix int `json:"fix,omitempty"`
}

// Catalog lists a dialect's metadata over a live connection.
type Catalog interface {
	// HasDatabases is false when tables sit directly under the connection.
	HasDatabases() bool
	Databases(ctx context.Context, conn Conn) ([]Node, error)
	Tables(ctx context.Context, conn Conn, db string) ([]Node, error)
	Columns(ctx context.Context, conn Conn, db, table string) ([]Node, error)
}

// runNodes executes q and builds one node per row from the name and
// description column positions (descIdx < 0 for none).
func runNodes(ctx context.Context, conn Conn, q sq.Sqlizer, typ string, nameIdx, descIdx int) ([]Node, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build catalog query: %w", err)
	}
	rows, err := conn.Query(ctx, Request{SQL: query, Args: args})
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(rows.Values))
	for _, r := range rows.Values {
		n := Node{Type: typ, Name: text(r, nameIdx)}
		if descIdx >= 0 {
			n.Desc = text(r, descIdx)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func text(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	switch v := row[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

type sqliteCatalog struct{}

func (sqliteCatalog) HasDatabases() bool { return false }

func (sqliteCatalog) Databases(context.Context, Conn) ([]Node, error) { return nil, nil }

func (sqliteCatalog) Tables(ctx context.Context, conn Conn, _ string) ([]Node, error) {
	q := sq.Select("name").From("sqlite_master").
		Where(sq.Eq{"type": "table"}).
		Where(sq.NotLike{"name": "sqlite_%"}).
		OrderBy("name")
	return runNodes(ctx, conn, q, NodeTable, 0, -1)
}

func (sqliteCatalog) Columns(ctx context.Context, conn Conn, _ string, table string) ([]Node, error) {
	q := sq.Select("p.name", "p.type").From("sqlite_master m").
		JoinClause("JOIN pragma_table_info(m.name) p").
		Where(sq.Eq{"m.name": table}).
		OrderBy("p.cid")
	return runNodes(ctx, conn, q, NodeColumn, 0, 1)
}

type postgresCatalog struct{}

var pgsql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (postgresCatalog) HasDatabases() bool { return true }

func (postgresCatalog) Databases(ctx context.Context, conn Conn) ([]Node, error) {
	q := pgsql.Select("schema_name").From("information_schema.schemata").
		Where(sq.Or{sq.Eq{"schema_name": "public"}, sq.NotEq{"schema_owner": "gpadmin"}}).
		OrderBy("schema_name")
	return runNodes(ctx, conn, q, NodeDB, 0, -1)
}

func (postgresCatalog) Tables(ctx context.Context, conn Conn, db string) ([]Node, error) {
	q := pgsql.Select("t.tablename", "obj_description(format('%I.%I', t.schemaname, t.tablename)::regclass, 'pg_class')").
		From("pg_catalog.pg_tables t").
		Where(sq.Eq{"t.schemaname": db}).
		OrderBy("t.tablename")
	return runNodes(ctx, conn, q, NodeTable, 0, 1)
}

func (postgresCatalog) Columns(ctx context.Context, conn Conn, db, table string) ([]Node, error) {
	q := pgsql.Select("c.column_name", "c.data_type",
		"col_description(format('%I.%I', c.table_schema, c.table_name)::regclass::oid, c.ordinal_position)").
		From("information_schema.columns c").
		Where(sq.Eq{"c.table_schema": db, "c.table_name": table}).
		OrderBy("c.ordinal_position")
	return runNodes(ctx, conn, q, NodeColumn, 0, 2)
}

type mysqlCatalog struct{}

func (mysqlCatalog) HasDatabases() bool { return true }

func (mysqlCatalog) Databases(ctx context.Context, conn Conn) ([]Node, error) {
	q := sq.Select("schema_name").From("information_schema.schemata").OrderBy("schema_name")
	return runNodes(ctx, conn, q, NodeDB, 0, -1)
}

func (mysqlCatalog) Tables(ctx context.Context, conn Conn, db string) ([]Node, error) {
	q := sq.Select("table_name", "table_comment").From("information_schema.tables").
		Where(sq.Eq{"table_schema": db}).
		OrderBy("table_name")
	return runNodes(ctx, conn, q, NodeTable, 0, 1)
}

func (mysqlCatalog) Columns(ctx context.Context, conn Conn, db, table string) ([]Node, error) {
	q := sq.Select("column_name", "column_comment").From("information_schema.columns").
		Where(sq.Eq{"table_schema": db, "table_name": table}).
		OrderBy("ordinal_position")
	return runNodes(ctx, conn, q, NodeColumn, 0, 1)
}

type oracleCatalog struct{}

var oraclesql = sq.StatementBuilder.PlaceholderFormat(sq.Colon)

func (oracleCatalog) HasDatabases() bool { return true }

func (oracleCatalog) Databases(ctx context.Context, conn Conn) ([]Node, error) {
	q := oraclesql.Select("username").From("all_users").OrderBy("username")
	return runNodes(ctx, conn, q, NodeDB, 0, -1)
}

func (oracleCatalog) Tables(ctx context.Context, conn Conn, db string) ([]Node, error) {
	q := oraclesql.Select("table_name", "comments").From("all_tab_comments").
		Where(sq.Eq{"owner": db, "table_type": "TABLE"}).
		OrderBy("table_name")
	return runNodes(ctx, conn, q, NodeTable, 0, 1)
}

func (oracleCatalog) Columns(ctx context.Context, conn Conn, db, table string) ([]Node, error) {
	q := oraclesql.Select("c.column_name", "m.comments").From("all_tab_columns c").
		LeftJoin("all_col_comments m ON m.owner = c.owner AND m.table_name = c.table_name AND m.column_name = c.column_name").
		Where(sq.Eq{"c.owner": db, "c.table_name": table}).
		OrderBy("c.column_id")
	return runNodes(ctx, conn, q, NodeColumn, 0, 1)
}

type hiveCatalog struct{}

func (hiveCatalog) HasDatabases() bool { return true }

func (hiveCatalog) Databases(ctx context.Context, conn Conn) ([]Node, error) {
	return runNodes(ctx, conn, sq.Expr("SHOW DATABASES"), NodeDB, 0, -1)
}

func (hiveCatalog) Tables(ctx context.Context, conn Conn, db string) ([]Node, error) {
	return runNodes(ctx, conn, sq.Expr("SHOW TABLES IN "+quoteBacktick(db)), NodeTable, 0, -1)
}

func (hiveCatalog) Columns(ctx context.Context, conn Conn, db, table string) ([]Node, error) {
	rows, err := conn.Query(ctx, Request{SQL: "DESCRIBE " + quoteBacktick(db) + "." + quoteBacktick(table)})
	if err != nil {
		return nil, err
	}
	return parseHiveDescribe(rows.Values), nil
}

// parseHiveDescribe turns DESCRIBE output (col_name, data_type, comment) into
// column nodes. Columns repeated under "# Partition Information" are
// partition keys; they replace the earlier entry in place.
func parseHiveDescribe(values [][]any) []Node {
	var nodes []Node
	index := map[string]int{}
	partition := false
	for _, r := range values {
		name := strings.TrimSpace(text(r, 0))
		if name == "" {
			continue
		}
		if strings.HasPrefix(name, "#") {
			if name == "# Partition Information" {
				partition = true
			}
			continue
		}
		n := Node{Name: name, Desc: strings.TrimSpace(text(r, 2)), Type: NodeColumn}
		if partition {
			n.SType = PartitionKey
		}
		if i, ok := index[name]; ok {
			nodes[i] = n
			continue
		}
		index[name] = len(nodes)
		nodes = append(nodes, n)
	}
	return nodes
}

func quoteBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
