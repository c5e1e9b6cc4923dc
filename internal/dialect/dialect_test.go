// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"1", MySQL},
		{"mysql", MySQL},
		{"2", PostgreSQL},
		{"postgres", PostgreSQL},
		{"3", Oracle},
		{"4", HiveLDAP},
		{"hive", HiveLDAP},
		{"5", HiveKerberos},
		{"6", SQLite},
		{" SQLite ", SQLite},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseKind("7")
	assert.Error(t, err)
}

func TestKindProperties(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.Valid(), k.String())
		d, err := For(k)
		require.NoError(t, err)
		assert.Equal(t, k, d.Kind())
	}
	assert.False(t, Kind("9").Valid())
	_, err := For(Kind("9"))
	assert.Error(t, err)

	assert.False(t, SQLite.NeedsPassword())
	assert.False(t, HiveKerberos.NeedsPassword())
	assert.True(t, PostgreSQL.NeedsPassword())
	assert.False(t, Oracle.SupportsLimit())
	assert.True(t, MySQL.DatabaseIsSchema())
	assert.False(t, PostgreSQL.DatabaseIsSchema())
	assert.Equal(t, 6, SQLite.Subtype())
	assert.Equal(t, 10000, HiveLDAP.DefaultPort())
}

func TestSQLiteCatalog(t *testing.T) {
	ctx := context.Background()
	d, err := For(SQLite)
	require.NoError(t, err)

	conn, err := d.Connect(ctx, Target{Kind: SQLite, Database: filepath.Join(t.TempDir(), "nested", "demo.db")})
	require.NoError(t, err)
	defer conn.Close()

	rows, err := conn.Query(ctx, Request{SQL: "create table aaa (a INT, b INT)"})
	require.NoError(t, err)
	assert.Empty(t, rows.Columns)

	_, err = conn.Query(ctx, Request{SQL: "insert into aaa values (1, 2), (3, 4), (5, 6)"})
	require.NoError(t, err)

	rows, err = conn.Query(ctx, Request{SQL: "select a, b from aaa order by a", MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rows.Columns)
	assert.Len(t, rows.Values, 2)

	cat := d.Catalog()
	assert.False(t, cat.HasDatabases())

	tables, err := cat.Tables(ctx, conn, "")
	require.NoError(t, err)
	assert.Equal(t, []Node{{Name: "aaa", Type: NodeTable}}, tables)

	cols, err := cat.Columns(ctx, conn, "", "aaa")
	require.NoError(t, err)
	assert.Equal(t, []Node{
		{Name: "a", Desc: "INT", Type: NodeColumn},
		{Name: "b", Desc: "INT", Type: NodeColumn},
	}, cols)
}

func TestSQLConnWithMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT table_name, table_comment FROM information_schema.tables WHERE table_schema = ? ORDER BY table_name")).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "table_comment"}).
			AddRow("orders", "customer orders").
			AddRow([]byte("items"), nil))
	mock.ExpectClose()

	conn, err := wrapDB(context.Background(), db)
	require.NoError(t, err)

	nodes, err := mysqlCatalog{}.Tables(context.Background(), conn, "shop")
	require.NoError(t, err)
	assert.Equal(t, []Node{
		{Name: "orders", Desc: "customer orders", Type: NodeTable},
		{Name: "items", Type: NodeTable},
	}, nodes)

	require.NoError(t, conn.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecNonSelect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM dual").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	conn, err := wrapDB(context.Background(), db)
	require.NoError(t, err)
	conn.execNonSelect = true

	rows, err := conn.Query(context.Background(), Request{SQL: "CREATE TABLE t (a NUMBER)"})
	require.NoError(t, err)
	assert.Empty(t, rows.Columns)

	rows, err = conn.Query(context.Background(), Request{SQL: "SELECT 1 FROM dual"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, rows.Columns)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParseHiveDescribe(t *testing.T) {
	values := [][]any{
		{"id", "int", "row id"},
		{"name", "string", ""},
		{"dt", "string", "partition day"},
		{"", nil, nil},
		{"# Partition Information", nil, nil},
		{"# col_name", "data_type", "comment"},
		{"dt", "string", "partition day"},
	}
	assert.Equal(t, []Node{
		{Name: "id", Desc: "row id", Type: NodeColumn},
		{Name: "name", Type: NodeColumn},
		{Name: "dt", Desc: "partition day", Type: NodeColumn, SType: PartitionKey},
	}, parseHiveDescribe(values))
}

func TestCatalogQueries(t *testing.T) {
	sql, args, err := pgsql.Select("c.column_name").From("information_schema.columns c").
		Where(map[string]any{"c.table_schema": "public", "c.table_name": "t"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "$1")
	assert.Equal(t, []any{"t", "public"}, args)
}

func TestRenderKrb5Conf(t *testing.T) {
	got := renderKrb5Conf(&Kerberos{
		DefaultRealm: "EXAMPLE.COM",
		Realms: map[string]map[string]string{
			"EXAMPLE.COM": {"kdc": "kdc.example.com", "admin_server": "kdc.example.com"},
		},
	})
	assert.Equal(t, "[libdefaults]\ndefault_realm = EXAMPLE.COM\ndns_lookup_realm = false\ndns_lookup_kdc = false\n\n[realms]\n"+
		"  EXAMPLE.COM = {\n    admin_server = kdc.example.com\n    kdc = kdc.example.com\n  }\n", got)
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("select 1"))
	assert.True(t, returnsRows("  with x as (select 1) select * from x"))
	assert.True(t, returnsRows("show tables"))
	assert.False(t, returnsRows("create table t (a int)"))
	assert.False(t, returnsRows("insert into t values (1)"))
}
