// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
)

type staticResolver map[string]dialect.Target

func (r staticResolver) Resolve(id, usedb string) (dialect.Target, error) {
	t, ok := r[id]
	if !ok {
		return dialect.Target{}, stderrors.New("no such connection")
	}
	if usedb != "" {
		t.Schema = usedb
	}
	return t, nil
}

// fakeDriver records the last request and answers with canned rows.
type fakeDriver struct {
	kind    dialect.Kind
	rows    *dialect.Rows
	err     error
	lastReq dialect.Request
	closed  int
}

func (d *fakeDriver) Kind() dialect.Kind         { return d.kind }
func (d *fakeDriver) Catalog() dialect.Catalog   { return nil }
func (d *fakeDriver) Connect(context.Context, dialect.Target) (dialect.Conn, error) {
	return fakeConn{d}, nil
}

type fakeConn struct{ d *fakeDriver }

func (c fakeConn) Query(_ context.Context, req dialect.Request) (*dialect.Rows, error) {
	c.d.lastReq = req
	return c.d.rows, c.d.err
}

func (c fakeConn) Close() error {
	c.d.closed++
	return nil
}

func newSQLiteExecutor(t *testing.T) *Executor {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exec.db")
	return New(staticResolver{"lite": {ID: "lite", Kind: dialect.SQLite, Database: path}}, Limits{Default: 2, Max: 3}, nil)
}

func TestExecuteSQLite(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteExecutor(t)

	var changed []string
	e.OnChange = func(dbid string) { changed = append(changed, dbid) }

	res, err := e.Execute(ctx, "lite", "create table aaa (a INT, b TEXT)", "")
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, []string{"lite"}, changed)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	_, err = e.Execute(ctx, "lite", "insert into aaa values (1, 'x'), (2, 'y'), (3, 'z'), (4, 'w')", "")
	require.NoError(t, err)

	res, err = e.Execute(ctx, "lite", "select a, b from aaa order by a", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Columns)
	assert.Equal(t, [][]any{{int64(1), "x"}, {int64(2), "y"}}, res.Rows)

	res, err = e.Execute(ctx, "lite", "select a from aaa order by a limit 100", "")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)

	res, err = e.Execute(ctx, "lite", "select a from aaa where a > 100", "")
	require.NoError(t, err)
	b, err = json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["a"],"data":[]}`, string(b))

	res, err = e.Query(ctx, "lite", "select count(*) as n from aaa", "")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(4)}}, res.Rows)
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	e := newSQLiteExecutor(t)

	_, err := e.Execute(ctx, "missing", "select 1", "")
	assert.True(t, errors.Is(err, errors.NoConnection))

	_, err = e.Execute(ctx, "lite", "select * from aaa limit x 10", "")
	assert.True(t, errors.Is(err, errors.MalformedLimit))

	_, err = e.Execute(ctx, "lite", "select 1; select 2", "")
	assert.True(t, errors.Is(err, errors.MultiStatement))

	_, err = e.Execute(ctx, "lite", "select * from no_such_table", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.Execution))
	var ee *errors.E
	require.True(t, stderrors.As(err, &ee))
	assert.Equal(t, "sqlite", ee.Dialect)
	assert.Contains(t, err.Error(), "no_such_table")
}

func TestExecuteWithoutLimitSyntax(t *testing.T) {
	drv := &fakeDriver{kind: dialect.Oracle, rows: &dialect.Rows{Columns: []string{"X"}, Values: [][]any{{1}}}}
	e := New(staticResolver{"ora": {ID: "ora", Kind: dialect.Oracle}}, Limits{Default: 5, Max: 50}, nil)
	e.driverFor = func(dialect.Kind) (dialect.Driver, error) { return drv, nil }

	res, err := e.Execute(context.Background(), "ora", "SELECT 1 AS x FROM dual", "HR")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 AS x FROM dual", drv.lastReq.SQL)
	assert.Equal(t, 50, drv.lastReq.MaxRows)
	assert.Equal(t, [][]any{{1}}, res.Rows)
	assert.Equal(t, 1, drv.closed)

	drv.lastReq = dialect.Request{}
	_, err = e.Execute(context.Background(), "ora", "delete from t; drop table t", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.MultiStatement))
	assert.Empty(t, drv.lastReq.SQL)
	assert.Equal(t, 1, drv.closed)
}

func TestExecuteDriverFailure(t *testing.T) {
	drv := &fakeDriver{kind: dialect.MySQL, err: stderrors.New("Error 1064: syntax")}
	e := New(staticResolver{"my": {ID: "my", Kind: dialect.MySQL}}, DefaultLimits, nil)
	e.driverFor = func(dialect.Kind) (dialect.Driver, error) { return drv, nil }

	_, err := e.Execute(context.Background(), "my", "select * from t", "")
	require.Error(t, err)
	assert.Equal(t, "select * from t LIMIT 200", drv.lastReq.SQL)
	assert.Equal(t, "[mysql] Error 1064: syntax", err.Error())
	assert.Equal(t, 1, drv.closed)
}

type decimal string

func (d decimal) Value() (any, error) { return string(d), nil }

func TestDisplayValue(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", int64(7), int64(7)},
		{"float", 1.5, 1.5},
		{"nan", math.NaN(), "NaN"},
		{"inf", math.Inf(1), "+Inf"},
		{"string", "abc", "abc"},
		{"timestamp", ts, "2024-03-05T14:30:00Z"},
		{"date", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "2024-03-05"},
		{"uuid array", [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}, "12345678-9abc-def0-1234-56789abcdef0"},
		{"uuid bytes", []byte{0xff, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0}, "ff345678-9abc-def0-1234-56789abcdef0"},
		{"text bytes", []byte("hello"), "hello"},
		{"binary", []byte{0xff, 0x00}, `\xff00`},
		{"valuer", decimal("12.50"), "12.50"},
		{"stringer", big.NewInt(42), "42"},
		{"nested", map[string]any{"k": []any{[]byte("v")}}, map[string]any{"k": []any{"v"}}},
		{"fallback", struct{ A int }{1}, "{1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayValue(tt.in))
		})
	}
}

func TestResultJSON(t *testing.T) {
	res := &Result{Columns: []string{"a"}, Rows: [][]any{{"x"}}}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"columns":["a"],"data":[["x"]]}`, string(b))

	var back Result
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []string{"a"}, back.Columns)

	require.NoError(t, json.Unmarshal([]byte(`{}`), &back))
	assert.True(t, back.Empty())
}
