// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlexplorer/cli/internal/errors"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "trailing limit is relocated",
			sql:  "select * from aaa limit 200",
			want: "select * from aaa  LIMIT 200",
		},
		{
			name: "limit before order by moves to the end",
			sql:  "select * from aaa limit 200 ORDER by AAA",
			want: "select * from aaa  ORDER by AAA LIMIT 200",
		},
		{
			name: "missing limit gets default",
			sql:  "select * from aaa",
			want: "select * from aaa LIMIT 200",
		},
		{
			name: "limit above max is capped",
			sql:  "select * from aaa limit 20000",
			want: "select * from aaa  LIMIT 10000",
		},
		{
			name: "limit below max is kept",
			sql:  "select * from aaa limit 1000",
			want: "select * from aaa  LIMIT 1000",
		},
		{
			name: "small limit is kept",
			sql:  "select * from aaa limit 10",
			want: "select * from aaa  LIMIT 10",
		},
		{
			name: "subquery limit is left alone",
			sql:  "\n    Select * from (\n        select * from BBB limit 10\n    ) t\n    ",
			want: "\n    Select * from (\n        select * from BBB limit 10\n    ) t\n     LIMIT 200",
		},
		{
			name: "ddl passes through",
			sql:  "create table aaa (a int, b int)",
			want: "create table aaa (a int, b int)",
		},
		{
			name: "insert passes through",
			sql:  "insert into aaa values (1, 2)",
			want: "insert into aaa values (1, 2)",
		},
		{
			name: "limit inside a string literal is ignored",
			sql:  "select 'limit 5' from aaa",
			want: "select 'limit 5' from aaa LIMIT 200",
		},
		{
			name: "limit inside a comment is ignored",
			sql:  "select a /* limit 5 */ from aaa",
			want: "select a /* limit 5 */ from aaa LIMIT 200",
		},
		{
			name: "trailing semicolon is kept",
			sql:  "select * from aaa;",
			want: "select * from aaa LIMIT 200;",
		},
		{
			name: "trailing line comment",
			sql:  "select * from aaa -- all rows",
			want: "select * from aaa -- all rows\n LIMIT 200",
		},
		{
			name: "mysql offset form",
			sql:  "select * from aaa limit 5, 50000",
			want: "select * from aaa  LIMIT 5, 10000",
		},
		{
			name: "offset keyword form",
			sql:  "select * from aaa limit 50 offset 100",
			want: "select * from aaa  LIMIT 50 OFFSET 100",
		},
		{
			name: "with query is a select",
			sql:  "with x as (select 1 as a) select a from x",
			want: "with x as (select 1 as a) select a from x LIMIT 200",
		},
		{
			name: "with followed by delete passes through",
			sql:  "with x as (select 1 as a) delete from t where a in (select a from x)",
			want: "with x as (select 1 as a) delete from t where a in (select a from x)",
		},
		{
			name: "parenthesized select",
			sql:  "(select a from t)",
			want: "(select a from t) LIMIT 200",
		},
		{
			name: "empty input",
			sql:  "   ",
			want: "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.sql, 200, 10000)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		kind errors.Kind
	}{
		{name: "word after limit", sql: "select * from AAA limit x 10", kind: errors.MalformedLimit},
		{name: "limit at end", sql: "select * from aaa limit", kind: errors.MalformedLimit},
		{name: "fractional limit", sql: "select * from aaa limit 1.5", kind: errors.MalformedLimit},
		{name: "negative limit", sql: "select * from aaa limit -1", kind: errors.MalformedLimit},
		{name: "two statements", sql: "select 1; select 2", kind: errors.MultiStatement},
		{name: "ddl then select", sql: "drop table t; select 1", kind: errors.MultiStatement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tt.sql, 200, 10000)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errors.KindOf(err))
		})
	}
}

func TestApplyIdempotent(t *testing.T) {
	inputs := []string{
		"select * from aaa",
		"select * from aaa limit 200",
		"select * from aaa limit 20000 order by b",
		"select * from aaa limit 3, 4",
		"select 1;",
		"select * from aaa -- note",
	}
	for _, sql := range inputs {
		t.Run(sql, func(t *testing.T) {
			once, err := Apply(sql, 200, 10000)
			require.NoError(t, err)
			twice, err := Apply(once, 200, 10000)
			require.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestLimitReportsBound(t *testing.T) {
	st, err := Limit("select * from t limit 50000", 200, 10000)
	require.NoError(t, err)
	assert.True(t, st.Limited)
	assert.Equal(t, 10000, st.Limit)

	st, err = Limit("update t set a = 1", 200, 10000)
	require.NoError(t, err)
	assert.False(t, st.Limited)
	assert.Equal(t, "update t set a = 1", st.SQL)
}

func TestApplyNeverExceedsMax(t *testing.T) {
	for _, n := range []string{"0", "1", "9999", "10000", "10001", "99999999", "99999999999999999999"} {
		st, err := Limit("select a from t limit "+n, 200, 10000)
		require.NoError(t, err)
		assert.LessOrEqual(t, st.Limit, 10000, n)
	}

	out, err := Apply("select * from aaa limit 99999999999999999999", 200, 10000)
	require.NoError(t, err)
	assert.Equal(t, "select * from aaa  LIMIT 10000", out)
}

func TestApplyErrorNamesOffendingToken(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{sql: "select * from aaa limit x", want: `LIMIT must be followed by an integer, got "x"`},
		{sql: "select * from aaa limit 5, y", want: `LIMIT offset must be followed by an integer row count, got "y"`},
		{sql: "select * from aaa limit 5 offset z", want: `OFFSET must be followed by an integer, got "z"`},
		{sql: "select * from aaa limit 5 offset", want: "OFFSET must be followed by an integer, got end of statement"},
	}
	for _, tt := range tests {
		_, err := Apply(tt.sql, 200, 10000)
		require.Error(t, err, tt.sql)
		assert.Equal(t, tt.want, err.Error())
	}
}

func TestSingle(t *testing.T) {
	assert.NoError(t, Single("delete from t"))
	assert.NoError(t, Single("delete from t;"))
	assert.NoError(t, Single("select ';' from dual"))
	assert.True(t, errors.Is(Single("delete from t; drop table t"), errors.MultiStatement))
}
