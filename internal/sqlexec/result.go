// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"encoding/json"

	"sqlexplorer/cli/internal/dialect"
)

// Result is a materialized query result. A Result without columns stands for
// a statement that produced no result set and marshals as {}.
type Result struct {
	Columns []string
	Rows    [][]any
}

// FromRows converts driver rows into display values.
func FromRows(rows *dialect.Rows) *Result {
	if rows == nil || len(rows.Columns) == 0 {
		return &Result{}
	}
	res := &Result{Columns: rows.Columns, Rows: make([][]any, 0, len(rows.Values))}
	for _, r := range rows.Values {
		out := make([]any, len(rows.Columns))
		for i := range out {
			if i < len(r) {
				out[i] = DisplayValue(r[i])
			}
		}
		res.Rows = append(res.Rows, out)
	}
	return res
}

// Empty reports whether the statement produced no result set.
func (r *Result) Empty() bool { return r == nil || len(r.Columns) == 0 }

type wireResult struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.Columns) == 0 {
		return []byte("{}"), nil
	}
	data := r.Rows
	if data == nil {
		data = [][]any{}
	}
	return json.Marshal(wireResult{Columns: r.Columns, Data: data})
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var w wireResult
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Columns = w.Columns
	r.Rows = w.Data
	if len(r.Columns) == 0 {
		r.Rows = nil
	}
	return nil
}
