// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"database/sql"
	"strings"

	"github.com/xwb1989/sqlparser"
)

// sqlConn is a single database/sql connection shared by the SQLite, MySQL
// and Oracle drivers.
type sqlConn struct {
	db   *sql.DB
	conn *sql.Conn
	// execNonSelect routes statements that return no rows through
	// ExecContext for drivers that reject them in QueryContext.
	execNonSelect bool
}

func openSQL(ctx context.Context, driverName, dataSource string) (*sqlConn, error) {
	db, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, err
	}
	c, err := wrapDB(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// wrapDB takes a dedicated connection from db; closing the result closes db.
func wrapDB(ctx context.Context, db *sql.DB) (*sqlConn, error) {
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{db: db, conn: conn}, nil
}

func (c *sqlConn) Query(ctx context.Context, req Request) (*Rows, error) {
	if c.execNonSelect && !returnsRows(req.SQL) {
		if _, err := c.conn.ExecContext(ctx, req.SQL, req.Args...); err != nil {
			return nil, err
		}
		return &Rows{}, nil
	}

	rows, err := c.conn.QueryContext(ctx, req.SQL, req.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &Rows{Columns: cols}
	for (req.MaxRows == 0 || len(out.Values) < req.MaxRows) && rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out.Values = append(out.Values, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sqlConn) exec(ctx context.Context, stmt string) error {
	_, err := c.conn.ExecContext(ctx, stmt)
	return err
}

func (c *sqlConn) Close() error {
	cerr := c.conn.Close()
	if err := c.db.Close(); err != nil {
		return err
	}
	return cerr
}

// returnsRows guesses whether a statement produces a result set.
func returnsRows(stmt string) bool {
	switch sqlparser.Preview(stmt) {
	case sqlparser.StmtSelect, sqlparser.StmtShow, sqlparser.StmtOther:
		return true
	case sqlparser.StmtUnknown:
		first := strings.Fields(sqlparser.StripLeadingComments(stmt))
		return len(first) > 0 && strings.EqualFold(first[0], "with")
	}
	return false
}
