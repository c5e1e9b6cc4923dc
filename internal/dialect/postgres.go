// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"

	"github.com/jackc/pgx/v5"

	"sqlexplorer/cli/internal/dsn"
)

type postgresDriver struct{}

func (postgresDriver) Kind() Kind       { return PostgreSQL }
func (postgresDriver) Catalog() Catalog { return postgresCatalog{} }

// Connect opens a single pgx connection. A Target schema is applied with
// SET search_path so unqualified names resolve inside it.
func (postgresDriver) Connect(ctx context.Context, t Target) (Conn, error) {
	source, err := dsn.NewPostgreSQLResolver().Normalize(networkInfo(dsn.DBTypePostgreSQL, t))
	if err != nil {
		return nil, err
	}
	conn, err := pgx.Connect(ctx, source)
	if err != nil {
		return nil, err
	}
	if t.Schema != "" {
		if _, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{t.Schema}.Sanitize()); err != nil {
			conn.Close(ctx)
			return nil, err
		}
	}
	return &pgConn{conn: conn}, nil
}

type pgConn struct {
	conn *pgx.Conn
}

func (c *pgConn) Query(ctx context.Context, req Request) (*Rows, error) {
	rows, err := c.conn.Query(ctx, req.SQL, req.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	out := &Rows{Columns: make([]string, len(fds))}
	for i, fd := range fds {
		out.Columns[i] = fd.Name
	}

	for rows.Next() {
		if req.MaxRows > 0 && len(out.Values) >= req.MaxRows {
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close uses a fresh context so a cancelled execution still releases the server session.
func (c *pgConn) Close() error {
	return c.conn.Close(context.Background())
}
