// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"errors"

	"github.com/beltran/gohive"
)

type hiveDriver struct {
	kind Kind
}

func (d hiveDriver) Kind() Kind     { return d.kind }
func (hiveDriver) Catalog() Catalog { return hiveCatalog{} }

// Connect opens a HiveServer2 session with LDAP or Kerberos authentication.
// Kerberos connections obtain a ticket with kinit first.
func (d hiveDriver) Connect(ctx context.Context, t Target) (Conn, error) {
	cfg := gohive.NewConnectConfiguration()
	cfg.Database = t.Database
	auth := "LDAP"
	if d.kind == HiveKerberos {
		if t.Kerberos == nil {
			return nil, errors.New("hive-kerberos connection has no principal configured")
		}
		if err := kinit(ctx, t.ID, t.Kerberos); err != nil {
			return nil, err
		}
		auth = "KERBEROS"
		cfg.Service = "hive"
	} else {
		cfg.Username = t.User
		cfg.Password = t.Password
	}

	host, port := t.Addr()
	type dialed struct {
		conn *gohive.Connection
		err  error
	}
	ch := make(chan dialed, 1)
	go func() {
		conn, err := gohive.Connect(host, port, auth, cfg)
		ch <- dialed{conn, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		return &hiveConn{conn: r.conn}, nil
	case <-ctx.Done():
		// gohive dials without a context; close the session once it arrives
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

type hiveConn struct {
	conn *gohive.Connection
}

func (c *hiveConn) Query(ctx context.Context, req Request) (*Rows, error) {
	if len(req.Args) > 0 {
		return nil, errors.New("hive statements do not take bind arguments")
	}
	cursor := c.conn.Cursor()
	defer cursor.Close()
	stop := context.AfterFunc(ctx, cursor.Cancel)
	defer stop()

	cursor.Exec(ctx, req.SQL)
	if cursor.Err != nil {
		return nil, cursor.Err
	}

	desc := cursor.Description()
	if cursor.Err != nil || len(desc) == 0 {
		// statements without a result set have no description
		return &Rows{}, nil
	}
	out := &Rows{Columns: make([]string, len(desc))}
	for i, d := range desc {
		out.Columns[i] = d[0]
	}

	for (req.MaxRows == 0 || len(out.Values) < req.MaxRows) && cursor.HasMore(ctx) {
		m := cursor.RowMap(ctx)
		if cursor.Err != nil {
			return nil, cursor.Err
		}
		row := make([]any, len(out.Columns))
		for i, name := range out.Columns {
			row[i] = m[name]
		}
		out.Values = append(out.Values, row)
	}
	if cursor.Err != nil {
		return nil, cursor.Err
	}
	return out, nil
}

func (c *hiveConn) Close() error {
	return c.conn.Close()
}
