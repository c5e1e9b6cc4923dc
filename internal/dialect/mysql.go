// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"

	_ "github.com/go-sql-driver/mysql"

	"sqlexplorer/cli/internal/dsn"
)

type mysqlDriver struct{}

func (mysqlDriver) Kind() Kind       { return MySQL }
func (mysqlDriver) Catalog() Catalog { return mysqlCatalog{} }

func (mysqlDriver) Connect(ctx context.Context, t Target) (Conn, error) {
	source, err := dsn.NewMySQLResolver().Normalize(networkInfo(dsn.DBTypeMySQL, t))
	if err != nil {
		return nil, err
	}
	c, err := openSQL(ctx, "mysql", source)
	if err != nil {
		return nil, err
	}
	if t.Schema != "" {
		if err := c.exec(ctx, "USE "+quoteBacktick(t.Schema)); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

func networkInfo(typ dsn.DBType, t Target) *dsn.DSNInfo {
	return &dsn.DSNInfo{
		Type:     typ,
		Host:     t.Host,
		Port:     t.portString(),
		User:     t.User,
		Password: t.Password,
		Database: t.Database,
	}
}
