// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dialect

import (
	"context"
	"strings"

	_ "github.com/sijms/go-ora/v2"

	"sqlexplorer/cli/internal/dsn"
)

type oracleDriver struct{}

func (oracleDriver) Kind() Kind       { return Oracle }
func (oracleDriver) Catalog() Catalog { return oracleCatalog{} }

func (oracleDriver) Connect(ctx context.Context, t Target) (Conn, error) {
	source, err := dsn.NewOracleResolver().Normalize(networkInfo(dsn.DBTypeOracle, t))
	if err != nil {
		return nil, err
	}
	c, err := openSQL(ctx, "oracle", source)
	if err != nil {
		return nil, err
	}
	c.execNonSelect = true
	if t.Schema != "" {
		stmt := `ALTER SESSION SET CURRENT_SCHEMA = "` + strings.ReplaceAll(t.Schema, `"`, `""`) + `"`
		if err := c.exec(ctx, stmt); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}
