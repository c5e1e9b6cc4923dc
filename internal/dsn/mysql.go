// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"

	"github.com/go-sql-driver/mysql"
)

// NewMySQLResolver creates a resolver for mysql:// DSNs. Normalized DSNs use
// the go-sql-driver format (user:pass@tcp(host:port)/db).
func NewMySQLResolver() *URLResolver {
	return &URLResolver{
		Type:        DBTypeMySQL,
		Schemes:     []string{"mysql"},
		DefaultPort: "3306",
		normalize:   normalizeMySQL,
	}
}

func normalizeMySQL(info *DSNInfo) (string, error) {
	cfg := mysql.NewConfig()
	cfg.User = info.User
	cfg.Passwd = info.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(info.Host, info.Port)
	cfg.DBName = info.Database
	if len(info.Params) > 0 {
		cfg.Params = make(map[string]string, len(info.Params))
		for k, v := range info.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}
