// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

// NewPostgreSQLResolver creates a resolver for postgres:// and postgresql:// DSNs.
// Normalized DSNs use the postgresql:// scheme understood by pgx.
func NewPostgreSQLResolver() *URLResolver {
	return &URLResolver{
		Type:            DBTypePostgreSQL,
		Schemes:         []string{"postgresql", "postgres"},
		DefaultPort:     "5432",
		RequireDatabase: true,
		normalize: func(info *DSNInfo) (string, error) {
			return buildURL("postgresql", info), nil
		},
	}
}
