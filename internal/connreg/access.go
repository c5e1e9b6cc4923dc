// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connreg

import (
	"context"
	"path/filepath"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/keychain"
)

// KerberosPaths locates keytabs and the generated krb5.conf.
type KerberosPaths struct {
	KeytabDir string
	ConfPath  string
}

// Access combines stored descriptors with runtime credentials to produce
// connection targets.
type Access struct {
	registry *Registry
	creds    *keychain.Manager
	dataRoot string
	kerberos KerberosPaths
}

// NewAccess wires a registry to a credential store. Relative SQLite
// database names resolve under dataRoot.
func NewAccess(registry *Registry, creds *keychain.Manager, dataRoot string, kerberos KerberosPaths) *Access {
	return &Access{registry: registry, creds: creds, dataRoot: dataRoot, kerberos: kerberos}
}

// Registry returns the underlying registry.
func (a *Access) Registry() *Registry { return a.registry }

// HasCredentials reports whether id can connect without asking for a password.
// When it cannot, the known user name (possibly empty) is returned so the
// caller can pre-fill a prompt. Unknown ids are an error.
func (a *Access) HasCredentials(id string) (bool, string, error) {
	d, ok, err := a.registry.Get(id)
	if err != nil {
		return false, "", err
	}
	if !ok || d.Type == "" {
		return false, "", errors.Newf(errors.NoConnection, "conn %s not exists or error", id)
	}
	if !d.Type.NeedsPassword() {
		return true, "", nil
	}
	if d.User != "" && d.Password != "" {
		return true, "", nil
	}
	_, stored, err := a.creds.LoadCredentials(id)
	if err != nil {
		return false, "", err
	}
	if stored {
		return true, "", nil
	}
	return false, d.User, nil
}

// Resolve builds the connection target for id. usedb selects a database
// (MySQL, Hive) or schema (PostgreSQL, Oracle) when not empty.
func (a *Access) Resolve(id, usedb string) (dialect.Target, error) {
	d, ok, err := a.registry.Get(id)
	if err != nil {
		return dialect.Target{}, errors.Wrap(errors.NoConnection, "read connection "+id, err)
	}
	if !ok {
		return dialect.Target{}, errors.Newf(errors.NoConnection, "conn %s not exists or error", id)
	}

	t := dialect.Target{
		ID:       d.ID,
		Kind:     d.Type,
		Host:     d.Host,
		Port:     int(d.Port),
		User:     d.User,
		Password: d.Password,
		Database: d.Database,
	}
	if usedb != "" {
		if d.Type.DatabaseIsSchema() {
			t.Database = usedb
		} else {
			t.Schema = usedb
		}
	}

	switch {
	case d.Type == dialect.SQLite:
		if t.Database != ":memory:" && !filepath.IsAbs(t.Database) {
			t.Database = filepath.Join(a.dataRoot, t.Database)
		}
	case d.Type == dialect.HiveKerberos:
		t.Kerberos = &dialect.Kerberos{
			Principal:    d.Principal,
			DefaultRealm: d.DefRealm,
			Realms:       d.Krb5Conf,
			Keytab:       filepath.Join(a.kerberos.KeytabDir, "keytab_"+d.ID),
			ConfPath:     a.kerberos.ConfPath,
		}
	case d.User == "" || d.Password == "":
		c, stored, err := a.creds.LoadCredentials(id)
		if err != nil {
			return dialect.Target{}, err
		}
		if !stored {
			e := errors.Newf(errors.NeedCredentials, "connection %s needs a password", id)
			return dialect.Target{}, &NeedCredentialsError{E: e, ID: id, User: d.User}
		}
		t.User, t.Password = c.User, c.Password
	}
	return t, nil
}

// NeedCredentialsError names the connection and known user that need a password.
type NeedCredentialsError struct {
	*errors.E
	ID   string
	User string
}

func (e *NeedCredentialsError) Unwrap() error { return e.E }

// SetPassword stores credentials for id and checks them with verify. The
// credentials are removed again when verification fails.
func (a *Access) SetPassword(ctx context.Context, id, user, password string, verify func(context.Context, dialect.Target) error) error {
	if err := a.creds.SaveCredentials(id, keychain.Credentials{User: user, Password: password}); err != nil {
		return err
	}
	t, err := a.Resolve(id, "")
	if err == nil {
		err = verify(ctx, t)
	}
	if err != nil {
		_ = a.creds.ClearCredentials(id)
		return errors.Wrap(errors.NeedCredentials, "user or passwd error", err)
	}
	return nil
}

// ClearPassword forgets stored credentials for id, or for every connection when id is empty.
func (a *Access) ClearPassword(id string) error {
	if id == "" {
		return a.creds.ClearAll()
	}
	return a.creds.ClearCredentials(id)
}
