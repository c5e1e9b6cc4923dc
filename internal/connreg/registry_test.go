// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connreg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/keychain"
)

func newTestRegistry(t *testing.T, env ...string) *Registry {
	t.Helper()
	r := New(t.TempDir(), nil)
	r.environ = func() []string { return env }
	return r
}

func envEntry(t *testing.T, id string, d Descriptor) string {
	t.Helper()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	return "DB_" + id + "=" + base64.StdEncoding.EncodeToString(b)
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		want string
	}{
		{"missing type", Descriptor{ID: "a"}, "must set db type."},
		{"missing host", Descriptor{ID: "a", Type: dialect.MySQL}, "must set ip addr."},
		{"postgres without database", Descriptor{ID: "a", Type: dialect.PostgreSQL, Host: "h"}, "postgres must set database name to connect"},
		{"postgres without host or database", Descriptor{ID: "a", Type: dialect.PostgreSQL}, "postgres must set database name to connect"},
		{"sqlite without file", Descriptor{ID: "a", Type: dialect.SQLite}, "sqlite must set db name ( it's a database file )"},
		{"bad database name", Descriptor{ID: "a", Type: dialect.MySQL, Host: "h", Database: "shop-db"}, "db name can only contain letters, numbers, and underscores."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t)
			_, err := r.Add(tt.d)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, errors.Is(err, errors.InvalidConnection))
		})
	}
}

func TestAddListDelete(t *testing.T) {
	fixed := Descriptor{Type: dialect.PostgreSQL, Host: "pg", Database: "app", User: "ro", Password: "x"}
	r := newTestRegistry(t, envEntry(t, "PROD", fixed), "DB_BROKEN=!!!", "HOME=/root")

	_, err := r.Add(Descriptor{ID: "local", Name: "scratch", Type: dialect.SQLite, Database: "scratch.db"})
	require.NoError(t, err)
	_, err = r.Add(Descriptor{ID: "local", Type: dialect.SQLite, Database: "other.db"})
	require.EqualError(t, err, "db_id local already exists.")
	_, err = r.Add(Descriptor{ID: "PROD", Type: dialect.SQLite, Database: "x.db"})
	require.EqualError(t, err, "db_id PROD already exists.")

	entries, err := r.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "PROD", entries[0].ID)
	assert.True(t, entries[0].Fixed)
	assert.Equal(t, "local", entries[1].ID)
	assert.False(t, entries[1].Fixed)

	nodes, err := r.Nodes()
	require.NoError(t, err)
	assert.Equal(t, []dialect.Node{
		{Name: "PROD", Type: dialect.NodeConn, SubType: 2, Fix: 1},
		{Name: "local", Desc: "scratch", Type: dialect.NodeConn, SubType: 6},
	}, nodes)

	info, err := os.Stat(r.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, r.Delete("local"))
	require.NoError(t, r.Delete("local"))
	_, ok, err := r.Get("local")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadAcceptsStringPorts(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(r.Path()), 0o700))
	require.NoError(t, os.WriteFile(r.Path(), []byte(`{
    "m1": {"db_id": "m1", "name": "", "db_type": "1", "db_host": "10.0.0.1", "db_port": "3307"},
    "m2": {"db_type": "1", "db_host": "10.0.0.2", "db_port": 3308}
}`), 0o600))

	d, ok, err := r.Get("m1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Port(3307), d.Port)

	d, ok, err = r.Get("m2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "m2", d.ID)
	assert.Equal(t, Port(3308), d.Port)
}

func TestHasCredentials(t *testing.T) {
	r := newTestRegistry(t)
	creds := keychain.NewMemoryManager()
	a := NewAccess(r, creds, t.TempDir(), KerberosPaths{})

	for _, d := range []Descriptor{
		{ID: "lite", Type: dialect.SQLite, Database: "x.db"},
		{ID: "krb", Type: dialect.HiveKerberos, Host: "hs2", Principal: "svc@EXAMPLE.COM"},
		{ID: "full", Type: dialect.MySQL, Host: "m", User: "u", Password: "p"},
		{ID: "partial", Type: dialect.PostgreSQL, Host: "pg", Database: "app", User: "bob"},
	} {
		_, err := r.Add(d)
		require.NoError(t, err)
	}

	for _, id := range []string{"lite", "krb", "full"} {
		ok, _, err := a.HasCredentials(id)
		require.NoError(t, err)
		assert.True(t, ok, id)
	}

	ok, user, err := a.HasCredentials("partial")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "bob", user)

	_, err = a.Resolve("partial", "")
	var need *NeedCredentialsError
	require.True(t, stderrors.As(err, &need))
	assert.Equal(t, "bob", need.User)
	assert.True(t, errors.Is(err, errors.NeedCredentials))

	require.NoError(t, creds.SaveCredentials("partial", keychain.Credentials{User: "bob", Password: "pw"}))
	ok, _, err = a.HasCredentials("partial")
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = a.HasCredentials("missing")
	assert.True(t, errors.Is(err, errors.NoConnection))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	r := newTestRegistry(t)
	a := NewAccess(r, keychain.NewMemoryManager(), root, KerberosPaths{KeytabDir: "/etc/keytabs", ConfPath: "/tmp/krb5.conf"})

	for _, d := range []Descriptor{
		{ID: "lite", Type: dialect.SQLite, Database: "sub/x.db"},
		{ID: "mem", Type: dialect.SQLite, Database: ":memory:"},
		{ID: "my", Type: dialect.MySQL, Host: "m", User: "u", Password: "p", Database: "shop"},
		{ID: "pg", Type: dialect.PostgreSQL, Host: "pg", Port: 6432, User: "u", Password: "p", Database: "app"},
		{ID: "krb", Type: dialect.HiveKerberos, Host: "hs2", Principal: "svc@EXAMPLE.COM", DefRealm: "EXAMPLE.COM"},
	} {
		_, err := r.Add(d)
		require.NoError(t, err)
	}

	tg, err := a.Resolve("lite", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "x.db"), tg.Database)

	tg, err = a.Resolve("mem", "")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", tg.Database)

	tg, err = a.Resolve("my", "inventory")
	require.NoError(t, err)
	assert.Equal(t, "inventory", tg.Database)
	assert.Empty(t, tg.Schema)

	tg, err = a.Resolve("pg", "reporting")
	require.NoError(t, err)
	assert.Equal(t, "app", tg.Database)
	assert.Equal(t, "reporting", tg.Schema)
	assert.Equal(t, 6432, tg.Port)

	tg, err = a.Resolve("krb", "")
	require.NoError(t, err)
	require.NotNil(t, tg.Kerberos)
	assert.Equal(t, "/etc/keytabs/keytab_krb", tg.Kerberos.Keytab)
	assert.Equal(t, "svc@EXAMPLE.COM", tg.Kerberos.Principal)

	_, err = a.Resolve("nope", "")
	assert.True(t, errors.Is(err, errors.NoConnection))
}

func TestSetPassword(t *testing.T) {
	r := newTestRegistry(t)
	creds := keychain.NewMemoryManager()
	a := NewAccess(r, creds, t.TempDir(), KerberosPaths{})
	_, err := r.Add(Descriptor{ID: "pg", Type: dialect.PostgreSQL, Host: "pg", Database: "app"})
	require.NoError(t, err)

	reject := func(context.Context, dialect.Target) error { return stderrors.New("auth failed") }
	err = a.SetPassword(context.Background(), "pg", "bob", "wrong", reject)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user or passwd error")
	_, stored, err := creds.LoadCredentials("pg")
	require.NoError(t, err)
	assert.False(t, stored)

	var seen dialect.Target
	accept := func(_ context.Context, tg dialect.Target) error { seen = tg; return nil }
	require.NoError(t, a.SetPassword(context.Background(), "pg", "bob", "right", accept))
	assert.Equal(t, "bob", seen.User)
	assert.Equal(t, "right", seen.Password)

	require.NoError(t, a.ClearPassword(""))
	ok, _, err := a.HasCredentials("pg")
	require.NoError(t, err)
	assert.False(t, ok)
}
