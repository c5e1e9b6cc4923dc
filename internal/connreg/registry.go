// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package connreg stores connection descriptors.
//
// Connections come from two places: DB_<ID> environment variables holding
// base64-encoded JSON (fixed, read-only) and the db_conf.json file under the
// data root, which the user edits through Add and Delete.
package connreg

import (
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"sqlexplorer/cli/internal/dialect"
	"sqlexplorer/cli/internal/errors"
)

// ConfigFile is the registry file name under the data root.
const ConfigFile = "db_conf.json"

const envPrefix = "DB_"

var dbNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Port is a TCP port that accepts both JSON numbers and numeric strings.
type Port int

func (p *Port) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid port %s", b)
	}
	*p = Port(n)
	return nil
}

// Descriptor is a stored connection.
type Descriptor struct {
	ID       string       `json:"db_id"`
	Name     string       `json:"name"`
	Type     dialect.Kind `json:"db_type"`
	Host     string       `json:"db_host,omitempty"`
	Port     Port         `json:"db_port,omitempty"`
	User     string       `json:"db_user,omitempty"`
	Password string       `json:"db_pass,omitempty"`
	Database string       `json:"db_name,omitempty"`
	// Hive-Kerberos only.
	Principal string                       `json:"principal,omitempty"`
	DefRealm  string                       `json:"def_realm,omitempty"`
	Krb5Conf  map[string]map[string]string `json:"krb5conf,omitempty"`
}

// Redacted returns a copy without the password.
func (d Descriptor) Redacted() Descriptor {
	d.Password = ""
	return d
}

// Entry is a listed connection.
type Entry struct {
	Descriptor
	// Fixed entries come from the environment and cannot be changed.
	Fixed bool
}

// Registry reads and writes connection descriptors.
type Registry struct {
	mu      sync.Mutex
	path    string
	environ func() []string
	logger  *slog.Logger
}

// New returns a registry whose file lives in dataRoot.
func New(dataRoot string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		path:    filepath.Join(dataRoot, ConfigFile),
		environ: os.Environ,
		logger:  logger,
	}
}

// Path returns the registry file location.
func (r *Registry) Path() string { return r.path }

// List returns environment entries first, then file entries, each sorted by id.
func (r *Registry) List() ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	fixed := r.envEntries()
	for _, id := range sortedKeys(fixed) {
		out = append(out, Entry{Descriptor: fixed[id], Fixed: true})
	}

	stored, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, id := range sortedKeys(stored) {
		out = append(out, Entry{Descriptor: stored[id]})
	}
	return out, nil
}

// Get returns the descriptor of id. The boolean is false when it does not exist.
func (r *Registry) Get(id string) (Descriptor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.envEntries()[id]; ok {
		return d, true, nil
	}
	stored, err := r.load()
	if err != nil {
		return Descriptor{}, false, err
	}
	d, ok := stored[id]
	return d, ok, nil
}

// Add validates d and appends it to the registry file.
func (r *Registry) Add(d Descriptor) (Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.load()
	if err != nil {
		return d, err
	}
	_, fixed := r.envEntries()[d.ID]
	_, exists := stored[d.ID]
	if msg := validate(d, fixed || exists); msg != "" {
		return d, errors.New(errors.InvalidConnection, msg)
	}

	stored[d.ID] = d
	if err := r.save(stored); err != nil {
		return d, err
	}
	return d, nil
}

// Delete removes id from the registry file. Unknown ids are ignored.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := stored[id]; !ok {
		return nil
	}
	delete(stored, id)
	return r.save(stored)
}

// Nodes lists connections as browser nodes.
func (r *Registry) Nodes() ([]dialect.Node, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}
	nodes := make([]dialect.Node, 0, len(entries))
	for _, e := range entries {
		n := dialect.Node{Name: e.ID, Desc: e.Name, Type: dialect.NodeConn, SubType: e.Type.Subtype()}
		if e.Fixed {
			n.Desc = ""
			n.Fix = 1
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// validate checks a new descriptor. Like the checks it mirrors, the last
// failing rule decides the message.
func validate(d Descriptor, exists bool) string {
	if d.Type == "" {
		return "must set db type."
	}
	if !d.Type.Valid() {
		return fmt.Sprintf("unknown db type %q.", string(d.Type))
	}
	if strings.TrimSpace(d.ID) == "" {
		return "must set db id."
	}

	msg := ""
	if d.Type != dialect.SQLite && d.Host == "" {
		msg = "must set ip addr."
	}
	if d.Type == dialect.PostgreSQL && d.Database == "" {
		msg = "postgres must set database name to connect"
	}
	if d.Type == dialect.SQLite {
		if d.Database == "" {
			msg = "sqlite must set db name ( it's a database file )"
		}
	} else if d.Database != "" && !dbNamePattern.MatchString(d.Database) {
		msg = "db name can only contain letters, numbers, and underscores."
	}
	if exists {
		msg = fmt.Sprintf("db_id %s already exists.", d.ID)
	}
	return msg
}

func (r *Registry) load() (map[string]Descriptor, error) {
	stored := map[string]Descriptor{}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return stored, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return stored, nil
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	for id, d := range stored {
		if d.ID == "" {
			d.ID = id
			stored[id] = d
		}
	}
	return stored, nil
}

func (r *Registry) save(stored map[string]Descriptor) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(stored, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o600)
}

// envEntries decodes DB_<ID> variables. Undecodable values are skipped.
func (r *Registry) envEntries() map[string]Descriptor {
	out := map[string]Descriptor{}
	for _, kv := range r.environ() {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) || len(key) == len(envPrefix) {
			continue
		}
		id := key[len(envPrefix):]
		raw, err := base64.StdEncoding.DecodeString(val)
		if err != nil {
			r.logger.Warn("skipping connection variable", "var", key, "error", err)
			continue
		}
		var d Descriptor
		if err := json.Unmarshal(raw, &d); err != nil {
			r.logger.Warn("skipping connection variable", "var", key, "error", err)
			continue
		}
		d.ID = id
		out[id] = d
	}
	return out
}

func sortedKeys(m map[string]Descriptor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
