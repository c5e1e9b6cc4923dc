// Package config loads and stores sqlexplorer configuration in the XDG config dir.
// Only non-secret settings are kept here; passwords go to the credential store.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"sqlexplorer/cli/internal/errors"
	"sqlexplorer/cli/internal/xdg"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "SQLEXPLORER_CONFIG"

// Credential store modes.
const (
	StoreMemory = "memory"
	StoreOS     = "os"
)

// Config holds non-sensitive settings.
type Config struct {
	LogLevel string `yaml:"log_level"`
	// DataRoot is where connection configs and relative SQLite files live.
	DataRoot    string            `yaml:"db_root"`
	Server      ServerConfig      `yaml:"server"`
	Query       QueryConfig       `yaml:"query"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Comments    CommentsConfig    `yaml:"comments"`
	Kerberos    KerberosConfig    `yaml:"kerberos"`
}

// ServerConfig holds transport settings for `sqlexplorer serve`.
type ServerConfig struct {
	Listen     string `yaml:"listen"`
	GRPCListen string `yaml:"grpc_listen"`
	BaseURL    string `yaml:"base_url"`
	// Token, when set, must accompany every request.
	Token string `yaml:"token"`
}

// QueryConfig bounds query execution.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// PollTimeout must stay below RequestTimeout so a poll answers before
	// the front-end gives up on the request.
	PollTimeout    time.Duration `yaml:"poll_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Workers        int           `yaml:"workers"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
	SweepSchedule  string        `yaml:"sweep_schedule"`
}

// CredentialsConfig selects where temporary passwords are kept.
type CredentialsConfig struct {
	Store string `yaml:"store"`
}

// CommentsConfig selects the comment store, e.g. "database::sqlite:///path/comments.db".
// Empty or "none" disables comments.
type CommentsConfig struct {
	Store string `yaml:"store"`
}

// KerberosConfig locates keytabs and the generated krb5.conf for Hive-Kerberos.
type KerberosConfig struct {
	KeytabDir string `yaml:"keytab_dir"`
	ConfPath  string `yaml:"conf_path"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel: "info",
		DataRoot: "~/work/.database/",
		Server: ServerConfig{
			Listen:  "127.0.0.1:8890",
			BaseURL: "/",
		},
		Query: QueryConfig{
			DefaultLimit:   200,
			MaxLimit:       10000,
			PollTimeout:    118 * time.Second,
			RequestTimeout: 120 * time.Second,
			Workers:        8,
			ResultTTL:      30 * time.Minute,
			SweepSchedule:  "@every 1m",
		},
		Credentials: CredentialsConfig{Store: StoreMemory},
		Comments:    CommentsConfig{Store: "database::sqlite:///~/work/.database/comments.db"},
		Kerberos: KerberosConfig{
			KeytabDir: "/opt/conda/etc",
			ConfPath:  "/opt/conda/etc/krb5.conf",
		},
	}
}

// Path returns the config file location: $SQLEXPLORER_CONFIG, else config.yaml in the XDG config dir.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration from path (Path() when empty); a missing file returns defaults.
func Load(path string) (Config, error) {
	c := Defaults()
	if path == "" {
		p, err := Path()
		if err != nil {
			return c, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(errors.InvalidConfig, "parse "+path, err)
	}
	return c, c.Validate()
}

// Save writes configuration with 0600 permissions.
func Save(path string, c Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	q := c.Query
	switch {
	case q.DefaultLimit <= 0:
		return errors.New(errors.InvalidConfig, "query.default_limit must be positive")
	case q.MaxLimit < q.DefaultLimit:
		return errors.New(errors.InvalidConfig, "query.max_limit must not be below query.default_limit")
	case q.PollTimeout <= 0:
		return errors.New(errors.InvalidConfig, "query.poll_timeout must be positive")
	case q.RequestTimeout > 0 && q.PollTimeout >= q.RequestTimeout:
		return errors.Newf(errors.InvalidConfig, "query.poll_timeout (%s) must be shorter than query.request_timeout (%s)", q.PollTimeout, q.RequestTimeout)
	case q.Workers <= 0:
		return errors.New(errors.InvalidConfig, "query.workers must be positive")
	}
	switch c.Credentials.Store {
	case StoreMemory, StoreOS:
	default:
		return errors.Newf(errors.InvalidConfig, "credentials.store must be %q or %q", StoreMemory, StoreOS)
	}
	return nil
}

// DataDir returns DataRoot with ~ expanded.
func (c Config) DataDir() (string, error) {
	return xdg.ExpandHome(c.DataRoot)
}
