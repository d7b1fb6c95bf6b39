// Package config loads config.yaml from the config directory with
// environment overrides and resolves the database to open.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"

	"github.com/julianstephens/sqirvy-health/internal/constants"
	"github.com/julianstephens/sqirvy-health/internal/database"
	"github.com/julianstephens/sqirvy-health/internal/keyring"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	KeyBackend    = "backend"
	KeyDatabase   = "database"
	KeyDebug      = "debug"
	KeyBackupKeep = "backup.keep"
	keyConnection = "connection"
)

const defaultConfigYAML = `# sqirvy-health configuration

# Storage backend: sqlite or postgres
backend: sqlite

# SQLite database path, or a PostgreSQL connection string without a password.
# Empty uses sqirvy-health.db in this directory for sqlite, and
# SQIRVY_DB_CONNECTION or the OS keyring for postgres.
database: ""

debug: false

backup:
  # Number of SQLite backups to keep
  keep: 14
`

// keyringLookup is swapped out in tests
var keyringLookup = keyring.GetConnectionString

// Config is the resolved configuration
type Config struct {
	Dir        string
	Backend    string
	Database   string
	Debug      bool
	BackupKeep int

	connection string
}

// Load reads config.yaml from dir, creating the directory and a default file
// on first run. A missing config.yaml is not an error.
func Load(dir string) (*Config, error) {
	dir = kong.ExpandPath(dir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return nil, fmt.Errorf("failed to write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(KeyBackend, constants.BackendSQLite)
	v.SetDefault(KeyDatabase, "")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyBackupKeep, constants.MaxBackups)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keyConnection, constants.ConnectionEnvVar); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Dir:        dir,
		Backend:    strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
		Database:   strings.TrimSpace(v.GetString(KeyDatabase)),
		Debug:      v.GetBool(KeyDebug),
		BackupKeep: v.GetInt(KeyBackupKeep),
		connection: strings.TrimSpace(v.GetString(keyConnection)),
	}
	if cfg.BackupKeep <= 0 {
		cfg.BackupKeep = constants.MaxBackups
	}
	return cfg, nil
}

func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0600)
}

// Path returns the config file location
func (c *Config) Path() string {
	return filepath.Join(c.Dir, configFileExt)
}

// DatabaseOptions picks the driver and DSN. A database value that looks like a
// PostgreSQL connection string selects postgres regardless of backend.
func (c *Config) DatabaseOptions() (database.Options, error) {
	driver, ok := database.ParseDriver(c.Backend)
	if !ok {
		return database.Options{}, fmt.Errorf("unknown backend %q, use %s or %s", c.Backend, constants.BackendSQLite, constants.BackendPostgres)
	}
	if database.IsPostgresConnString(c.Database) {
		driver = database.Postgres
	}

	switch driver {
	case database.Postgres:
		connStr, err := c.connectionString()
		if err != nil {
			return database.Options{}, err
		}
		return database.Options{Driver: database.Postgres, DSN: connStr}, nil
	default:
		path := c.Database
		if path == "" {
			path = filepath.Join(c.Dir, constants.DatabaseFileName)
		}
		return database.Options{Driver: database.SQLite, DSN: kong.ExpandPath(path)}, nil
	}
}

func (c *Config) connectionString() (string, error) {
	if c.Database != "" {
		return c.Database, nil
	}
	if c.connection != "" {
		return c.connection, nil
	}
	connStr, err := keyringLookup()
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("no PostgreSQL connection string configured: set %s in %s, export %s, or run '%s keyring set'",
			KeyDatabase, configFileExt, constants.ConnectionEnvVar, constants.BinaryName)
	}
	if err != nil {
		return "", err
	}
	return connStr, nil
}
