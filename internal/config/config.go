// Package config loads the service configuration from a YAML file.
// ${VAR} references are expanded from the environment before decoding.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/colsuggest/internal/database"
	"github.com/koustreak/colsuggest/internal/errs"
	"github.com/koustreak/colsuggest/internal/filestore"
	"github.com/koustreak/colsuggest/internal/logger"
	"github.com/koustreak/colsuggest/internal/pframe/sqlframe"
	"github.com/koustreak/colsuggest/internal/suggest"
)

// BackendKind selects the pframe driver.
type BackendKind string

const (
	BackendMemory   BackendKind = "memory"
	BackendPostgres BackendKind = "postgres"
	BackendMySQL    BackendKind = "mysql"
)

type Config struct {
	Log     logger.Config `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Suggest SuggestConfig `yaml:"suggest"`
	Backend BackendConfig `yaml:"backend"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SuggestConfig struct {
	// DefaultLimit applies to lenient requests that set no limit.
	DefaultLimit int `yaml:"default_limit"`
}

// BackendConfig describes where frames come from. The memory backend
// loads fixtures from files and, when Store is set, from object storage;
// the SQL backends read a catalog table.
type BackendConfig struct {
	Kind         BackendKind       `yaml:"kind"`
	DSN          string            `yaml:"dsn"`
	CatalogTable string            `yaml:"catalog_table"`
	MaxConns     int32             `yaml:"max_conns"`
	QueryTimeout time.Duration     `yaml:"query_timeout"`
	Fixtures     []string          `yaml:"fixtures"`
	Store        *filestore.Config `yaml:"store"`
}

// Default returns the configuration used for fields the file leaves out.
func Default() *Config {
	return &Config{
		Log: logger.Config{Level: "info", Format: "json", TimeFormat: "rfc3339"},
		Server: ServerConfig{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Suggest: SuggestConfig{DefaultLimit: suggest.DefaultSuggestLimit},
		Backend: BackendConfig{
			Kind:         BackendMemory,
			CatalogTable: sqlframe.DefaultCatalogTable,
			QueryTimeout: 30 * time.Second,
		},
	}
}

// Load reads and validates the file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file "+path, err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read config file "+path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server.addr is required")
	}
	if c.Suggest.DefaultLimit <= 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "suggest.default_limit must be positive, got %d", c.Suggest.DefaultLimit)
	}

	b := &c.Backend
	switch b.Kind {
	case BackendMemory:
	case BackendPostgres, BackendMySQL:
		if b.DSN == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "backend.dsn is required for %s", b.Kind)
		}
		if b.CatalogTable == "" {
			b.CatalogTable = sqlframe.DefaultCatalogTable
		}
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "unknown backend.kind %q", b.Kind)
	}
	if b.Store != nil {
		if err := b.Store.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Database returns the pool settings of a SQL backend.
func (b BackendConfig) Database() *database.Config {
	driver := database.DriverPostgres
	if b.Kind == BackendMySQL {
		driver = database.DriverMySQL
	}
	cfg := database.DefaultConfig(driver, b.DSN)
	if b.MaxConns > 0 {
		cfg.MaxConns = b.MaxConns
	}
	if b.QueryTimeout > 0 {
		cfg.QueryTimeout = b.QueryTimeout
	}
	return cfg
}
