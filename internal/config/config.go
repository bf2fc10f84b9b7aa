// Package config loads server settings from defaults, an optional config
// file, DOORBOT_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/BrandonDHaskell/doorbot/internal/db"
)

const envPrefix = "DOORBOT"

type Config struct {
	HTTPAddr       string
	GRPCHealthAddr string // "" disables the gRPC health endpoint

	Env string // "dev" | "prod"

	// DB
	DBBackend db.Backend
	DBPath    string // e.g. "./data/doorbot.db"
	DBDSN     string // required for postgres

	// Logging
	LogLevel      string
	LogFile       string // "" logs to stdout only
	LogMaxSizeMB  int
	LogMaxBackups int

	// AdminTokenHash is a bcrypt hash; "" leaves admin routes open.
	AdminTokenHash string

	SeedDev bool
}

func (c Config) DB() db.Config {
	return db.Config{Backend: c.DBBackend, Path: c.DBPath, DSN: c.DBDSN}
}

// flag name -> config key
var flagKeys = map[string]string{
	"http-addr":  "http_addr",
	"env":        "env",
	"db-backend": "db.backend",
	"db-path":    "db.path",
	"log-level":  "log.level",
}

// NewFlagSet returns the server's command-line flags.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML, TOML or JSON config file")
	fs.String("http-addr", ":8080", "HTTP listen address")
	fs.String("env", "dev", "environment: dev or prod")
	fs.String("db-backend", "sqlite", "storage backend: sqlite or postgres")
	fs.String("db-path", "./data/doorbot.db", "SQLite database file")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("grpc_health_addr", "")
	v.SetDefault("env", "dev")
	v.SetDefault("db.backend", "sqlite")
	v.SetDefault("db.path", "./data/doorbot.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("log.level", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("admin.token_hash", "")
	v.SetDefault("seed_dev", true)
}

// Load resolves the configuration. fs may be nil; otherwise it must come
// from NewFlagSet and already be parsed.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config: bind --%s: %w", name, err)
				}
			}
		}
		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	env := strings.ToLower(strings.TrimSpace(v.GetString("env")))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	backend, err := db.ParseBackend(v.GetString("db.backend"))
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := Config{
		HTTPAddr:       v.GetString("http_addr"),
		GRPCHealthAddr: strings.TrimSpace(v.GetString("grpc_health_addr")),
		Env:            env,

		DBBackend: backend,
		DBPath:    v.GetString("db.path"),
		DBDSN:     v.GetString("db.dsn"),

		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString("log.level"))),
		LogFile:       v.GetString("log.file"),
		LogMaxSizeMB:  nonNegative(v.GetInt("log.max_size_mb"), 100),
		LogMaxBackups: nonNegative(v.GetInt("log.max_backups"), 5),

		AdminTokenHash: strings.TrimSpace(v.GetString("admin.token_hash")),
		SeedDev:        v.GetBool("seed_dev"),
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if env == "dev" {
			cfg.LogLevel = "debug"
		}
	}
	if cfg.DBBackend == db.Postgres && cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("config: db.dsn is required for the postgres backend")
	}

	return cfg, nil
}

func nonNegative(n, def int) int {
	if n < 0 {
		return def
	}
	return n
}
