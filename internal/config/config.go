// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

// Package config loads and validates runtime configuration. Sources are
// layered: built-in defaults, then an optional YAML file, then command-line
// flags. Secrets are only ever read from the environment so they stay out
// of config files and process listings.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment variables holding secrets. These always win over file and
// flag values.
const (
	EnvDatabaseURL  = "SHOPWARDEN_DATABASE_URL"
	EnvTokenSecrets = "SHOPWARDEN_TOKEN_SECRETS" //nolint:gosec // env var name, not a credential
	EnvSMTPPassword = "SHOPWARDEN_SMTP_PASSWORD" //nolint:gosec // env var name, not a credential
)

// Config is the root configuration for the shopwarden daemon and CLI.
type Config struct {
	Database      Database      `koanf:"database" json:"database"`
	Token         Token         `koanf:"token" json:"token"`
	Reset         Reset         `koanf:"reset" json:"reset"`
	Retention     Retention     `koanf:"retention" json:"retention"`
	SMTP          SMTP          `koanf:"smtp" json:"smtp"`
	Observability Observability `koanf:"observability" json:"observability"`
	Log           Log           `koanf:"log" json:"log"`
	Cookie        Cookie        `koanf:"cookie" json:"cookie"`
}

// Database holds connection settings.
type Database struct {
	// URL is the PostgreSQL connection string. Usually injected via
	// SHOPWARDEN_DATABASE_URL rather than the config file.
	URL string `koanf:"url" json:"url"`
}

// Token holds session token settings.
type Token struct {
	// Secrets are HMAC signing keys, newest first. The first entry signs
	// new tokens; every entry verifies, so keys rotate without a logout
	// storm. Injected via SHOPWARDEN_TOKEN_SECRETS as a comma-separated
	// list.
	Secrets []string `koanf:"secrets" json:"-"`
	// TTL bounds session token lifetime.
	TTL time.Duration `koanf:"ttl" json:"ttl"`
}

// Reset holds password-reset settings.
type Reset struct {
	// Window bounds how long a reset token stays redeemable.
	Window time.Duration `koanf:"window" json:"window"`
}

// Retention holds account retention settings.
type Retention struct {
	// InactivityWindow is how long an account may stay idle before the
	// sweep removes it.
	InactivityWindow time.Duration `koanf:"inactivity_window" json:"inactivity_window"`
	// SweepInterval is how often the sweep daemon runs.
	SweepInterval time.Duration `koanf:"sweep_interval" json:"sweep_interval"`
}

// SMTP holds outbound mail settings.
type SMTP struct {
	Host string `koanf:"host" json:"host"`
	Port int    `koanf:"port" json:"port"`
	From string `koanf:"from" json:"from"`
	User string `koanf:"user" json:"user"`
	// Password is injected via SHOPWARDEN_SMTP_PASSWORD.
	Password string `koanf:"password" json:"-"`
	// ResetURL is the base URL embedded in reset mails; the token is
	// appended as a query parameter.
	ResetURL string `koanf:"reset_url" json:"reset_url"`
}

// Observability holds the metrics/health listener settings.
type Observability struct {
	Addr string `koanf:"addr" json:"addr"`
}

// Log holds logging settings.
type Log struct {
	// Format is "text" or "json".
	Format string `koanf:"format" json:"format"`
	// Level is "debug", "info", "warn" or "error".
	Level string `koanf:"level" json:"level"`
}

// Cookie holds session-cookie settings.
type Cookie struct {
	// Secure marks the session cookie Secure; set in TLS-terminated
	// deployments.
	Secure bool `koanf:"secure" json:"secure"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database.url":                "",
		"token.ttl":                   time.Hour,
		"reset.window":                time.Hour,
		"retention.inactivity_window": 720 * time.Hour,
		"retention.sweep_interval":    time.Hour,
		"smtp.host":                   "localhost",
		"smtp.port":                   587,
		"smtp.from":                   "no-reply@shopwarden.local",
		"smtp.user":                   "",
		"smtp.reset_url":              "http://localhost:3000/reset-password",
		"observability.addr":          ":9090",
		"log.format":                  "text",
		"log.level":                   "info",
		"cookie.secure":               false,
	}
}

// Load builds a Config from defaults, an optional YAML file, flags, and
// secret environment variables, in that precedence order.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	applySecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applySecrets overlays secret material from the environment.
func applySecrets(cfg *Config) {
	if url := os.Getenv(EnvDatabaseURL); url != "" {
		cfg.Database.URL = url
	}
	if secrets := os.Getenv(EnvTokenSecrets); secrets != "" {
		parts := strings.Split(secrets, ",")
		cfg.Token.Secrets = cfg.Token.Secrets[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Token.Secrets = append(cfg.Token.Secrets, p)
			}
		}
	}
	if password := os.Getenv(EnvSMTPPassword); password != "" {
		cfg.SMTP.Password = password
	}
}

// Validate checks invariants that cannot be expressed in the schema.
func (c *Config) Validate() error {
	if len(c.Token.Secrets) == 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "token.secrets").
			Errorf("at least one token signing secret is required (set %s)", EnvTokenSecrets)
	}
	if c.Token.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "token.ttl").
			Errorf("token TTL must be positive")
	}
	if c.Reset.Window <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "reset.window").
			Errorf("reset window must be positive")
	}
	if c.Retention.InactivityWindow <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "retention.inactivity_window").
			Errorf("inactivity window must be positive")
	}
	if c.Retention.SweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").
			With("field", "retention.sweep_interval").
			Errorf("sweep interval must be positive")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return oops.Code("CONFIG_INVALID").
			With("field", "log.format").
			Errorf("log format must be %q or %q, got %q", "text", "json", c.Log.Format)
	}
	return nil
}

// TokenSecrets returns the signing secrets as byte slices, newest first.
func (c *Config) TokenSecrets() [][]byte {
	secrets := make([][]byte, 0, len(c.Token.Secrets))
	for _, s := range c.Token.Secrets {
		secrets = append(secrets, []byte(s))
	}
	return secrets
}
