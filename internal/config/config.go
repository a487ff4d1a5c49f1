// Package config loads host configuration from LEDGER_* environment
// variables. Command-line flags override these values in the CLI.
package config

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/fundledger/internal/ident"
	"github.com/roach88/fundledger/internal/treasury"
)

// Default program identities, used when none are configured. Both are
// hashes of fixed labels, so no key exists for either.
var (
	DefaultProcessorID    = labelIdentity("fundledger/processor/v1")
	DefaultTokenServiceID = labelIdentity("fundledger/token/v1")
)

func labelIdentity(label string) ident.Identity {
	return ident.Identity(sha256.Sum256([]byte(label)))
}

// Config holds all configuration for the host.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Program  ProgramConfig
	Treasury TreasuryConfig
}

// DatabaseConfig holds storage configuration.
type DatabaseConfig struct {
	Path string `env:"LEDGER_DB" envDefault:"fundledger.db"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"LEDGER_SERVER_HOST" envDefault:"127.0.0.1"`
	Port            int           `env:"LEDGER_SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"LEDGER_SERVER_READ_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"LEDGER_SERVER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// ProgramConfig names the two program identities. Empty means the default.
type ProgramConfig struct {
	ProcessorID    string `env:"LEDGER_PROCESSOR_ID"`
	TokenServiceID string `env:"LEDGER_TOKEN_SERVICE_ID"`
}

// TreasuryConfig points at the CUE allow-list. Empty means the built-in
// default list.
type TreasuryConfig struct {
	File string `env:"LEDGER_TREASURY_FILE"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Program); err != nil {
		return nil, fmt.Errorf("parsing program config: %w", err)
	}
	if err := env.Parse(&cfg.Treasury); err != nil {
		return nil, fmt.Errorf("parsing treasury config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Processor returns the configured processor identity.
func (c *ProgramConfig) Processor() (ident.Identity, error) {
	if c.ProcessorID == "" {
		return DefaultProcessorID, nil
	}
	id, err := ident.Parse(c.ProcessorID)
	if err != nil {
		return ident.Zero, fmt.Errorf("LEDGER_PROCESSOR_ID: %w", err)
	}
	return id, nil
}

// TokenService returns the configured value-transfer service identity.
func (c *ProgramConfig) TokenService() (ident.Identity, error) {
	if c.TokenServiceID == "" {
		return DefaultTokenServiceID, nil
	}
	id, err := ident.Parse(c.TokenServiceID)
	if err != nil {
		return ident.Zero, fmt.Errorf("LEDGER_TOKEN_SERVICE_ID: %w", err)
	}
	return id, nil
}

// AllowList loads the treasury allow-list.
func (c *TreasuryConfig) AllowList() (*treasury.AllowList, error) {
	if c.File == "" {
		return treasury.Default(), nil
	}
	return treasury.Load(c.File)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("LEDGER_DB is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("LEDGER_SERVER_PORT %d out of range", c.Server.Port)
	}

	proc, err := c.Program.Processor()
	if err != nil {
		return err
	}
	svc, err := c.Program.TokenService()
	if err != nil {
		return err
	}
	if proc == svc {
		return fmt.Errorf("processor and token service must have different identities")
	}

	return nil
}
