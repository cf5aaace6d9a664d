package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// CLIConfig holds the shopctl defaults that flags override.
type CLIConfig struct {
	Profile    string        `env:"SHOPCTL_PROFILE,    default=default"`
	Dir        string        `env:"SHOPCTL_DIR"`
	APIURL     string        `env:"SHOPCTL_API,        default=http://localhost:8000/api"`
	Passphrase string        `env:"SHOPCTL_PASSPHRASE"`
	Timeout    time.Duration `env:"SHOPCTL_TIMEOUT,    default=30s"`
}

// LoadCLI reads the shopctl defaults from the environment.
func LoadCLI(ctx context.Context) (*CLIConfig, error) {
	return loadCLI(ctx, envconfig.OsLookuper())
}

func loadCLI(ctx context.Context, l envconfig.Lookuper) (*CLIConfig, error) {
	var cfg CLIConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load shopctl configuration: %w", err)
	}
	return &cfg, nil
}
