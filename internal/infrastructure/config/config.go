package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"github.com/shopspring/decimal"

	"github.com/99minutos/storefront/internal/core/domain"
)

// Storage drivers.
const (
	DriverFile  = "file"
	DriverRedis = "redis"
	DriverMongo = "mongo"
)

type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	HTTP    HTTPConfig
	API     APIConfig
	Storage StorageConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Pricing PricingConfig
	Cart    CartConfig
}

type HTTPConfig struct {
	Port            string        `env:"PORT,             default=8080"`
	SessionCookie   string        `env:"SESSION_COOKIE,   default=sf_session"`
	CookieSecure    bool          `env:"COOKIE_SECURE,    default=false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8000/api"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=30s"`
}

type StorageConfig struct {
	Driver     string `env:"STORAGE_DRIVER,     default=redis"`
	Dir        string `env:"STORAGE_DIR"`
	Passphrase string `env:"STORAGE_PASSPHRASE"`
	// SessionTTL is the idle lifetime of a BFF session in Redis or MongoDB.
	SessionTTL time.Duration `env:"SESSION_TTL, default=720h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type PricingConfig struct {
	FreeShippingThreshold string `env:"PRICING_FREE_SHIPPING_THRESHOLD, default=50.00"`
	FlatShipping          string `env:"PRICING_FLAT_SHIPPING,           default=5.00"`
	TaxRate               string `env:"PRICING_TAX_RATE,                default=0.10"`
}

type CartConfig struct {
	MaxRunning        int           `env:"CART_MAX_RUNNING,         default=256"`
	LookupConcurrency int           `env:"CART_LOOKUP_CONCURRENCY,  default=4"`
	BreakerFailures   uint32        `env:"CART_BREAKER_FAILURES,    default=5"`
	BreakerOpenFor    time.Duration `env:"CART_BREAKER_OPEN_TIMEOUT, default=30s"`
}

// Policy parses the pricing settings.
func (p PricingConfig) Policy() (domain.PricingPolicy, error) {
	threshold, err := decimal.NewFromString(p.FreeShippingThreshold)
	if err != nil {
		return domain.PricingPolicy{}, fmt.Errorf("free shipping threshold: %w", err)
	}
	flat, err := decimal.NewFromString(p.FlatShipping)
	if err != nil {
		return domain.PricingPolicy{}, fmt.Errorf("flat shipping: %w", err)
	}
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return domain.PricingPolicy{}, fmt.Errorf("tax rate: %w", err)
	}
	return domain.PricingPolicy{FreeShippingThreshold: threshold, FlatShipping: flat, TaxRate: rate}, nil
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	switch cfg.Storage.Driver {
	case DriverFile, DriverRedis, DriverMongo:
	default:
		return nil, fmt.Errorf("config: unknown storage driver %q", cfg.Storage.Driver)
	}
	if _, err := cfg.Pricing.Policy(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
