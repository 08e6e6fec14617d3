package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Cart      CartConfig
	Catalog   CatalogConfig
	Inventory InventoryConfig
	Sales     SalesConfig
	JWT       JWTConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPLANE_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig tunes cart lifecycle and pricing behavior.
type CartConfig struct {
	TTL             time.Duration `envconfig:"SHOPLANE_CART_TTL" default:"72h"`
	TaxRateRaw      string        `envconfig:"SHOPLANE_CART_TAX_RATE" default:"0.15"`
	DriftTolRaw     string        `envconfig:"SHOPLANE_CART_PRICE_DRIFT_TOLERANCE" default:"0.01"`
	DefaultCurrency string        `envconfig:"SHOPLANE_CART_DEFAULT_CURRENCY" default:"USD"`

	taxRate  decimal.Decimal
	driftTol decimal.Decimal
}

func (c *CartConfig) validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("cart ttl must be positive, got %s", c.TTL)
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRateRaw))
	if err != nil {
		return fmt.Errorf("parsing cart tax rate %q: %w", c.TaxRateRaw, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("cart tax rate must be non-negative, got %s", rate)
	}
	tol, err := decimal.NewFromString(strings.TrimSpace(c.DriftTolRaw))
	if err != nil {
		return fmt.Errorf("parsing price drift tolerance %q: %w", c.DriftTolRaw, err)
	}
	if tol.IsNegative() {
		return fmt.Errorf("price drift tolerance must be non-negative, got %s", tol)
	}
	c.taxRate = rate
	c.driftTol = tol
	return nil
}

// NewCartConfig builds a CartConfig directly, bypassing environment loading.
// Callers own the validity of the values they pass.
func NewCartConfig(ttl time.Duration, taxRate, driftTol decimal.Decimal, defaultCurrency string) CartConfig {
	return CartConfig{
		TTL:             ttl,
		TaxRateRaw:      taxRate.String(),
		DriftTolRaw:     driftTol.String(),
		DefaultCurrency: defaultCurrency,
		taxRate:         taxRate,
		driftTol:        driftTol,
	}
}

// TaxRate returns the parsed flat tax rate.
func (c CartConfig) TaxRate() decimal.Decimal {
	return c.taxRate
}

// PriceDriftTolerance returns the parsed drift tolerance used by validation.
func (c CartConfig) PriceDriftTolerance() decimal.Decimal {
	return c.driftTol
}

type CatalogConfig struct {
	BaseURL string        `envconfig:"SHOPLANE_CATALOG_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"SHOPLANE_CATALOG_TIMEOUT" default:"3s"`
}

type InventoryConfig struct {
	BaseURL string        `envconfig:"SHOPLANE_INVENTORY_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"SHOPLANE_INVENTORY_TIMEOUT" default:"3s"`
}

type SalesConfig struct {
	BaseURL string        `envconfig:"SHOPLANE_SALES_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"SHOPLANE_SALES_TIMEOUT" default:"10s"`
}

type JWTConfig struct {
	Secret string `envconfig:"SHOPLANE_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"SHOPLANE_JWT_ISSUER" required:"true"`
}
