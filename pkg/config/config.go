package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Checkout CheckoutConfig
	Storage  StorageConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPLINE_APP_ENV" default:"dev"`
	Port         string `envconfig:"SHOPLINE_APP_PORT" default:"8000"`
	LogLevel     string `envconfig:"SHOPLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the engine at the storefront API.
type APIConfig struct {
	BaseURL string        `envconfig:"SHOPLINE_API_BASE_URL" default:"http://localhost:8000"`
	Timeout time.Duration `envconfig:"SHOPLINE_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvAPIBaseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	return nil
}

// CheckoutConfig carries the tunables of the checkout flow. The money
// figures must match the server's accounting; the defaults are the
// production values.
type CheckoutConfig struct {
	TaxRate               float64       `envconfig:"SHOPLINE_CHECKOUT_TAX_RATE" default:"0.08"`
	FreeShippingThreshold float64       `envconfig:"SHOPLINE_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50"`
	FlatShippingCost      float64       `envconfig:"SHOPLINE_CHECKOUT_FLAT_SHIPPING_COST" default:"5.99"`
	OTPResendCooldown     time.Duration `envconfig:"SHOPLINE_CHECKOUT_OTP_RESEND_COOLDOWN" default:"60s"`
	SuccessRedirectDelay  time.Duration `envconfig:"SHOPLINE_CHECKOUT_SUCCESS_REDIRECT_DELAY" default:"10s"`
	NotesMaxLen           int           `envconfig:"SHOPLINE_CHECKOUT_NOTES_MAX_LEN" default:"500"`
}

// StorageConfig locates the local credential store.
type StorageConfig struct {
	Path string `envconfig:"SHOPLINE_STORAGE_PATH" default:"shopline.db"`
}
