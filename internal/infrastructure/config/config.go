package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"

	// DevJWTSecret is the built-in signing key. It is accepted only in
	// development environments.
	DevJWTSecret = "secret"
)

var devEnvs = map[string]bool{"dev": true, "local": true, "test": true}

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Env         string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogFile     string `mapstructure:"LOG_FILE"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	MongoURI     string `mapstructure:"MONGO_URI"`
	MongoDBName  string `mapstructure:"MONGO_DB_NAME"`

	// RedisURL takes precedence over RedisAddr when both are set.
	RedisURL      string `mapstructure:"REDIS_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	ReserveConcurrency int           `mapstructure:"RESERVE_CONCURRENCY"`
	DemoMode           bool          `mapstructure:"DEMO_MODE"`
	DemoInterval       time.Duration `mapstructure:"DEMO_INTERVAL"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Monetary settings are parsed separately so a malformed value falls back
	// to its default instead of failing startup.
	TaxRate               decimal.Decimal `mapstructure:"-"`
	ShippingFee           decimal.Decimal `mapstructure:"-"`
	FreeShippingThreshold decimal.Decimal `mapstructure:"-"`
}

var (
	DefaultTaxRate               = decimal.RequireFromString("0.18")
	DefaultShippingFee           = decimal.NewFromInt(49)
	DefaultFreeShippingThreshold = decimal.NewFromInt(750)
)

// Load reads .env files (missing files are fine) and then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !isNotExist(err) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	cfg.TaxRate = money(v.GetString("TAX_RATE"), DefaultTaxRate)
	cfg.ShippingFee = money(v.GetString("SHIPPING_FEE"), DefaultShippingFee)
	cfg.FreeShippingThreshold = money(v.GetString("FREE_SHIPPING_THRESHOLD"), DefaultFreeShippingThreshold)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "minishop-storefront")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORE_BACKEND", BackendMemory)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("RESERVE_CONCURRENCY", 8)
	v.SetDefault("DEMO_MODE", false)
	v.SetDefault("DEMO_INTERVAL", 15*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("TAX_RATE", "")
	v.SetDefault("SHIPPING_FEE", "")
	v.SetDefault("FREE_SHIPPING_THRESHOLD", "")
}

func (c Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendMongo:
	default:
		return fmt.Errorf("config: STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendMongo, c.StoreBackend)
	}
	if c.ReserveConcurrency <= 0 {
		return errors.New("config: RESERVE_CONCURRENCY must be positive")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET must not be empty")
	}
	if c.JWTSecret == DevJWTSecret && !devEnvs[strings.ToLower(c.Env)] {
		return fmt.Errorf("config: JWT_SECRET must be set when ENV is %q", c.Env)
	}
	if c.DemoMode && c.DemoInterval <= 0 {
		return errors.New("config: DEMO_INTERVAL must be positive when DEMO_MODE is on")
	}
	return nil
}

// money parses a non-negative finite amount, falling back to def otherwise.
func money(raw string, def decimal.Decimal) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NewFromFloat(f)
	}
	return d
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
