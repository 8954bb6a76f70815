package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	Webhook     Webhook    `envPrefix:"WEBHOOK_"`
	Kafka       Kafka      `envPrefix:"KAFKA_"`
	Inventory   Inventory  `envPrefix:"INVENTORY_"`
	Analytics   Analytics  `envPrefix:"ANALYTICS_"`
	Pagination  Pagination `envPrefix:"PAGINATION_"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"mysql"` // mysql | sqlite
	URL    string `env:"DATABASE_URL,required,notEmpty"`
}

// Webhook limits are per client IP. Timezone is the zone of the bank's
// transaction times, which arrive without an offset.
type Webhook struct {
	RateLimit float64 `env:"RATE_LIMIT" envDefault:"20"`
	RateBurst int     `env:"RATE_BURST" envDefault:"40"`
	Timezone  string  `env:"TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
}

// Kafka publishing is disabled when Brokers is empty.
type Kafka struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	OrderTopic string   `env:"ORDER_TOPIC" envDefault:"order-events"`
}

type Inventory struct {
	DecrementOnOrder  bool `env:"DECREMENT_ON_ORDER" envDefault:"false"`
	RestockOnApproval bool `env:"RESTOCK_ON_APPROVAL" envDefault:"false"`
}

type Analytics struct {
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`
}

type Pagination struct {
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit     int `env:"MAX_LIMIT" envDefault:"100"`
}

// Load parses the process environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("config: unsupported LOG_FORMAT %q", c.Log.Format)
	}
	if _, err := c.Analytics.Location(); err != nil {
		return err
	}
	if _, err := c.Webhook.Location(); err != nil {
		return err
	}
	if c.Pagination.DefaultLimit <= 0 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		return fmt.Errorf("config: invalid pagination limits default=%d max=%d", c.Pagination.DefaultLimit, c.Pagination.MaxLimit)
	}
	if c.Webhook.RateLimit <= 0 || c.Webhook.RateBurst <= 0 {
		return fmt.Errorf("config: webhook rate limit and burst must be positive")
	}
	return nil
}

func (c *Config) Address() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

// Location resolves the calendar used for daily sales buckets.
func (a Analytics) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid ANALYTICS_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

func (w Webhook) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid WEBHOOK_TIMEZONE %q: %w", w.Timezone, err)
	}
	return loc, nil
}
