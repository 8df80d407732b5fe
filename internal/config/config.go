package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains storefront configuration parameters.
type Config struct {
	LogLevel int     `env:"LOG_LEVEL" envDefault:"0"`
	HTTP     HTTP    `envPrefix:"HTTP_"`
	Backend  Backend `envPrefix:"BACKEND_"`
	Signals  Signals `envPrefix:"SIGNALS_"`
	Storage  Storage `envPrefix:"STORAGE_"`
}

// HTTP contains storefront HTTP server parameters.
type HTTP struct {
	Port string `env:"PORT" envDefault:"8080"`
}

// Backend contains persisted-backend connection parameters.
type Backend struct {
	URL     string `env:"URL" envDefault:"http://localhost:54321"`
	AnonKey string `env:"ANON_KEY" envDefault:""`
}

// Signals contains analytics endpoint parameters.
type Signals struct {
	URL          string        `env:"URL" envDefault:"https://signals.example.com/v1"`
	AuthKey      string        `env:"AUTH_KEY" envDefault:""`
	CartID       string        `env:"CART_ID" envDefault:"cart"`
	TrackTimeout time.Duration `env:"TRACK_TIMEOUT" envDefault:"5s"`
}

// Storage contains durable local storage parameters.
type Storage struct {
	Dir     string `env:"DIR" envDefault:"./data"`
	CartKey string `env:"CART_KEY" envDefault:"cart"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
