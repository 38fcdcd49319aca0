package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, loaded from WARDEN_* environment
// variables.
type Config struct {
	Addr  string `envconfig:"ADDR" default:":8080"`
	PGDSN string `envconfig:"PG_DSN" required:"true"`

	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	RateBurst     int   `envconfig:"RATE_BURST" default:"40"`
	RatePerSecond int   `envconfig:"RATE_PER_SECOND" default:"20"`
	MaxBodyBytes  int64 `envconfig:"MAX_BODY_BYTES" default:"1048576"`

	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("warden", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
