package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTPServer HTTPServer
	Storage    Storage
	Source     Source
	Sync       Sync
	Log        Log
}

type HTTPServer struct {
	Port        string        `env:"PORT" env-default:"3030"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Addr returns the listen address of the server
func (h HTTPServer) Addr() string {
	return ":" + h.Port
}

type Storage struct {
	Location    string        `env:"DB_LOCATION" env-default:"db"`
	Workers     int           `env:"STORE_WORKERS" env-default:"16"`
	OpenTimeout time.Duration `env:"STORE_OPEN_TIMEOUT" env-default:"5s"`
}

type Source struct {
	BaseURL        string        `env:"ECB_BASE_URL" env-default:"https://www.ecb.europa.eu"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"30s"`
	RetryNum       uint64        `env:"RETRY_NUM" env-default:"3"`
	RetryDuration  time.Duration `env:"RETRY_DURATION" env-default:"5s"`
}

type Sync struct {
	Interval    time.Duration `env:"UPDATE_INTERVAL" env-default:"6m"`
	TickTimeout time.Duration `env:"TICK_TIMEOUT" env-default:"5m"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the environment. Variables from envFile are applied first without overriding the ones
// already set, a missing envFile is not an error
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("godotenv load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("cleanenv read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns every problem in the config at once
func (c *Config) Validate() error {
	var result *multierror.Error

	invalid := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if port, err := strconv.Atoi(c.HTTPServer.Port); err != nil || port < 1 || port > 65535 {
		invalid("PORT %q is not a tcp port", c.HTTPServer.Port)
	}

	if c.Storage.Location == "" {
		invalid("DB_LOCATION is empty")
	}

	if c.Storage.Workers < 1 {
		invalid("STORE_WORKERS must be positive, got %d", c.Storage.Workers)
	}

	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		invalid("ECB_BASE_URL %q is not an absolute url", c.Source.BaseURL)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{name: "HTTP_TIMEOUT", value: c.HTTPServer.Timeout},
		{name: "HTTP_IDLE_TIMEOUT", value: c.HTTPServer.IdleTimeout},
		{name: "STORE_OPEN_TIMEOUT", value: c.Storage.OpenTimeout},
		{name: "REQUEST_TIMEOUT", value: c.Source.RequestTimeout},
		{name: "RETRY_DURATION", value: c.Source.RetryDuration},
		{name: "UPDATE_INTERVAL", value: c.Sync.Interval},
		{name: "TICK_TIMEOUT", value: c.Sync.TickTimeout},
	}

	for _, d := range durations {
		if d.value <= 0 {
			invalid("%s must be positive, got %s", d.name, d.value)
		}
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		invalid("LOG_FORMAT %q is neither text nor json", c.Log.Format)
	}

	return result.ErrorOrNil()
}
