package config

import (
	"fmt"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment with an
// optional .env file for local development.
type Config struct {
	Host           string `env:"HOST"`
	Port           int    `env:"PORT,default=5000"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
	SendBufferSize int    `env:"SEND_BUFFER_SIZE,default=256"`
}

// Load reads the configuration. A missing .env file is not an error; the
// environment alone is enough.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
