package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN       string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL       string `env:"RABBITMQ_URL,required=true"`
	RedisURL          string `env:"REDIS_URL,required=true"`
	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=100"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=16"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`

	// Comma-separated bearer tokens per role. Empty lists disable that role.
	AdminTokens    string `env:"ADMIN_TOKENS"`
	OperatorTokens string `env:"OPERATOR_TOKENS"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// AdminTokenList returns the configured admin tokens, trimmed and without
// empty entries.
func (c *Config) AdminTokenList() []string {
	return splitTokens(c.AdminTokens)
}

// OperatorTokenList returns the configured operator tokens.
func (c *Config) OperatorTokenList() []string {
	return splitTokens(c.OperatorTokens)
}

func splitTokens(raw string) []string {
	var tokens []string
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
