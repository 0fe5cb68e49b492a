package observability

import (
	"strings"

	"github.com/smallbiznis/eshop/internal/config"
)

// Config is the resolved observability setting shared by logging, tracing and metrics.
type Config struct {
	config.ObservabilityConfig

	ServiceName string
	Environment string
	Version     string
}

func NewConfig(app config.Config) Config {
	name := strings.TrimSpace(app.AppName)
	if name == "" {
		name = "eshop"
	}
	return Config{
		ObservabilityConfig: app.Observability,
		ServiceName:         name,
		Environment:         strings.ToLower(strings.TrimSpace(app.Environment)),
		Version:             strings.TrimSpace(app.AppVersion),
	}
}

// Debug enables verbose request logs and stack traces outside deployed environments.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
