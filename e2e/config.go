package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_GATEWAY_ADDR is host:port of a running gateway, scenarios are skipped when empty
	GatewayAddr string `envconfig:"E2E_GATEWAY_ADDR"`
	HealthAddr  string `envconfig:"E2E_HEALTH_ADDR" default:"localhost:8081"`
	// E2E_DEBUG_JSON dumps REST response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
