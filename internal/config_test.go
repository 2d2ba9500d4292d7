package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("BADGER_FILEPATH", t.TempDir())
	t.Setenv("AI_TRIGGERS", "@ai, @bot,,")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal(8080, config.Port)
	req.Equal("DEBUG", config.LogLevel)
	req.Equal(24*time.Hour, config.AuthTokenDuration)
	req.Equal([]string{"@ai", "@bot"}, config.Triggers())
	req.Equal(config.Triggers(), config.Orchestrator().Triggers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"BADGER_FILEPATH": "/tmp/x"}},
		{"short secret", map[string]string{"JWT_SECRET": "short", "BADGER_FILEPATH": "/tmp/x"}},
		{"same ports", map[string]string{"JWT_SECRET": "0123456789abcdef", "BADGER_FILEPATH": "/tmp/x", "HEALTH_PORT": "8080"}},
		{"unknown level", map[string]string{"JWT_SECRET": "0123456789abcdef", "BADGER_FILEPATH": "/tmp/x", "LOG_LEVEL": "LOUD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
