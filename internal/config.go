package internal

import (
	"collab-chat/runtime"
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Config struct {
	Host       string `env:"HOST,default=localhost" validate:"required"`
	Port       int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	HealthPort int    `env:"HEALTH_PORT,default=8081" validate:"min=1,max=65535,nefield=Port"`
	DebugPort  int    `env:"DEBUG_PORT,default=8082" validate:"min=1,max=65535,nefield=Port"`
	LogLevel   string `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR"`

	JWTSecret         string        `env:"JWT_SECRET,required=true" validate:"required,min=16"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h" validate:"gt=0"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true" validate:"required"`

	BufferSize           int           `env:"BUFFER_SIZE,default=1024" validate:"min=1"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"min=1"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=500ms" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=1m" validate:"gte=0"`
	MaxMessageLength     int           `env:"MAX_MESSAGE_LENGTH,default=4000" validate:"min=1"`

	NumberOfAIWorkers int           `env:"NUMBER_OF_AI_WORKERS,default=4" validate:"min=1"`
	AIQueueSize       int           `env:"AI_QUEUE_SIZE,default=64" validate:"min=1"`
	AITimeout         time.Duration `env:"AI_TIMEOUT,default=30s" validate:"gt=0"`
	AITriggers        string        `env:"AI_TRIGGERS,default=@ai" validate:"required"`
	AIBaseURL         string        `env:"AI_BASE_URL,default=https://api.openai.com/v1" validate:"required,url"`
	AIAPIKey          string        `env:"AI_API_KEY"`
	AIModel           string        `env:"AI_MODEL,default=gpt-4o-mini" validate:"required"`
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	config.LogLevel = strings.ToUpper(strings.TrimSpace(config.LogLevel))
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// Triggers splits AI_TRIGGERS on commas.
func (c Config) Triggers() []string {
	return lo.Compact(lo.Map(strings.Split(c.AITriggers, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

func (c Config) Orchestrator() runtime.OrchestratorConfig {
	return runtime.OrchestratorConfig{
		NumberOfAIWorkers: c.NumberOfAIWorkers,
		BufferSize:        c.BufferSize,
		AIQueueSize:       c.AIQueueSize,
		MaxMessageLength:  c.MaxMessageLength,
		AITimeout:         c.AITimeout,
		SinkTimeout:       c.SinkTimeout,
		StatsInterval:     c.StatsInterval,
		Triggers:          c.Triggers(),
	}
}
