package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"prepdesk-exam"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Bank   Bank
	Exam   Exam
	Parser Parser
	Redis  Redis
	CORS   CORS
}

// Bank configures the question bank catalog.
type Bank struct {
	Dir         string        `env:"BANK_DIR" envDefault:"./banks"`
	DefaultExam string        `env:"BANK_DEFAULT_EXAM" envDefault:"practice-exam-1"`
	CacheTTL    time.Duration `env:"BANK_CACHE_TTL" envDefault:"5m"`
}

// Exam groups session timing defaults.
type Exam struct {
	Duration     time.Duration `env:"EXAM_DURATION" envDefault:"30m"`
	TickInterval time.Duration `env:"EXAM_TICK_INTERVAL" envDefault:"1s"`
	SessionTTL   time.Duration `env:"EXAM_SESSION_TTL" envDefault:"2h"`
}

// Parser toggles bank parsing behavior.
type Parser struct {
	// LooseAnswerFallback keeps the historical "any capital letters"
	// answer extraction; disable to validate banks strictly.
	LooseAnswerFallback bool `env:"PARSER_LOOSE_ANSWER_FALLBACK" envDefault:"true"`
}

// Redis holds the optional parsed-bank cache configuration. An empty Addr
// selects the in-process cache.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// CORS holds Cross-Origin Resource Sharing configuration for the renderer.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Exam.Duration <= 0 {
		return nil, fmt.Errorf("EXAM_DURATION must be positive")
	}
	return cfg, nil
}
