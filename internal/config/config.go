package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the gateway and the Gemini client.
type Config struct {
	// Server
	Port      int    `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // "json" or "text"

	// Gemini completion endpoint
	GeminiAPIKey    string  `env:"GEMINI_API_KEY"`
	GeminiModel     string  `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL   string  `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	Temperature     float64 `env:"GEMINI_TEMPERATURE" envDefault:"0.7"`
	MaxOutputTokens int     `env:"GEMINI_MAX_OUTPUT_TOKENS" envDefault:"2048"`
	RequestTimeout  int     `env:"GEMINI_TIMEOUT_SECONDS" envDefault:"30"` // per-call timeout in seconds

	// Page-extraction endpoint
	ReaderBaseURL string `env:"READER_BASE_URL" envDefault:"https://r.jina.ai"`

	// Search lookup (optional; chat enrichment is disabled when DB_URL is empty)
	DBURL         string `env:"DB_URL"`
	SearchTable   string `env:"SEARCH_TABLE" envDefault:"items"`
	SearchColumns string `env:"SEARCH_COLUMNS" envDefault:"name,description"` // comma-separated
	MaxResults    int    `env:"SEARCH_MAX_RESULTS" envDefault:"10"`

	// Conversation history (optional; sessions are disabled when REDIS_ADDR is empty)
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	HistoryTTL    int    `env:"HISTORY_TTL_SECONDS" envDefault:"86400"`
	HistoryLimit  int    `env:"HISTORY_LIMIT" envDefault:"20"` // messages sent to the model per chat call
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
