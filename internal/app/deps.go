package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"chatkit/internal/agent"
	"chatkit/internal/config"
	"chatkit/internal/genai"
	"chatkit/internal/history"
	"chatkit/internal/logger"
	"chatkit/internal/reader"
	"chatkit/internal/search"
)

// Deps bundles the runtime dependencies of the gateway. Lookup and History
// are nil when their backing services are not configured; handlers degrade
// to unenriched, sessionless behavior.
type Deps struct {
	Config  config.Config
	Log     *slog.Logger
	Agent   *agent.Agent
	Lookup  agent.Lookup
	History history.Store
	Search  agent.SearchSettings
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	llm, err := genai.New(genai.Config{
		APIKey:          cfg.GeminiAPIKey,
		Model:           cfg.GeminiModel,
		BaseURL:         cfg.GeminiBaseURL,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         time.Duration(cfg.RequestTimeout) * time.Second,
	})
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	log.Info("using Gemini completion client", "model", cfg.GeminiModel)

	fetcher := reader.New(reader.Config{
		BaseURL: cfg.ReaderBaseURL,
		Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
	})

	deps := Deps{
		Config: cfg,
		Log:    log,
		Agent:  agent.New(llm, fetcher, log),
		Search: searchSettings(cfg),
	}

	if cfg.DBURL != "" {
		lookup, err := search.NewPostgres(cfg.DBURL, deps.Search)
		if err != nil {
			return Deps{}, fmt.Errorf("failed to initialize search lookup: %w", err)
		}
		log.Info("using Postgres search lookup", "table", deps.Search.TableName)
		deps.Lookup = lookup
	}

	if cfg.RedisAddr != "" {
		store, err := history.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword,
			time.Duration(cfg.HistoryTTL)*time.Second)
		if err != nil {
			return Deps{}, fmt.Errorf("failed to initialize history store: %w", err)
		}
		log.Info("using Redis history store")
		deps.History = store
	}

	return deps, nil
}

func searchSettings(cfg config.Config) agent.SearchSettings {
	var columns []string
	for _, col := range strings.Split(cfg.SearchColumns, ",") {
		if col = strings.TrimSpace(col); col != "" {
			columns = append(columns, col)
		}
	}
	return agent.SearchSettings{
		TableName:     cfg.SearchTable,
		SearchColumns: columns,
		MaxResults:    cfg.MaxResults,
	}
}
