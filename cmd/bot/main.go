package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/assistant"
	"github.com/xaenox/fpl-assistant/internal/bot"
	"github.com/xaenox/fpl-assistant/internal/datacache"
	"github.com/xaenox/fpl-assistant/internal/directory"
	"github.com/xaenox/fpl-assistant/internal/fpl"
	"github.com/xaenox/fpl-assistant/internal/matcher"
	"github.com/xaenox/fpl-assistant/internal/models"
	"github.com/xaenox/fpl-assistant/internal/resolver"
	"github.com/xaenox/fpl-assistant/internal/router"
	"github.com/xaenox/fpl-assistant/internal/session"
	"github.com/xaenox/fpl-assistant/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize session storage
	var sessions session.Store
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory session storage")
		sessions = session.NewMemoryStore(cfg.Session.Capacity)
	} else {
		logger.Info("Using PostgreSQL session storage")
		dbConfig := session.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		sessions, err = session.NewPostgresStore(dbConfig, cfg.Session.Capacity, logger)
		if err != nil {
			logger.Fatal("Failed to initialize session storage", zap.Error(err))
		}
	}
	defer sessions.Close()

	// Initialize the data layer: FPL client behind the cache
	client := fpl.NewClient(cfg.FPL.BaseURL, cfg.FPL.Timeout, logger)
	cache := datacache.New(client, map[datacache.Category]time.Duration{
		datacache.CategoryStats:     cfg.FPL.StatsTTL,
		datacache.CategorySchedule:  cfg.FPL.ScheduleTTL,
		datacache.CategoryReference: cfg.FPL.ReferenceTTL,
	}, cfg.FPL.RetryBackoff, logger)

	// Build the entity directory and keep it fresh
	ctx := context.Background()
	dir := directory.New(cache, logger)
	if err := dir.Refresh(ctx); err != nil {
		logger.Fatal("Failed to build entity directory", zap.Error(err))
	}
	dir.StartRefresher(ctx, cfg.FPL.RefreshInterval)

	// Resolution and classification
	m := matcher.New(matcher.Config{
		Floor:           cfg.Matcher.Floor,
		ShortAliasFloor: cfg.Matcher.ShortAliasFloor,
		AmbiguityDelta:  cfg.Matcher.AmbiguityDelta,
		TopK:            cfg.Matcher.TopK,
	})
	res := resolver.New(m, sessions, logger)
	rt := router.New(routerConfig(cfg.Classifier))

	// Response generation
	gen := assistant.NewOpenAIGenerator(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger,
	)

	a := assistant.New(res, rt, dir, cache, sessions, gen, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, a, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("FPL assistant started",
		zap.Int("directory_entities", dir.Snapshot().Len()),
		zap.Int("session_capacity", cfg.Session.Capacity))

	// Start the bot
	if err := b.Start(); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
}

func routerConfig(cfg config.ClassifierConfig) router.Config {
	out := router.DefaultConfig()
	for name, threshold := range cfg.Thresholds {
		out.Thresholds[models.Intent(name)] = threshold
	}
	return out
}
