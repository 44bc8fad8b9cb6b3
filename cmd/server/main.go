package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nexusmind/nexusmind/internal/config"
	"github.com/nexusmind/nexusmind/internal/driver"
	"github.com/nexusmind/nexusmind/internal/events"
	"github.com/nexusmind/nexusmind/internal/graph"
	"github.com/nexusmind/nexusmind/internal/llm"
	"github.com/nexusmind/nexusmind/internal/pipeline"
	"github.com/nexusmind/nexusmind/internal/server"
	"github.com/nexusmind/nexusmind/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/settings.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Default()
	}

	logger := newLogger(cfg.App.LogLevel)
	defer logger.Sync()
	if err != nil {
		logger.Warn("settings file not loaded, using defaults",
			zap.String("path", cfgPath), zap.Error(err))
	}

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password,
		cfg.Neo4j.Database, logger)
	if err != nil {
		logger.Fatal("neo4j connection failed", zap.Error(err))
	}
	defer d.Close(context.Background())

	if err := d.BuildIndices(context.Background()); err != nil {
		logger.Warn("index setup incomplete", zap.Error(err))
	}

	llmClient, embedderClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		logger.Fatal("llm client init failed", zap.Error(err))
	}
	if llmClient == nil {
		logger.Info("no LLM provider configured, stages use deterministic fallbacks")
	}

	promptsPath := os.Getenv("PROMPTS_PATH")
	if promptsPath == "" {
		promptsPath = "config/prompts.toml"
	}
	prompts, err := config.LoadPrompts(promptsPath)
	if err != nil {
		logger.Warn("prompts file not loaded, LLM prompting disabled",
			zap.String("path", promptsPath), zap.Error(err))
		prompts = nil
	}

	sessions := newSessionStore(cfg, logger)
	defer sessions.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			logger.Warn("nats unavailable, stage events disabled", zap.Error(err))
		} else {
			publisher = natsPub
		}
	}
	defer publisher.Close()

	store := graph.NewStore(d, logger)
	deps := pipeline.NewDeps(store, llmClient, embedderClient, prompts, cfg.Parameters, logger)
	processor := pipeline.NewProcessor(deps, cfg, publisher)

	srv := server.NewServer(processor, sessions, cfg, logger)
	httpServer := &http.Server{
		Addr:    cfg.App.Host + ":" + cfg.App.Port,
		Handler: srv.SetupRouter(),
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger
}

func newSessionStore(cfg *config.Config, logger *zap.Logger) session.Store {
	ttl := time.Duration(cfg.Redis.SessionTTLSeconds) * time.Second
	if cfg.Redis.Addr != "" {
		store, err := session.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, ttl)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory sessions", zap.Error(err))
		} else {
			logger.Info("using redis session store", zap.String("addr", cfg.Redis.Addr))
			return store
		}
	}
	return session.NewMemoryStore(ttl)
}
