package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/digitaldoctors/dda-assistant/internal/api"
	"github.com/digitaldoctors/dda-assistant/internal/api/middleware"
	"github.com/digitaldoctors/dda-assistant/internal/assistant"
	"github.com/digitaldoctors/dda-assistant/internal/cache"
	"github.com/digitaldoctors/dda-assistant/internal/circuitbreaker"
	"github.com/digitaldoctors/dda-assistant/internal/classifier"
	"github.com/digitaldoctors/dda-assistant/internal/config"
	"github.com/digitaldoctors/dda-assistant/internal/db"
	"github.com/digitaldoctors/dda-assistant/internal/logger"
	"github.com/digitaldoctors/dda-assistant/internal/memory"
	"github.com/digitaldoctors/dda-assistant/internal/metrics"
	"github.com/digitaldoctors/dda-assistant/internal/prompt"
	"github.com/digitaldoctors/dda-assistant/internal/ws"
	"github.com/digitaldoctors/dda-assistant/pkg/gemini"
	"github.com/digitaldoctors/dda-assistant/pkg/llm"
	"github.com/digitaldoctors/dda-assistant/pkg/openai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.Default()

	rules, err := loadClassifier(cfg.CatalogPath)
	if err != nil {
		return err
	}

	// Database is optional: without it interactions are not recorded
	var database *db.DB
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, db.Config{
			URL:             cfg.DatabaseURL,
			MaxConnections:  20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Info("database connected")
	} else {
		log.Warn("DATABASE_URL not set, interaction history disabled")
	}

	// Redis is optional: the in-memory cache serves a single instance
	var responseCache cache.Cache = cache.NewMemory(cfg.CacheTTL, cfg.CacheSize)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			responseCache = cache.NewRedis(redisClient, "", cfg.CacheTTL, log)
			log.Info("redis cache connected")
		}
	}

	client, model := newLLMClient(cfg)
	if client == nil {
		log.Warn("no LLM configured, answering from rules only", zap.String("provider", cfg.LLMProvider))
	} else {
		log.Info("LLM configured", zap.String("provider", cfg.LLMProvider), zap.String("model", model))
	}

	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:         cfg.LLMProvider,
		MaxFailures:  cfg.BreakerFails,
		ResetTimeout: cfg.BreakerReset,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	chatMemory := memory.NewMemoryManager(prompt.MaxHistoryMessages, 30*time.Minute)
	go pruneMemory(ctx, chatMemory, log)

	opts := []assistant.Option{
		assistant.WithCache(responseCache),
		assistant.WithMemory(chatMemory),
		assistant.WithBreaker(breaker),
		assistant.WithLogger(log),
		assistant.WithMetrics(m),
		assistant.WithTimeout(cfg.LLMTimeout),
		assistant.WithModel(model),
	}
	var history api.HistoryStore
	if database != nil {
		opts = append(opts, assistant.WithStore(database))
		history = database
	}
	svc := assistant.New(rules, client, opts...)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ipLimiter := middleware.PerMinute(cfg.RateLimit)
	defer ipLimiter.Stop()
	userLimiter := middleware.PerMinute(cfg.RateLimit)
	defer userLimiter.Stop()

	chatHandler := ws.NewChatHandler(svc, cfg.JWTSecret, cfg.WSRateLimit, cfg.AllowedOrigins, log, m)

	router := api.NewRouter(api.RouterConfig{
		Chatbot:        api.NewChatbotHandler(svc, history, log),
		WebSocket:      chatHandler.HandleChat,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		IPLimiter:      ipLimiter,
		UserLimiter:    userLimiter,
		Logger:         log,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
	})

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, chatbot endpoints accept anonymous requests")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}

func pruneMemory(ctx context.Context, m *memory.MemoryManager, log *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(); n > 0 {
				log.Debug("pruned idle chat memory", zap.Int("users", n))
			}
		}
	}
}

func loadClassifier(path string) (*classifier.Classifier, error) {
	if path == "" {
		return classifier.NewClassifier(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	catalog, err := classifier.LoadCatalog(f)
	if err != nil {
		return nil, err
	}
	return classifier.NewWithCatalog(catalog), nil
}

// newLLMClient returns nil when the selected provider has no key
func newLLMClient(cfg *config.Config) (llm.Client, string) {
	if !cfg.LLMEnabled() {
		return nil, ""
	}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return gemini.NewHTTPClient(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.LLMTimeout,
		}), cfg.GeminiModel
	default:
		return openai.NewHTTPClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		}), cfg.OpenAIModel
	}
}
