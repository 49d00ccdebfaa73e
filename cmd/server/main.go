package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"strand/internal/auth"
	"strand/internal/catalog"
	"strand/internal/config"
	"strand/internal/handler"
	"strand/internal/middleware"
	"strand/internal/repository/postgres"
	"strand/internal/service/llm"
	"strand/internal/service/llm/providers/anthropic"
	"strand/internal/service/llm/providers/google"
	"strand/internal/service/llm/providers/lorem"
	"strand/internal/service/llm/providers/openai"
	"strand/internal/service/search"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	store := postgres.NewChatStore(&postgres.StoreConfig{
		Pool:             pool,
		Tables:           postgres.NewTableNames(cfg.TablePrefix),
		Logger:           logger,
		EncryptionSecret: cfg.EncryptionSecret,
	})
	txManager := postgres.NewTransactionManager(pool, logger)

	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load model catalog: %v", err)
	}
	logger.Info("model catalog loaded", "models", len(registry.List()))

	searchFallback := search.NewFallback(&search.FallbackConfig{
		TavilyAPIKey:    cfg.TavilyAPIKey,
		BraveAPIKey:     cfg.BraveAPIKey,
		SerperAPIKey:    cfg.SerperAPIKey,
		DefaultProvider: cfg.DefaultSearchProvider,
		Logger:          logger,
	})
	if searchFallback.Available() {
		logger.Info("search providers configured", "providers", searchFallback.Providers())
	} else {
		logger.Warn("no search providers configured, web search disabled")
	}

	providers := &llm.ProviderSet{
		Anthropic: anthropic.New(),
		OpenAI:    openai.New(),
		Google:    google.New(),
		Lorem:     lorem.New(),
	}

	platformKeys := map[string]string{
		"anthropic": cfg.AnthropicAPIKey,
		"openai":    cfg.OpenAIAPIKey,
		"google":    cfg.GoogleAPIKey,
		"lorem":     "lorem", // mock provider needs no real credential
	}

	orchestrator := llm.NewOrchestrator(&llm.OrchestratorConfig{
		Registry:    registry,
		Store:       store,
		TxManager:   txManager,
		Providers:   providers,
		Credentials: llm.NewCredentialResolver(store, platformKeys, logger),
		Attachments: llm.NewAttachmentResolver(store, logger),
		Engine:      llm.NewEngine(searchFallback, logger),
		Limiter:     llm.NewPlatformLimiter(cfg.PlatformRequestsPerMinute),
		Search:      searchFallback,
		Logger:      logger,
	})

	chatHandler := handler.NewChatHandler(orchestrator, logger)
	modelsHandler := handler.NewModelsHandler(registry)
	keysHandler := handler.NewKeysHandler(store, logger)
	messagesHandler := handler.NewMessagesHandler(store)

	logger.Info("services initialized")

	// Go 1.22+ enhanced routing patterns
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/chat", chatHandler.HandleTurn)
	mux.HandleFunc("GET /api/chats/{id}/messages", messagesHandler.ListMessages)

	mux.HandleFunc("GET /api/models", modelsHandler.ListModels)

	mux.HandleFunc("GET /api/keys", keysHandler.ListKeys)
	mux.HandleFunc("PUT /api/keys/{provider}", keysHandler.PutKey)
	mux.HandleFunc("DELETE /api/keys/{provider}", keysHandler.DeleteKey)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	var httpHandler http.Handler = mux
	httpHandler = middleware.Auth(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
