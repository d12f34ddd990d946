package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qdrant/go-client/qdrant"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/terrainnova/chatbot/internal/catalog"
	"github.com/terrainnova/chatbot/internal/config"
	"github.com/terrainnova/chatbot/internal/contextstore"
	"github.com/terrainnova/chatbot/internal/docstore"
	"github.com/terrainnova/chatbot/internal/genai"
	"github.com/terrainnova/chatbot/internal/handlers"
	"github.com/terrainnova/chatbot/internal/healthcheck"
	"github.com/terrainnova/chatbot/internal/intent"
	"github.com/terrainnova/chatbot/internal/logger"
	"github.com/terrainnova/chatbot/internal/pipeline"
	"github.com/terrainnova/chatbot/internal/server"
	"github.com/terrainnova/chatbot/internal/whatsapp"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to config.toml")
	return cmd
}

func runServe(cfgPath string) {
	fx.New(
		fx.Supply(configPath(cfgPath)),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBPool,
			provideRedisBackend,
			provideContextStore,
			provideQdrantClient,
			provideCatalog,
			providePromptBuilder,
			provideGenAI,
			provideDocstore,
			provideWhatsAppClient,
			provideVerifier,
			provideNormalizer,
			provideEnhancer,
			providePipeline,
			provideHealthRegistry,
			handlers.NewPingHandler,
			handlers.NewHealthHandler,
			provideChatHandler,
			provideWebhookHandler,
			provideWhatsAppHandler,
			provideCatalogHandler,
			provideDocumentsHandler,
			provideServer,
		),
		fx.Invoke(
			initDocumentCollection,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

type configPath string

func provideConfig(path configPath) (config.Config, error) {
	cfgPath := string(path)
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Warn("postgres unavailable, catalog disabled", slog.Any("error", err))
		return nil
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { pool.Close(); return nil }})
	return pool
}

func provideRedisBackend(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) contextstore.Backend {
	if cfg.Redis.URL == "" {
		return nil
	}
	ttl := time.Duration(cfg.Redis.ContextTTLSeconds) * time.Second
	backend, err := contextstore.NewRedisBackend(cfg.Redis.URL, ttl)
	if err != nil {
		log.Warn("redis unavailable, context store degraded", slog.Any("error", err))
		return nil
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return backend.Close() }})
	return backend
}

func provideContextStore(log *slog.Logger, backend contextstore.Backend) *contextstore.Service {
	return contextstore.NewService(log, backend)
}

func provideQdrantClient(log *slog.Logger, cfg config.Config) *qdrant.Client {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Qdrant.Host,
		Port:   cfg.Qdrant.Port,
		APIKey: cfg.Qdrant.APIKey,
		UseTLS: cfg.Qdrant.UseTLS,
	})
	if err != nil {
		log.Warn("qdrant unavailable, document search disabled", slog.Any("error", err))
		return nil
	}
	return client
}

func provideCatalog(log *slog.Logger, pool *pgxpool.Pool) *catalog.Service {
	return catalog.NewService(log, pool)
}

func providePromptBuilder(log *slog.Logger, catalogService *catalog.Service) *genai.PromptBuilder {
	return genai.NewPromptBuilder(log, catalogService)
}

func provideGenAI(log *slog.Logger, cfg config.Config, prompts *genai.PromptBuilder) *genai.Client {
	return genai.NewClient(log, cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.EmbeddingModel, prompts)
}

func provideDocstore(log *slog.Logger, client *qdrant.Client, embedder *genai.Client, cfg config.Config) *docstore.Service {
	return docstore.NewService(log, client, embedder, cfg.Qdrant.Collection, genai.EmbeddingDimensions)
}

func provideWhatsAppClient(log *slog.Logger, cfg config.Config) *whatsapp.Client {
	return whatsapp.NewClient(log, cfg.WhatsApp.APIBaseURL, cfg.WhatsApp.AccessToken, cfg.WhatsApp.PhoneNumberID)
}

func provideVerifier(log *slog.Logger, cfg config.Config) *whatsapp.Verifier {
	return whatsapp.NewVerifier(log, cfg.WhatsApp.AppSecret, cfg.WhatsApp.VerifyToken)
}

func provideNormalizer(log *slog.Logger, client *whatsapp.Client) *whatsapp.Normalizer {
	return whatsapp.NewNormalizer(log, client)
}

func provideEnhancer(log *slog.Logger, catalogService *catalog.Service) *intent.Enhancer {
	return intent.NewEnhancer(log, catalogService)
}

func providePipeline(log *slog.Logger, store *contextstore.Service, verifier *whatsapp.Verifier, normalizer *whatsapp.Normalizer, enhancer *intent.Enhancer, generator *genai.Client, sender *whatsapp.Client) *pipeline.Pipeline {
	return pipeline.New(log, store, verifier, normalizer, enhancer, generator, sender)
}

func provideHealthRegistry(store *contextstore.Service, catalogService *catalog.Service, documents *docstore.Service, sender *whatsapp.Client, generator *genai.Client) *healthcheck.Registry {
	return healthcheck.NewRegistry(
		healthcheck.BoolCheck("redis", store.Healthy),
		healthcheck.BoolCheck("database", catalogService.Healthy),
		healthcheck.BoolCheck("qdrant", documents.Available),
		healthcheck.ConfigCheck("whatsapp", sender.Configured),
		healthcheck.ConfigCheck("gemini", generator.Configured),
	)
}

func provideChatHandler(log *slog.Logger, store *contextstore.Service, enhancer *intent.Enhancer, generator *genai.Client, catalogService *catalog.Service) *handlers.ChatHandler {
	return handlers.NewChatHandler(log, store, enhancer, generator, catalogService)
}

func provideWebhookHandler(log *slog.Logger, verifier *whatsapp.Verifier, p *pipeline.Pipeline) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, verifier, p)
}

func provideWhatsAppHandler(log *slog.Logger, client *whatsapp.Client) *handlers.WhatsAppHandler {
	return handlers.NewWhatsAppHandler(log, client)
}

func provideCatalogHandler(log *slog.Logger, catalogService *catalog.Service) *handlers.CatalogHandler {
	return handlers.NewCatalogHandler(log, catalogService)
}

func provideDocumentsHandler(log *slog.Logger, documents *docstore.Service) *handlers.DocumentsHandler {
	return handlers.NewDocumentsHandler(log, documents)
}

func provideServer(cfg config.Config, log *slog.Logger, pingHandler *handlers.PingHandler, healthHandler *handlers.HealthHandler, chatHandler *handlers.ChatHandler, webhookHandler *handlers.WebhookHandler, whatsappHandler *handlers.WhatsAppHandler, catalogHandler *handlers.CatalogHandler, documentsHandler *handlers.DocumentsHandler) *server.Server {
	return server.NewServer(cfg.Server.Addr, log, pingHandler, healthHandler, chatHandler, webhookHandler, whatsappHandler, catalogHandler, documentsHandler)
}

func initDocumentCollection(log *slog.Logger, documents *docstore.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if !documents.Available(ctx) {
		return
	}
	if err := documents.EnsureCollection(ctx); err != nil {
		log.Warn("document collection init failed", slog.Any("error", err))
	}
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting server", slog.String("addr", cfg.Server.Addr))
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
