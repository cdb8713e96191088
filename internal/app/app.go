package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/EduAI/internal/auth"
	"github.com/markdave123-py/EduAI/internal/config"
	"github.com/markdave123-py/EduAI/internal/core"
	"github.com/markdave123-py/EduAI/internal/core/assets"
	db "github.com/markdave123-py/EduAI/internal/core/database"
	"github.com/markdave123-py/EduAI/internal/core/ingestion_engine"
	"github.com/markdave123-py/EduAI/internal/core/llm"
	objectclient "github.com/markdave123-py/EduAI/internal/core/object-client"
	"github.com/markdave123-py/EduAI/internal/core/render"
	"github.com/markdave123-py/EduAI/internal/services"
)

// App holds every long lived component of the platform.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     core.DomainStore
	Objects   core.ObjectClient
	LLM       core.LLMProvider
	Embedder  core.EmbeddingProvider
	Assets    core.AssetSearcher
	Signer    *auth.Signer
	Ingestor  *ingestion_engine.TextbookIngestor
	Scraper   *ingestion_engine.Scraper
	Users     *services.UserService
	Configs   *services.AgentConfigService
	Chat      *services.ChatService
	Content   *services.ContentService
	Knowledge *services.KnowledgeService

	started time.Time
	closers []func() error
}

// NewApp connects the store, object storage and AI clients and builds the
// services on top of them.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{Config: cfg, Logger: logger, started: time.Now()}

	store, err := openStore(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)
	logger.Info("store ready", zap.String("driver", cfg.StoreDriver))

	if cfg.HasObjectStorage() {
		s3, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Objects = s3
		logger.Info("object storage ready", zap.String("bucket", cfg.BucketName))
	} else {
		logger.Info("object storage not configured, documents are rendered on demand")
	}

	if err := a.connectAI(appCtx); err != nil {
		a.Close()
		return nil, err
	}

	a.Signer, err = auth.NewSigner(cfg.JWTSecret, 0)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Assets = assets.NewSketchfabClient(cfg.SketchfabURL, cfg.SketchfabKey)
	if cfg.SketchfabKey == "" {
		logger.Warn("SKETCHFAB_API_KEY not set, 3D model search will fail")
	}

	ingCfg := ingestion_engine.DefaultIngestConfig()
	ingCfg.EmbedRate = cfg.EmbedRate
	a.Ingestor = ingestion_engine.NewTextbookIngestor(
		store,
		a.Objects,
		ingestion_engine.NewHTTPFetcher(0),
		a.Embedder,
		ingestion_engine.NewDocconvExtractor(false),
		ingCfg,
		logger,
	)
	a.Scraper = ingestion_engine.NewScraper(store, ingestion_engine.NewCatalog(cfg.NCERTBaseURL), logger)

	a.Users = services.NewUserService(store)
	a.Configs = services.NewAgentConfigService(store)
	a.Chat = services.NewChatService(store, a.LLM, logger)
	a.Content = services.NewContentService(store, a.LLM, render.NewRenderer(), a.Objects, logger)

	// without a real embedder answers are not grounded in textbook passages
	var knowledgeEmbedder core.EmbeddingProvider
	if _, ok := a.Embedder.(llm.Unconfigured); !ok {
		knowledgeEmbedder = a.Embedder
	}
	a.Knowledge = services.NewKnowledgeService(store, a.LLM, knowledgeEmbedder, logger)

	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (core.DomainStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return db.NewDatabaseClient(ctx, cfg)
	case config.DriverMemory:
		return db.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func (a *App) connectAI(ctx context.Context) error {
	if a.Config.AIAPIKey == "" {
		a.Logger.Warn("GEMINI_API_KEY not set, AI features will fail")
		a.LLM, a.Embedder = llm.Unconfigured{}, llm.Unconfigured{}
		return nil
	}

	embedder, err := llm.NewGeminiEmbedder(ctx, a.Config.AIAPIKey, a.Config.EmbedModel)
	if err != nil {
		return fmt.Errorf("couldn't initialize the embedder, %w", err)
	}
	a.closers = append(a.closers, embedder.Close)

	gen, err := llm.NewGeminiLLM(ctx, a.Config.AIAPIKey, a.Config.GenModel)
	if err != nil {
		return fmt.Errorf("couldn't initialize the llm, %w", err)
	}
	a.closers = append(a.closers, gen.Close)

	a.LLM, a.Embedder = gen, embedder
	return nil
}

// Run starts the ingestion workers and the HTTP server and blocks until ctx
// is cancelled, then shuts the server down.
func (a *App) Run(ctx context.Context) error {
	a.Ingestor.Start(ctx, a.Config.IngestWorkers)

	srv := NewServer(a.Config, NewRouter(a), a.Logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
