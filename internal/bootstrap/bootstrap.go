package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dealdesk/diligence-assistant/internal/config"
	"github.com/dealdesk/diligence-assistant/internal/core/domain"
	"github.com/dealdesk/diligence-assistant/internal/core/ports"
	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/cache/redis"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/chunking"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/extractor/router"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/llm/openai"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/queue/nats"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/repository/postgres"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/resilience"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/scoring"
	"github.com/dealdesk/diligence-assistant/internal/infrastructure/storage/localfs"
)

// Observer receives resilience and fallback events. HTTP server metrics
// implement it.
type Observer interface {
	RecordRetry(operation string)
	RecordBreakerTransition(operation, from, to string)
	RecordLLMFallback(reason string)
}

type Options struct {
	// Service names the NATS connection.
	Service string
	// RequireQueue connects to NATS even when indexing is synchronous.
	RequireQueue bool
	Observer     Observer
}

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository

	Uploads  *usecase.UploadUseCase
	Projects *usecase.ProjectUseCase
	Process  *usecase.ProcessDocumentUseCase
	Retrieve *usecase.RetrieveUseCase
	Respond  *usecase.ResponseUseCase
	Chat     *usecase.ChatUseCase
	Stats    *usecase.ProjectStatsUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (_ *App, err error) {
	app := &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = db.Close() })
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	conversations, err := app.conversationStore(ctx, db)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(resilienceConfig(opts.Observer))

	mode := usecase.IndexingMode(cfg.IndexingMode)
	var queue ports.MessageQueue
	if opts.RequireQueue || mode == usecase.IndexingAsync {
		q, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			Name:               opts.Service,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.closers = append(app.closers, q.Close)
		queue = q
	}

	projects := postgres.NewProjectRepository(db)
	documents := postgres.NewDocumentRepository(db)
	chunks := postgres.NewChunkRepository(db)

	indexer := usecase.NewIndexDocumentUseCase(chunks, projects, chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap))
	process := usecase.NewProcessDocumentUseCase(documents, storage, router.New(), indexer)
	retrieve := usecase.NewRetrieveUseCase(chunks, projects, scoring.NewJaccard(), domain.RetrievalLimits{
		TopK:            cfg.TopK,
		CandidateLimit:  cfg.CandidateLimit,
		PerProjectLimit: cfg.PerProjectLimit,
		GlobalCap:       cfg.GlobalCap,
	})

	respond := usecase.NewResponseUseCase(chatModel(cfg, executor), time.Duration(cfg.LLMTimeoutSeconds)*time.Second, cfg.HistoryMessages)
	if opts.Observer != nil {
		respond = respond.WithObserver(opts.Observer)
	}

	app.Queue = queue
	app.Documents = documents
	app.Process = process
	app.Retrieve = retrieve
	app.Respond = respond
	app.Uploads = usecase.NewUploadUseCase(projects, documents, chunks, storage, queue, process, mode)
	app.Projects = usecase.NewProjectUseCase(projects, documents, storage)
	app.Chat = usecase.NewChatUseCase(conversations, projects, retrieve, respond, cfg.HistoryMessages)
	app.Stats = usecase.NewProjectStatsUseCase(projects, documents, chunks)
	return app, nil
}

func (a *App) conversationStore(ctx context.Context, db *sql.DB) (ports.ConversationStore, error) {
	store := postgres.NewConversationRepository(db)
	if a.Config.RedisAddr == "" {
		return store, nil
	}
	client, err := redis.NewClient(ctx, a.Config.RedisAddr, "", 0)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	cache := redis.NewHistoryCache(client, time.Duration(a.Config.RedisHistoryTTLSeconds)*time.Second)
	return redis.NewConversationStore(store, cache), nil
}

// chatModel returns nil without an API key so replies use the fallback.
func chatModel(cfg config.Config, executor *resilience.Executor) ports.ChatModel {
	if cfg.LLMAPIKey == "" {
		slog.Warn("llm_not_configured", "base_url", cfg.LLMBaseURL)
		return nil
	}
	return openai.New(openai.Options{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
		Timeout:     time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
	}, executor)
}

func resilienceConfig(observer Observer) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.Operations = map[string]resilience.RetryPolicy{
		openai.OperationChatCompletions: resilience.LLMRetryPolicy(),
		nats.OperationPublish:           resilience.PublishRetryPolicy(),
	}
	if observer == nil {
		return rc
	}
	rc.OnRetry = observer.RecordRetry
	rc.OnStateChange = observer.RecordBreakerTransition
	return rc
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
