package bootstrap

import (
	"context"
	"fmt"

	"github.com/mkravets/rag-assistant/internal/config"
	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
	"github.com/mkravets/rag-assistant/internal/core/usecase"
	"github.com/mkravets/rag-assistant/internal/infrastructure/chunking"
	"github.com/mkravets/rag-assistant/internal/infrastructure/embedding"
	"github.com/mkravets/rag-assistant/internal/infrastructure/llm"
	"github.com/mkravets/rag-assistant/internal/infrastructure/queue/nats"
	"github.com/mkravets/rag-assistant/internal/infrastructure/rerank"
	"github.com/mkravets/rag-assistant/internal/infrastructure/repository/postgres"
	"github.com/mkravets/rag-assistant/internal/infrastructure/resilience"
	"github.com/mkravets/rag-assistant/internal/infrastructure/vector/qdrant"
	"github.com/mkravets/rag-assistant/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Presets map[string]domain.AssistantConfig

	Queue        ports.MessageQueue
	AssistantUC  ports.AssistantExecutor
	CollectionUC ports.CollectionManager
	IngestUC     ports.DocumentIngestor
	IndexUC      ports.CollectionIndexer

	APIMetrics    *metrics.HTTPServerMetrics
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	collections := postgres.NewCollectionRepository(db)
	if err := collections.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rawDocs := postgres.NewRawDocumentRepository(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	embeddings := embedding.NewRegistry(cfg.OllamaURL, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	vectorIndex := qdrant.New(cfg.QdrantURL)
	llms := llm.NewFactory(cfg.OllamaURL, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey,
		cfg.DefaultLLMModel, cfg.DefaultLLMProvider, executor)
	rerankers := rerank.NewRegistry(cfg.CohereBaseURL, cfg.CohereAPIKey, cfg.HuggingFaceRerankURL)

	apiMetrics := metrics.NewHTTPServerMetrics(service)
	workerMetrics := metrics.NewWorkerMetrics(service)

	retriever := usecase.NewRetriever(collections, embeddings, vectorIndex,
		usecase.NewHydeRewriter(llms), rerankers)
	retriever.SetObserver(&pipelineObserver{metrics: apiMetrics, service: service})
	generator := usecase.NewGenerator(llms)

	chunkerFor := func(chunkSize, chunkOverlap int) ports.Chunker {
		return chunking.NewMarkdownSplitter(chunkSize, chunkOverlap)
	}

	presets, err := loadPresets(cfg.AssistantPresetsPath)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Presets: presets,

		Queue:        queue,
		AssistantUC:  usecase.NewAssistantUseCase(retriever, generator),
		CollectionUC: usecase.NewCollectionUseCase(collections, rawDocs, embeddings, vectorIndex, queue),
		IngestUC:     usecase.NewIngestUseCase(collections, rawDocs, vectorIndex, queue),
		IndexUC:      usecase.NewIndexCollectionUseCase(collections, rawDocs, embeddings, vectorIndex, chunkerFor, cfg.IndexBatchSize),

		APIMetrics:    apiMetrics,
		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func loadPresets(path string) (map[string]domain.AssistantConfig, error) {
	presets, err := config.LoadPresets(path)
	if err != nil {
		return nil, fmt.Errorf("load assistant presets: %w", err)
	}
	byName := make(map[string]domain.AssistantConfig, len(presets.Assistants))
	for _, preset := range presets.Assistants {
		byName[preset.Name] = preset
	}
	return byName, nil
}

// pipelineObserver maps retrieval degradation events onto the metrics
// counters.
type pipelineObserver struct {
	metrics *metrics.HTTPServerMetrics
	service string
}

func (o *pipelineObserver) HydeFallback()   { o.metrics.RecordHydeFallback(o.service) }
func (o *pipelineObserver) RerankFallback() { o.metrics.RecordRerankFallback(o.service) }
