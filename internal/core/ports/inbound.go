package ports

import (
	"context"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// DocumentRetriever is the inbound contract for the retrieval stage.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, query string, knowledgeBaseIDs []string, cfg domain.RetrievalConfig) ([]domain.RetrievedDocument, error)
}

// AnswerGenerator is the inbound contract for the generation stage.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, documents []domain.RetrievedDocument, cfg domain.GenerationConfig) (*domain.Answer, error)
	GenerateStream(ctx context.Context, query string, documents []domain.RetrievedDocument, cfg domain.GenerationConfig, emit func(domain.StreamChunk) error) error
}

// AssistantExecutor glues retrieval and generation behind a single
// execute contract, used identically by synchronous and streaming
// callers.
type AssistantExecutor interface {
	Execute(ctx context.Context, cfg domain.AssistantConfig, question string) (*domain.Answer, error)
	ExecuteStream(ctx context.Context, cfg domain.AssistantConfig, question string, emit func(domain.StreamChunk) error) error
}

// CollectionManager is the inbound contract for knowledge-base
// collection lifecycle.
type CollectionManager interface {
	CreateCollection(ctx context.Context, cfg *domain.CollectionConfig) error
	ListCollections(ctx context.Context) ([]domain.CollectionConfig, error)
	DeleteCollection(ctx context.Context, name string) error
	UpdateChunking(ctx context.Context, name string, chunkSize, chunkOverlap int) error
	RequestIndex(ctx context.Context, name string) error
}

// DocumentIngestor is the inbound contract for adding and removing raw
// documents of a collection.
type DocumentIngestor interface {
	AddDocument(ctx context.Context, doc *domain.RawDocument) (*domain.RawDocument, error)
	RemoveDocument(ctx context.Context, collection, url string) error
}

// CollectionIndexer is the inbound contract for asynchronous
// (re)chunking and indexing of a collection's raw documents.
type CollectionIndexer interface {
	IndexCollection(ctx context.Context, name string) (int, error)
}
