package ports

import (
	"context"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// DenseEmbedder maps text to a fixed-length float vector.
type DenseEmbedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SparseEmbedder maps text to a BM25-style weighted-term vector. Only
// required when hybrid search is requested.
type SparseEmbedder interface {
	EmbedSparse(ctx context.Context, text string) (domain.SparseVector, error)
}

// EmbeddingConfig bundles the embedders and dimensionality resolved for
// one embedding model name.
type EmbeddingConfig struct {
	Dense     DenseEmbedder
	Sparse    SparseEmbedder
	Dimension int
}

// EmbeddingRegistry resolves model names against a static registry of
// supported embedding models. Resolved configs are memoized process-wide;
// unknown names fail with domain.ErrUnsupportedModel.
type EmbeddingRegistry interface {
	GetEmbeddingConfig(modelName string) (EmbeddingConfig, error)
	Dimension(modelName string) (int, error)
}

// VectorIndex wraps the hybrid vector store. Search returns documents
// best-match first; a search against a nonexistent collection fails with
// domain.ErrCollectionNotFound rather than returning empty results.
type VectorIndex interface {
	CreateCollection(ctx context.Context, name string, dimension int, distanceMetric string) error
	DeleteCollection(ctx context.Context, name string) error
	Store(ctx context.Context, collection string, chunks []domain.RetrievedDocument, ids []string, embedding EmbeddingConfig, batchSize int) (int, error)
	Search(ctx context.Context, collection, query string, k int, mode domain.SearchMode, embedding EmbeddingConfig) ([]domain.RetrievedDocument, error)
	DeleteBySourceURLs(ctx context.Context, collection string, urls []string) error
	ExistingContentHashes(ctx context.Context, collection string, hashes []string) (map[string]bool, error)
}

// ChatModel is the uniform completion interface over LLM providers.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteJSON(ctx context.Context, prompt string) (string, error)
	CompleteStream(ctx context.Context, prompt string, onToken func(token string) error) error
}

// ChatModelFactory selects a provider backend by (model, provider).
type ChatModelFactory interface {
	ChatModel(model, provider string) (ChatModel, error)
}

// Reranker re-scores a candidate set against the query and truncates it
// to topN, attaching a relevance score to every survivor.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []domain.RetrievedDocument, topN int) ([]domain.RetrievedDocument, error)
}

// RerankerFactory resolves reranker clients, memoized by
// (provider, model, topN). Misconfiguration surfaces as
// domain.ErrRerankProvider so callers can degrade gracefully.
type RerankerFactory interface {
	Reranker(provider, model string, topN int) (Reranker, error)
}

// CollectionStore persists knowledge-base collection configuration.
type CollectionStore interface {
	CreateCollection(ctx context.Context, cfg *domain.CollectionConfig) error
	GetCollection(ctx context.Context, name string) (*domain.CollectionConfig, error)
	ListCollections(ctx context.Context) ([]domain.CollectionConfig, error)
	UpdateChunking(ctx context.Context, name string, chunkSize, chunkOverlap int) error
	DeleteCollection(ctx context.Context, name string) error
}

// RawDocumentStore persists ingested content before chunking, so a
// collection can be re-chunked with new parameters.
type RawDocumentStore interface {
	Insert(ctx context.Context, doc *domain.RawDocument) error
	ListByCollection(ctx context.Context, collection string) ([]domain.RawDocument, error)
	DeleteByURL(ctx context.Context, collection, url string) error
	DeleteByCollection(ctx context.Context, collection string) error
}

// Chunker splits raw content into bounded chunks.
type Chunker interface {
	Split(text string) []string
}

// MessageQueue carries collection (re)index events from the API to the
// worker.
type MessageQueue interface {
	PublishCollectionIndex(ctx context.Context, collection string) error
	SubscribeCollectionIndex(ctx context.Context, handler func(context.Context, string) error) error
}
