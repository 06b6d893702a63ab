package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// Retriever composes the embedding registry, vector index, HyDE rewriter
// and reranker factory into a single retrieve call. Stages run strictly
// sequentially: lookup collection → resolve embeddings → optional HyDE →
// search → optional rerank.
type Retriever struct {
	collections ports.CollectionStore
	registry    ports.EmbeddingRegistry
	index       ports.VectorIndex
	rewriter    *HydeRewriter
	rerankers   ports.RerankerFactory
	observer    PipelineObserver
}

func NewRetriever(
	collections ports.CollectionStore,
	registry ports.EmbeddingRegistry,
	index ports.VectorIndex,
	rewriter *HydeRewriter,
	rerankers ports.RerankerFactory,
) *Retriever {
	return &Retriever{
		collections: collections,
		registry:    registry,
		index:       index,
		rewriter:    rewriter,
		rerankers:   rerankers,
	}
}

// SetObserver attaches a degradation observer to the retriever and its
// HyDE rewriter.
func (r *Retriever) SetObserver(observer PipelineObserver) {
	r.observer = observer
	if r.rewriter != nil {
		r.rewriter.observer = observer
	}
}

// Retrieve returns the ranked documents for one query. An empty
// knowledgeBaseIDs slice is the valid "no knowledge base configured"
// case and returns an empty result without touching the vector store.
//
// Only the first knowledge-base id is searched; multi-collection fan-in
// is a known limitation, not implemented upstream either.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	knowledgeBaseIDs []string,
	cfg domain.RetrievalConfig,
) ([]domain.RetrievedDocument, error) {
	if len(knowledgeBaseIDs) == 0 {
		slog.Warn("retrieve_no_knowledge_bases")
		return []domain.RetrievedDocument{}, nil
	}
	if cfg.Reranking && cfg.TopN > cfg.EffectiveTopK() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "retrieve",
			fmt.Errorf("top_n=%d exceeds top_k=%d", cfg.TopN, cfg.EffectiveTopK()))
	}

	collection := knowledgeBaseIDs[0]

	collectionCfg, err := r.collections.GetCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load collection config: %w", err)
	}

	embedding, err := r.registry.GetEmbeddingConfig(collectionCfg.DenseEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("resolve embedding config: %w", err)
	}

	searchQuery := query
	if cfg.UseHyde {
		searchQuery = r.rewriter.Rewrite(ctx, query, cfg.HydePrompt, cfg.LLMModel, cfg.LLMProvider)
	}

	topK := cfg.EffectiveTopK()
	slog.Info("retrieve",
		"collection", collection,
		"mode", string(cfg.Mode()),
		"top_k", topK,
		"hyde", cfg.UseHyde,
	)

	documents, err := r.index.Search(ctx, collection, searchQuery, topK, cfg.Mode(), embedding)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}

	if cfg.Reranking {
		documents = r.rerank(ctx, query, documents, cfg)
	}

	slog.Info("retrieved_documents", "collection", collection, "count", len(documents))
	return documents, nil
}

// rerank applies the configured reranker. Reranking is a quality
// enhancement, never a hard dependency: on any provider failure the
// input documents come back unranked and untruncated with a warning.
func (r *Retriever) rerank(
	ctx context.Context,
	query string,
	documents []domain.RetrievedDocument,
	cfg domain.RetrievalConfig,
) []domain.RetrievedDocument {
	topN := cfg.EffectiveTopN()

	reranker, err := r.rerankers.Reranker(cfg.RerankerProvider, cfg.RerankerModel, topN)
	if err != nil {
		slog.Warn("rerank_fallback", "provider", cfg.RerankerProvider, "error", err)
		r.observeRerankFallback()
		return documents
	}

	reranked, err := reranker.Rerank(ctx, query, documents, topN)
	if err != nil {
		slog.Warn("rerank_fallback", "provider", cfg.RerankerProvider, "error", err)
		r.observeRerankFallback()
		return documents
	}
	return reranked
}

func (r *Retriever) observeRerankFallback() {
	if r.observer != nil {
		r.observer.RerankFallback()
	}
}
