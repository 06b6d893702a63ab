package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// ChunkerFactory builds a chunker for a collection's chunk parameters.
type ChunkerFactory func(chunkSize, chunkOverlap int) ports.Chunker

// IndexCollectionUseCase (re)chunks a collection's raw documents and
// upserts the chunks into the vector index. Chunks whose content hash
// already exists in the collection are skipped; dedup is an
// ingestion-time concern, not the index's.
type IndexCollectionUseCase struct {
	collections ports.CollectionStore
	rawDocs     ports.RawDocumentStore
	registry    ports.EmbeddingRegistry
	index       ports.VectorIndex
	chunkerFor  ChunkerFactory
	batchSize   int
}

func NewIndexCollectionUseCase(
	collections ports.CollectionStore,
	rawDocs ports.RawDocumentStore,
	registry ports.EmbeddingRegistry,
	index ports.VectorIndex,
	chunkerFor ChunkerFactory,
	batchSize int,
) *IndexCollectionUseCase {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &IndexCollectionUseCase{
		collections: collections,
		rawDocs:     rawDocs,
		registry:    registry,
		index:       index,
		chunkerFor:  chunkerFor,
		batchSize:   batchSize,
	}
}

// IndexCollection re-chunks the collection's raw documents and upserts
// the chunks, returning how many were stored.
func (uc *IndexCollectionUseCase) IndexCollection(ctx context.Context, name string) (int, error) {
	cfg, err := uc.collections.GetCollection(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("load collection config: %w", err)
	}

	embedding, err := uc.registry.GetEmbeddingConfig(cfg.DenseEmbeddingModel)
	if err != nil {
		return 0, fmt.Errorf("resolve embedding config: %w", err)
	}

	rawDocuments, err := uc.rawDocs.ListByCollection(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("list raw documents: %w", err)
	}
	if len(rawDocuments) == 0 {
		slog.Info("index_collection_empty", "collection", name)
		return 0, nil
	}

	chunker := uc.chunkerFor(cfg.ChunkSize, cfg.ChunkOverlap)
	chunks, ids := buildChunks(name, rawDocuments, chunker)
	if len(chunks) == 0 {
		slog.Warn("index_collection_no_chunks", "collection", name)
		return 0, nil
	}

	chunks, ids, err = uc.dropDuplicates(ctx, name, chunks, ids)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		slog.Info("index_collection_all_duplicates", "collection", name)
		return 0, nil
	}

	stored, err := uc.index.Store(ctx, name, chunks, ids, embedding, uc.batchSize)
	if err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	slog.Info("index_collection_done", "collection", name, "raw_docs", len(rawDocuments), "chunks", stored)
	return stored, nil
}

func buildChunks(collection string, rawDocuments []domain.RawDocument, chunker ports.Chunker) ([]domain.RetrievedDocument, []string) {
	var chunks []domain.RetrievedDocument
	var ids []string

	for _, raw := range rawDocuments {
		if raw.Content == "" {
			slog.Warn("skip_empty_raw_document", "collection", collection, "url", raw.URL)
			continue
		}
		for _, text := range chunker.Split(raw.Content) {
			chunks = append(chunks, domain.RetrievedDocument{
				Content: text,
				Metadata: map[string]any{
					domain.MetaSourceURL:      raw.URL,
					domain.MetaTitle:          raw.Title,
					domain.MetaCollectionName: collection,
					domain.MetaSourceCategory: raw.SourceCategory,
					domain.MetaContentHash:    contentHash(text),
				},
			})
			ids = append(ids, uuid.NewString())
		}
	}
	return chunks, ids
}

func (uc *IndexCollectionUseCase) dropDuplicates(
	ctx context.Context,
	collection string,
	chunks []domain.RetrievedDocument,
	ids []string,
) ([]domain.RetrievedDocument, []string, error) {
	hashes := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		hashes = append(hashes, chunk.Metadata[domain.MetaContentHash].(string))
	}

	existing, err := uc.index.ExistingContentHashes(ctx, collection, hashes)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing content hashes: %w", err)
	}

	seen := make(map[string]bool, len(chunks))
	keptChunks := chunks[:0]
	keptIDs := ids[:0]
	for i, chunk := range chunks {
		hash := hashes[i]
		if existing[hash] || seen[hash] {
			continue
		}
		seen[hash] = true
		keptChunks = append(keptChunks, chunk)
		keptIDs = append(keptIDs, ids[i])
	}

	if dropped := len(chunks) - len(keptChunks); dropped > 0 {
		slog.Info("dedup_skipped_chunks", "collection", collection, "skipped", dropped)
	}
	return keptChunks, keptIDs, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
