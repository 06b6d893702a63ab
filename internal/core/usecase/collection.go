package usecase

import (
	"context"
	"fmt"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// CollectionUseCase manages knowledge-base collection lifecycle: the
// vector index namespace and the stored configuration stay in step.
type CollectionUseCase struct {
	collections ports.CollectionStore
	rawDocs     ports.RawDocumentStore
	registry    ports.EmbeddingRegistry
	index       ports.VectorIndex
	queue       ports.MessageQueue
}

func NewCollectionUseCase(
	collections ports.CollectionStore,
	rawDocs ports.RawDocumentStore,
	registry ports.EmbeddingRegistry,
	index ports.VectorIndex,
	queue ports.MessageQueue,
) *CollectionUseCase {
	return &CollectionUseCase{
		collections: collections,
		rawDocs:     rawDocs,
		registry:    registry,
		index:       index,
		queue:       queue,
	}
}

// CreateCollection validates the embedding model, creates the vector
// index namespace with the model's dimensionality, and persists the
// configuration. An invalid distance metric fails before anything is
// created.
func (uc *CollectionUseCase) CreateCollection(ctx context.Context, cfg *domain.CollectionConfig) error {
	if cfg.Name == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create collection", fmt.Errorf("empty collection name"))
	}

	dimension, err := uc.registry.Dimension(cfg.DenseEmbeddingModel)
	if err != nil {
		return fmt.Errorf("resolve embedding dimension: %w", err)
	}

	if err := uc.index.CreateCollection(ctx, cfg.Name, dimension, cfg.DistanceMetric); err != nil {
		return fmt.Errorf("create index collection: %w", err)
	}

	if err := uc.collections.CreateCollection(ctx, cfg); err != nil {
		return fmt.Errorf("persist collection config: %w", err)
	}
	return nil
}

func (uc *CollectionUseCase) ListCollections(ctx context.Context) ([]domain.CollectionConfig, error) {
	configs, err := uc.collections.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return configs, nil
}

// DeleteCollection removes the index namespace, the stored configuration
// and the raw documents belonging to the collection.
func (uc *CollectionUseCase) DeleteCollection(ctx context.Context, name string) error {
	if err := uc.index.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete index collection: %w", err)
	}
	if err := uc.collections.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("delete collection config: %w", err)
	}
	if err := uc.rawDocs.DeleteByCollection(ctx, name); err != nil {
		return fmt.Errorf("delete raw documents: %w", err)
	}
	return nil
}

// UpdateChunking stores new chunk parameters and schedules a reindex so
// the worker re-chunks the collection's raw documents.
func (uc *CollectionUseCase) UpdateChunking(ctx context.Context, name string, chunkSize, chunkOverlap int) error {
	if err := uc.collections.UpdateChunking(ctx, name, chunkSize, chunkOverlap); err != nil {
		return fmt.Errorf("update chunking config: %w", err)
	}
	if err := uc.queue.PublishCollectionIndex(ctx, name); err != nil {
		return fmt.Errorf("schedule reindex: %w", err)
	}
	return nil
}

// RequestIndex schedules asynchronous (re)indexing of a collection.
func (uc *CollectionUseCase) RequestIndex(ctx context.Context, name string) error {
	if _, err := uc.collections.GetCollection(ctx, name); err != nil {
		return fmt.Errorf("load collection config: %w", err)
	}
	if err := uc.queue.PublishCollectionIndex(ctx, name); err != nil {
		return fmt.Errorf("schedule index: %w", err)
	}
	return nil
}
