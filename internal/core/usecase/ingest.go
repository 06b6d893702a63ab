package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// IngestUseCase adds and removes raw documents of a collection. Adding a
// document is an upsert keyed by (collection, url) and schedules an
// asynchronous index run; removing one also drops its points from the
// vector index so stale chunks never survive their source.
type IngestUseCase struct {
	collections ports.CollectionStore
	rawDocs     ports.RawDocumentStore
	index       ports.VectorIndex
	queue       ports.MessageQueue
}

func NewIngestUseCase(
	collections ports.CollectionStore,
	rawDocs ports.RawDocumentStore,
	index ports.VectorIndex,
	queue ports.MessageQueue,
) *IngestUseCase {
	return &IngestUseCase{
		collections: collections,
		rawDocs:     rawDocs,
		index:       index,
		queue:       queue,
	}
}

func (uc *IngestUseCase) AddDocument(ctx context.Context, doc *domain.RawDocument) (*domain.RawDocument, error) {
	if doc.CollectionName == "" || strings.TrimSpace(doc.URL) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add document", fmt.Errorf("collection name and url are required"))
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "add document", fmt.Errorf("empty document content"))
	}

	if _, err := uc.collections.GetCollection(ctx, doc.CollectionName); err != nil {
		return nil, fmt.Errorf("load collection config: %w", err)
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.SourceCategory == "" {
		doc.SourceCategory = domain.SourceCategoryWebsite
	}

	if err := uc.rawDocs.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("store raw document: %w", err)
	}

	if err := uc.queue.PublishCollectionIndex(ctx, doc.CollectionName); err != nil {
		return nil, fmt.Errorf("schedule index: %w", err)
	}

	slog.Info("raw_document_ingested",
		"collection", doc.CollectionName,
		"url", doc.URL,
		"source_category", doc.SourceCategory,
		"content_bytes", len(doc.Content),
	)
	return doc, nil
}

func (uc *IngestUseCase) RemoveDocument(ctx context.Context, collection, url string) error {
	if collection == "" || strings.TrimSpace(url) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "remove document", fmt.Errorf("collection name and url are required"))
	}

	if err := uc.rawDocs.DeleteByURL(ctx, collection, url); err != nil {
		return fmt.Errorf("delete raw document: %w", err)
	}
	if err := uc.index.DeleteBySourceURLs(ctx, collection, []string{url}); err != nil {
		return fmt.Errorf("delete indexed chunks: %w", err)
	}

	slog.Info("raw_document_removed", "collection", collection, "url", url)
	return nil
}
