package usecase

import (
	"context"
	"testing"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

func newIndexUseCase(index *vectorIndexFake, rawDocs *rawDocumentStoreFake) *IndexCollectionUseCase {
	return NewIndexCollectionUseCase(
		&collectionStoreFake{},
		rawDocs,
		&registryFake{},
		index,
		func(int, int) ports.Chunker { return &chunkerFake{} },
		10,
	)
}

func TestIndexCollectionChunksAndStores(t *testing.T) {
	index := &vectorIndexFake{}
	rawDocs := &rawDocumentStoreFake{documents: []domain.RawDocument{
		{CollectionName: "kb-1", URL: "https://example.com/page", Title: "Page", Content: "first|second|third", SourceCategory: domain.SourceCategoryWebsite},
	}}

	if _, err := newIndexUseCase(index, rawDocs).IndexCollection(context.Background(), "kb-1"); err != nil {
		t.Fatalf("IndexCollection() error = %v", err)
	}
	if len(index.storedChunks) != 3 {
		t.Fatalf("expected 3 stored chunks, got %d", len(index.storedChunks))
	}
	if len(index.storedIDs) != 3 {
		t.Fatalf("expected 3 point ids, got %d", len(index.storedIDs))
	}

	chunk := index.storedChunks[0]
	if chunk.Content != "first" {
		t.Fatalf("unexpected chunk content %q", chunk.Content)
	}
	if chunk.Metadata[domain.MetaSourceURL] != "https://example.com/page" {
		t.Fatalf("missing source url metadata: %v", chunk.Metadata)
	}
	if chunk.Metadata[domain.MetaTitle] != "Page" {
		t.Fatalf("missing title metadata: %v", chunk.Metadata)
	}
	if chunk.Metadata[domain.MetaCollectionName] != "kb-1" {
		t.Fatalf("missing collection metadata: %v", chunk.Metadata)
	}
	if hash, _ := chunk.Metadata[domain.MetaContentHash].(string); len(hash) != 64 {
		t.Fatalf("expected sha-256 hex content hash, got %q", hash)
	}
}

func TestIndexCollectionSkipsExistingHashes(t *testing.T) {
	index := &vectorIndexFake{existing: map[string]bool{contentHash("old"): true}}
	rawDocs := &rawDocumentStoreFake{documents: []domain.RawDocument{
		{CollectionName: "kb-1", URL: "u", Title: "t", Content: "old|new"},
	}}

	if _, err := newIndexUseCase(index, rawDocs).IndexCollection(context.Background(), "kb-1"); err != nil {
		t.Fatalf("IndexCollection() error = %v", err)
	}
	if len(index.storedChunks) != 1 {
		t.Fatalf("expected 1 new chunk, got %d", len(index.storedChunks))
	}
	if index.storedChunks[0].Content != "new" {
		t.Fatalf("wrong chunk survived dedup: %q", index.storedChunks[0].Content)
	}
}

func TestIndexCollectionDedupsWithinBatch(t *testing.T) {
	index := &vectorIndexFake{}
	rawDocs := &rawDocumentStoreFake{documents: []domain.RawDocument{
		{CollectionName: "kb-1", URL: "u1", Title: "t", Content: "same|same|other"},
	}}

	if _, err := newIndexUseCase(index, rawDocs).IndexCollection(context.Background(), "kb-1"); err != nil {
		t.Fatalf("IndexCollection() error = %v", err)
	}
	if len(index.storedChunks) != 2 {
		t.Fatalf("expected in-batch dedup to 2 chunks, got %d", len(index.storedChunks))
	}
}

func TestIndexCollectionSkipsEmptyDocuments(t *testing.T) {
	index := &vectorIndexFake{}
	rawDocs := &rawDocumentStoreFake{documents: []domain.RawDocument{
		{CollectionName: "kb-1", URL: "u1", Title: "t", Content: ""},
		{CollectionName: "kb-1", URL: "u2", Title: "t", Content: "body"},
	}}

	if _, err := newIndexUseCase(index, rawDocs).IndexCollection(context.Background(), "kb-1"); err != nil {
		t.Fatalf("IndexCollection() error = %v", err)
	}
	if len(index.storedChunks) != 1 {
		t.Fatalf("expected only the non-empty document to be chunked, got %d", len(index.storedChunks))
	}
}

func TestIndexCollectionNoDocumentsIsNoop(t *testing.T) {
	index := &vectorIndexFake{}
	if _, err := newIndexUseCase(index, &rawDocumentStoreFake{}).IndexCollection(context.Background(), "kb-1"); err != nil {
		t.Fatalf("IndexCollection() error = %v", err)
	}
	if len(index.storedChunks) != 0 {
		t.Fatalf("expected no stored chunks, got %d", len(index.storedChunks))
	}
}
