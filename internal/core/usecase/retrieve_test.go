package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

func newRetriever(index *vectorIndexFake, llms *llmFactoryFake, rerankers *rerankerFactoryFake) *Retriever {
	if llms == nil {
		llms = &llmFactoryFake{model: &chatModelFake{completeText: "hypothetical"}}
	}
	if rerankers == nil {
		rerankers = &rerankerFactoryFake{err: errors.New("no reranker configured")}
	}
	return NewRetriever(&collectionStoreFake{}, &registryFake{}, index, NewHydeRewriter(llms), rerankers)
}

func TestRetrieveEmptyKnowledgeBasesSkipsVectorStore(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	retriever := newRetriever(index, nil, nil)

	docs, err := retriever.Retrieve(context.Background(), "q", nil, domain.RetrievalConfig{TopK: 5})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected empty result, got %d documents", len(docs))
	}
	if index.searchCalls != 0 {
		t.Fatalf("expected zero vector store calls, got %d", index.searchCalls)
	}
}

func TestRetrieveRespectsTopK(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	retriever := newRetriever(index, nil, nil)

	docs, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{TopK: 3})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) > 3 {
		t.Fatalf("expected at most 3 documents, got %d", len(docs))
	}
	if index.searchK != 3 {
		t.Fatalf("expected search k=3, got %d", index.searchK)
	}
}

func TestRetrieveTopNCapsRerankedResults(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	reranker := &rerankerFake{keep: []int{3, 1, 0}, scores: []float64{0.9, 0.4, 0.2}}
	retriever := newRetriever(index, nil, &rerankerFactoryFake{reranker: reranker})

	docs, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:      5,
		Reranking: true,
		TopN:      2,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 reranked documents, got %d", len(docs))
	}
	if _, ok := docs[0].RelevanceScore(); !ok {
		t.Fatalf("expected relevance score on reranked document")
	}
}

func TestRetrieveTopNDefaultsToHalfTopK(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(10)}
	reranker := &rerankerFake{
		keep:   []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		scores: []float64{1, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1},
	}
	retriever := newRetriever(index, nil, &rerankerFactoryFake{reranker: reranker})

	docs, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:      10,
		Reranking: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("expected top_n default of 5, got %d", len(docs))
	}
}

func TestRetrieveTopNAboveTopKIsInvalid(t *testing.T) {
	retriever := newRetriever(&vectorIndexFake{}, nil, nil)

	_, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:      3,
		Reranking: true,
		TopN:      10,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrieveHydeFailureFallsBackToOriginalQuery(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(3)}
	llms := &llmFactoryFake{model: &chatModelFake{completeErr: errors.New("llm down")}}
	retriever := newRetriever(index, llms, nil)

	docs, err := retriever.Retrieve(context.Background(), "What is X?", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:    3,
		UseHyde: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) == 0 {
		t.Fatalf("expected documents despite hyde failure")
	}
	if index.searchQuery != "What is X?" {
		t.Fatalf("expected search with original query, got %q", index.searchQuery)
	}
}

func TestRetrieveHydeReplacesSearchQuery(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(3)}
	llms := &llmFactoryFake{model: &chatModelFake{completeText: "a hypothetical paragraph"}}
	retriever := newRetriever(index, llms, nil)

	_, err := retriever.Retrieve(context.Background(), "What is X?", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:    3,
		UseHyde: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if index.searchQuery != "a hypothetical paragraph" {
		t.Fatalf("expected hyde query to replace original, got %q", index.searchQuery)
	}
}

func TestRetrieveRerankProviderFailureReturnsUntruncatedInput(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	retriever := newRetriever(index, nil, &rerankerFactoryFake{err: errors.New("missing api key")})

	docs, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:      5,
		Reranking: true,
		TopN:      2,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("expected untruncated fallback of 5 documents, got %d", len(docs))
	}
	if _, ok := docs[0].RelevanceScore(); ok {
		t.Fatalf("fallback documents must not carry relevance scores")
	}
}

func TestRetrieveRerankCallFailureReturnsInput(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(4)}
	reranker := &rerankerFake{err: errors.New("rerank endpoint unreachable")}
	retriever := newRetriever(index, nil, &rerankerFactoryFake{reranker: reranker})

	docs, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:      4,
		Reranking: true,
		TopN:      2,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(docs) != 4 {
		t.Fatalf("expected 4 fallback documents, got %d", len(docs))
	}
}

func TestRetrieveQueriesOnlyFirstKnowledgeBase(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(2)}
	retriever := newRetriever(index, nil, nil)

	_, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1", "kb-2"}, domain.RetrievalConfig{TopK: 2})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if index.searchCalls != 1 || index.searchCollection != "kb-1" {
		t.Fatalf("expected a single search against kb-1, got %d calls against %q", index.searchCalls, index.searchCollection)
	}
}

func TestRetrieveHybridFlagSelectsMode(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(1)}
	retriever := newRetriever(index, nil, nil)

	_, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{
		TopK:         1,
		HybridSearch: true,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if index.searchMode != domain.SearchHybrid {
		t.Fatalf("expected hybrid search mode, got %s", index.searchMode)
	}
}

func TestRetrievePropagatesMissingCollection(t *testing.T) {
	store := &collectionStoreFake{err: domain.WrapError(domain.ErrCollectionNotFound, "get collection", errors.New("no rows"))}
	retriever := NewRetriever(store, &registryFake{}, &vectorIndexFake{}, NewHydeRewriter(&llmFactoryFake{model: &chatModelFake{}}), &rerankerFactoryFake{err: errors.New("unused")})

	_, err := retriever.Retrieve(context.Background(), "q", []string{"missing"}, domain.RetrievalConfig{TopK: 3})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestRetrievePropagatesUnsupportedModel(t *testing.T) {
	registry := &registryFake{err: domain.WrapError(domain.ErrUnsupportedModel, "resolve model", errors.New("unknown"))}
	retriever := NewRetriever(&collectionStoreFake{}, registry, &vectorIndexFake{}, NewHydeRewriter(&llmFactoryFake{model: &chatModelFake{}}), &rerankerFactoryFake{err: errors.New("unused")})

	_, err := retriever.Retrieve(context.Background(), "q", []string{"kb-1"}, domain.RetrievalConfig{TopK: 3})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}
