package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// Full pipeline without reranking: real retriever and generator wired to
// fakes at the edges.
func TestAssistantExecutePlainPipeline(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	llm := &chatModelFake{completeText: "final answer"}
	llms := &llmFactoryFake{model: llm}
	retriever := NewRetriever(&collectionStoreFake{}, &registryFake{}, index, NewHydeRewriter(llms), &rerankerFactoryFake{err: errors.New("unused")})
	assistant := NewAssistantUseCase(retriever, NewGenerator(llms))

	answer, err := assistant.Execute(context.Background(), domain.AssistantConfig{
		Name:             "docs-bot",
		KnowledgeBaseIDs: []string{"kb-1"},
		Retrieval:        domain.RetrievalConfig{TopK: 5},
		Generation:       domain.GenerationConfig{LLMModel: "m", LLMProvider: "ollama"},
	}, "question?")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if answer.Answer != "final answer" {
		t.Fatalf("unexpected answer %q", answer.Answer)
	}
	if len(answer.Sources) != 5 {
		t.Fatalf("expected 5 unscored sources, got %d", len(answer.Sources))
	}
	if answer.Metadata.RetrievedDocs != 5 {
		t.Fatalf("expected retrieved_docs_count 5, got %d", answer.Metadata.RetrievedDocs)
	}
}

// Full pipeline with reranking: the reranker keeps documents 3 and 1
// with scores, and only those reach the sources, in rerank order.
func TestAssistantExecuteRerankedPipeline(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	llm := &chatModelFake{completeText: "reranked answer"}
	llms := &llmFactoryFake{model: llm}
	reranker := &rerankerFake{keep: []int{3, 1}, scores: []float64{0.9, 0.4}}
	retriever := NewRetriever(&collectionStoreFake{}, &registryFake{}, index, NewHydeRewriter(llms), &rerankerFactoryFake{reranker: reranker})
	assistant := NewAssistantUseCase(retriever, NewGenerator(llms))

	answer, err := assistant.Execute(context.Background(), domain.AssistantConfig{
		Name:             "docs-bot",
		KnowledgeBaseIDs: []string{"kb-1"},
		Retrieval: domain.RetrievalConfig{
			TopK:      5,
			Reranking: true,
			TopN:      2,
		},
		Generation: domain.GenerationConfig{LLMModel: "m"},
	}, "question?")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 reranked sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].URL != "https://example.com/d" || answer.Sources[1].URL != "https://example.com/b" {
		t.Fatalf("sources out of rerank order: %q %q", answer.Sources[0].URL, answer.Sources[1].URL)
	}
	if answer.Sources[0].Score == nil || *answer.Sources[0].Score != 0.9 {
		t.Fatalf("expected score 0.9 on first source, got %v", answer.Sources[0].Score)
	}
	if answer.Metadata.RetrievedDocs != 2 {
		t.Fatalf("expected retrieved_docs_count 2 after reranking, got %d", answer.Metadata.RetrievedDocs)
	}
}

func TestAssistantExecuteEmptyKnowledgeBases(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(5)}
	llm := &chatModelFake{completeText: "unused"}
	llms := &llmFactoryFake{model: llm}
	retriever := NewRetriever(&collectionStoreFake{}, &registryFake{}, index, NewHydeRewriter(llms), &rerankerFactoryFake{err: errors.New("unused")})
	assistant := NewAssistantUseCase(retriever, NewGenerator(llms))

	answer, err := assistant.Execute(context.Background(), domain.AssistantConfig{
		Name:       "docs-bot",
		Generation: domain.GenerationConfig{LLMModel: "m"},
	}, "question?")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if index.searchCalls != 0 {
		t.Fatalf("vector store must not be contacted, got %d calls", index.searchCalls)
	}
	if answer.Answer != noContextAnswer {
		t.Fatalf("expected canned answer, got %q", answer.Answer)
	}
}

func TestAssistantExecutePropagatesRetrieveError(t *testing.T) {
	store := &collectionStoreFake{err: domain.WrapError(domain.ErrCollectionNotFound, "get collection", errors.New("no rows"))}
	llms := &llmFactoryFake{model: &chatModelFake{}}
	retriever := NewRetriever(store, &registryFake{}, &vectorIndexFake{}, NewHydeRewriter(llms), &rerankerFactoryFake{err: errors.New("unused")})
	assistant := NewAssistantUseCase(retriever, NewGenerator(llms))

	_, err := assistant.Execute(context.Background(), domain.AssistantConfig{
		KnowledgeBaseIDs: []string{"missing"},
	}, "q")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestAssistantExecuteStreamEmitsTokensAndFinal(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(2)}
	llm := &chatModelFake{streamTokens: []string{"a", "b"}}
	llms := &llmFactoryFake{model: llm}
	retriever := NewRetriever(&collectionStoreFake{}, &registryFake{}, index, NewHydeRewriter(llms), &rerankerFactoryFake{err: errors.New("unused")})
	assistant := NewAssistantUseCase(retriever, NewGenerator(llms))

	var chunks []domain.StreamChunk
	err := assistant.ExecuteStream(context.Background(), domain.AssistantConfig{
		KnowledgeBaseIDs: []string{"kb-1"},
		Retrieval:        domain.RetrievalConfig{TopK: 2},
		Generation:       domain.GenerationConfig{LLMModel: "m"},
	}, "q", func(chunk domain.StreamChunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteStream() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 2 tokens and a final chunk, got %d", len(chunks))
	}
	if chunks[2].IsToken() {
		t.Fatalf("last chunk must be final")
	}
}

func TestAssistantFillsHydeModelFromGeneration(t *testing.T) {
	index := &vectorIndexFake{documents: fixedDocuments(1)}
	llm := &chatModelFake{completeText: "hypothetical"}
	llms := &llmFactoryFake{model: llm}
	retriever := NewRetriever(&collectionStoreFake{}, &registryFake{}, index, NewHydeRewriter(llms), &rerankerFactoryFake{err: errors.New("unused")})
	assistant := NewAssistantUseCase(retriever, NewGenerator(llms))

	_, err := assistant.Execute(context.Background(), domain.AssistantConfig{
		KnowledgeBaseIDs: []string{"kb-1"},
		Retrieval:        domain.RetrievalConfig{TopK: 1, UseHyde: true},
		Generation:       domain.GenerationConfig{LLMModel: "gen-model", LLMProvider: "ollama"},
	}, "q")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if index.searchQuery != "hypothetical" {
		t.Fatalf("hyde did not run with generation model, search query = %q", index.searchQuery)
	}
}
