package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// AssistantUseCase glues the retriever and the generator behind a single
// execute contract. Errors from either stage are logged and propagated;
// presentation of failures belongs to the transport layer.
type AssistantUseCase struct {
	retriever ports.DocumentRetriever
	generator ports.AnswerGenerator
}

func NewAssistantUseCase(retriever ports.DocumentRetriever, generator ports.AnswerGenerator) *AssistantUseCase {
	return &AssistantUseCase{retriever: retriever, generator: generator}
}

func (uc *AssistantUseCase) Execute(
	ctx context.Context,
	cfg domain.AssistantConfig,
	question string,
) (*domain.Answer, error) {
	documents, err := uc.retrieve(ctx, cfg, question)
	if err != nil {
		return nil, err
	}

	answer, err := uc.generator.Generate(ctx, question, documents, generationConfig(cfg))
	if err != nil {
		slog.Error("generate_failed", "assistant", cfg.Name, "error", err)
		return nil, fmt.Errorf("generate: %w", err)
	}
	answer.Metadata.RetrievedDocs = len(documents)

	slog.Info("assistant_executed",
		"assistant", cfg.Name,
		"retrieved_docs", len(documents),
		"sources", len(answer.Sources),
		"dropped_citations", answer.Metadata.DroppedCitations,
	)
	return answer, nil
}

func (uc *AssistantUseCase) ExecuteStream(
	ctx context.Context,
	cfg domain.AssistantConfig,
	question string,
	emit func(domain.StreamChunk) error,
) error {
	documents, err := uc.retrieve(ctx, cfg, question)
	if err != nil {
		return err
	}

	if err := uc.generator.GenerateStream(ctx, question, documents, generationConfig(cfg), emit); err != nil {
		slog.Error("generate_stream_failed", "assistant", cfg.Name, "error", err)
		return fmt.Errorf("generate stream: %w", err)
	}
	return nil
}

func (uc *AssistantUseCase) retrieve(
	ctx context.Context,
	cfg domain.AssistantConfig,
	question string,
) ([]domain.RetrievedDocument, error) {
	documents, err := uc.retriever.Retrieve(ctx, question, cfg.KnowledgeBaseIDs, retrievalConfig(cfg))
	if err != nil {
		slog.Error("retrieve_failed", "assistant", cfg.Name, "error", err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return documents, nil
}

// retrievalConfig fills the HyDE model from the generation settings when
// the preset leaves it unset.
func retrievalConfig(cfg domain.AssistantConfig) domain.RetrievalConfig {
	retrieval := cfg.Retrieval
	if retrieval.LLMModel == "" {
		retrieval.LLMModel = cfg.Generation.LLMModel
	}
	if retrieval.LLMProvider == "" {
		retrieval.LLMProvider = cfg.Generation.LLMProvider
	}
	return retrieval
}

// generationConfig mirrors the reranking flag into generation so the
// score-presence policy for sources follows the retrieval pipeline.
func generationConfig(cfg domain.AssistantConfig) domain.GenerationConfig {
	generation := cfg.Generation
	generation.Reranking = cfg.Retrieval.Reranking
	return generation
}
