package usecase

import (
	"context"
	"fmt"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// GenerateStream streams the answer for the query. Standard mode emits
// zero or more token chunks followed by exactly one final chunk carrying
// the source URLs and contexts of the documents the prompt was built
// from. Precise citation mode cannot stream tokens (the structured parse
// needs the complete output), so it generates synchronously and emits a
// single final chunk with the complete answer.
func (g *Generator) GenerateStream(
	ctx context.Context,
	query string,
	documents []domain.RetrievedDocument,
	cfg domain.GenerationConfig,
	emit func(domain.StreamChunk) error,
) error {
	if cfg.EffectiveMode() == domain.ModePreciseCitation {
		answer, err := g.Generate(ctx, query, documents, cfg)
		if err != nil {
			return err
		}
		return emit(domain.FinalChunk(domain.StreamResult{Result: answer}))
	}

	llm, err := g.llms.ChatModel(cfg.LLMModel, cfg.LLMProvider)
	if err != nil {
		return fmt.Errorf("resolve chat model: %w", err)
	}

	err = llm.CompleteStream(ctx, standardPrompt(query, documents, cfg), func(token string) error {
		return emit(domain.TokenChunk(token))
	})
	if err != nil {
		return fmt.Errorf("stream answer: %w", err)
	}

	return emit(domain.FinalChunk(domain.StreamResult{
		SourceURLs: sourceURLsOf(documents),
		Contexts:   contextsOf(documents),
	}))
}
