package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// Generator formats retrieved documents into a prompt, invokes the LLM
// and produces either a plain answer or a precise-citation answer.
type Generator struct {
	llms ports.ChatModelFactory
}

func NewGenerator(llms ports.ChatModelFactory) *Generator {
	return &Generator{llms: llms}
}

// Generate produces an answer for the query from the retrieved
// documents. The document list is borrowed read-only.
func (g *Generator) Generate(
	ctx context.Context,
	query string,
	documents []domain.RetrievedDocument,
	cfg domain.GenerationConfig,
) (*domain.Answer, error) {
	if len(documents) == 0 {
		return &domain.Answer{
			Answer:   noContextAnswer,
			Sources:  []domain.Source{},
			Contexts: []string{},
			Metadata: domain.AnswerMetadata{LLMModel: cfg.LLMModel},
		}, nil
	}

	llm, err := g.llms.ChatModel(cfg.LLMModel, cfg.LLMProvider)
	if err != nil {
		return nil, fmt.Errorf("resolve chat model: %w", err)
	}

	if cfg.EffectiveMode() == domain.ModePreciseCitation {
		return g.generatePrecise(ctx, llm, query, documents, cfg)
	}
	return g.generateStandard(ctx, llm, query, documents, cfg)
}

func (g *Generator) generateStandard(
	ctx context.Context,
	llm ports.ChatModel,
	query string,
	documents []domain.RetrievedDocument,
	cfg domain.GenerationConfig,
) (*domain.Answer, error) {
	answer, err := llm.Complete(ctx, standardPrompt(query, documents, cfg))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &domain.Answer{
		Answer:   answer,
		Sources:  extractSources(documents, !cfg.Reranking),
		Contexts: contextsOf(documents),
		Metadata: domain.AnswerMetadata{
			RetrievedDocs: len(documents),
			LLMModel:      cfg.LLMModel,
		},
	}, nil
}

// generatePrecise runs the structured-citation branch. The chunk indices
// the model claims to have used are validated against the document list:
// out-of-range indices are dropped with a warning, never an error. A
// response that cannot be parsed into the citation schema at all is a
// hard failure; falling back to standard mode would silently change the
// cited sources.
func (g *Generator) generatePrecise(
	ctx context.Context,
	llm ports.ChatModel,
	query string,
	documents []domain.RetrievedDocument,
	cfg domain.GenerationConfig,
) (*domain.Answer, error) {
	slog.Info("precise_citation_mode", "documents", len(documents))

	raw, err := llm.CompleteJSON(ctx, preciseCitationPrompt(query, documents, cfg))
	if err != nil {
		return nil, fmt.Errorf("generate cited answer: %w", err)
	}

	cited, err := parseCitedAnswer(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCitationParse, "parse cited answer", err)
	}

	validIndices := make([]int, 0, len(cited.UsedChunkIndices))
	for _, i := range cited.UsedChunkIndices {
		if i >= 0 && i < len(documents) {
			validIndices = append(validIndices, i)
		}
	}
	dropped := len(cited.UsedChunkIndices) - len(validIndices)
	if dropped > 0 {
		slog.Warn("hallucinated_chunk_indices",
			"cited", len(cited.UsedChunkIndices),
			"valid", len(validIndices),
		)
	}

	usedDocs := make([]domain.RetrievedDocument, 0, len(validIndices))
	for _, i := range validIndices {
		usedDocs = append(usedDocs, documents[i])
	}

	return &domain.Answer{
		Answer:   cited.Answer,
		Sources:  extractSources(usedDocs, !cfg.Reranking),
		Contexts: contextsOf(usedDocs),
		Metadata: domain.AnswerMetadata{
			RetrievedDocs:    len(documents),
			LLMModel:         cfg.LLMModel,
			DroppedCitations: dropped,
		},
	}, nil
}

func standardPrompt(query string, documents []domain.RetrievedDocument, cfg domain.GenerationConfig) string {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	userPrompt := cfg.UserPrompt
	if userPrompt == "" {
		userPrompt = DefaultUserPrompt
	}

	vars := map[string]string{
		"context":  formatContext(documents),
		"question": query,
	}
	return fillTemplate(systemPrompt, vars) + "\n\n" + fillTemplate(userPrompt, vars)
}

func preciseCitationPrompt(query string, documents []domain.RetrievedDocument, cfg domain.GenerationConfig) string {
	systemPrompt := cfg.PreciseCitationSystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultPreciseCitationSystemPrompt
	}
	userPrompt := cfg.PreciseCitationUserPrompt
	if userPrompt == "" {
		userPrompt = DefaultPreciseCitationUserPrompt
	}

	vars := map[string]string{
		"context_with_indices": formatContextWithIndices(documents),
		"question":             query,
		"format_instructions":  citationFormatInstructions,
	}
	return fillTemplate(systemPrompt, vars) + "\n\n" + fillTemplate(userPrompt, vars)
}

func parseCitedAnswer(raw string) (domain.CitedAnswer, error) {
	var cited domain.CitedAnswer
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &cited); err != nil {
		return domain.CitedAnswer{}, fmt.Errorf("unmarshal citation json: %w", err)
	}
	if strings.TrimSpace(cited.Answer) == "" {
		return domain.CitedAnswer{}, fmt.Errorf("citation json has empty answer")
	}
	return cited, nil
}

// extractJSONObject trims any prose the model wrapped around the JSON
// object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
