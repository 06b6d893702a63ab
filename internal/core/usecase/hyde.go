package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// HydeRewriter replaces a literal question with a model-generated
// hypothetical answer before retrieval, closing the lexical gap between
// questions and answer-shaped passages.
type HydeRewriter struct {
	llms     ports.ChatModelFactory
	observer PipelineObserver
}

func NewHydeRewriter(llms ports.ChatModelFactory) *HydeRewriter {
	return &HydeRewriter{llms: llms}
}

// Rewrite returns the hypothetical document to search with instead of
// the query. The rewritten text fully replaces the query; it does not
// run in addition to it. Any failure falls back to the original query
// with a warning, since HyDE must never abort retrieval.
func (h *HydeRewriter) Rewrite(ctx context.Context, query, promptTemplate, model, provider string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = DefaultHydePrompt
	}
	prompt := fillTemplate(template, map[string]string{"question": query})

	llm, err := h.llms.ChatModel(model, provider)
	if err != nil {
		slog.Warn("hyde_fallback", "reason", "resolve llm", "error", err)
		h.observeFallback()
		return query
	}

	hypothetical, err := llm.Complete(ctx, prompt)
	if err != nil {
		slog.Warn("hyde_fallback", "reason", "generate", "error", err)
		h.observeFallback()
		return query
	}
	if strings.TrimSpace(hypothetical) == "" {
		slog.Warn("hyde_fallback", "reason", "empty response")
		h.observeFallback()
		return query
	}
	return hypothetical
}

func (h *HydeRewriter) observeFallback() {
	if h.observer != nil {
		h.observer.HydeFallback()
	}
}
