package rerank

import (
	"fmt"
	"sync"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

// Registry resolves reranker clients by (provider, model, topN),
// memoized so presets sharing a configuration share a client.
// Misconfiguration is reported as domain.ErrRerankProvider; the
// retriever treats that as a signal to fall back to unranked results.
type Registry struct {
	cohereURL      string
	cohereKey      string
	huggingFaceURL string

	mu    sync.Mutex
	cache map[string]ports.Reranker
}

func NewRegistry(cohereURL, cohereKey, huggingFaceURL string) *Registry {
	return &Registry{
		cohereURL:      cohereURL,
		cohereKey:      cohereKey,
		huggingFaceURL: huggingFaceURL,
		cache:          make(map[string]ports.Reranker),
	}
}

func (r *Registry) Reranker(provider, model string, topN int) (ports.Reranker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s/%s/%d", provider, model, topN)
	if client, ok := r.cache[key]; ok {
		return client, nil
	}

	var client ports.Reranker
	switch provider {
	case domain.RerankerCohere:
		if r.cohereKey == "" {
			return nil, domain.WrapError(domain.ErrRerankProvider, "resolve reranker",
				fmt.Errorf("cohere api key not configured"))
		}
		client = NewCohereReranker(r.cohereURL, r.cohereKey, model, topN)
	case domain.RerankerHuggingFace:
		if r.huggingFaceURL == "" {
			return nil, domain.WrapError(domain.ErrRerankProvider, "resolve reranker",
				fmt.Errorf("huggingface rerank endpoint not configured"))
		}
		client = NewHuggingFaceReranker(r.huggingFaceURL, topN)
	default:
		return nil, domain.WrapError(domain.ErrRerankProvider, "resolve reranker",
			fmt.Errorf("unknown rerank provider %q", provider))
	}

	r.cache[key] = client
	return client, nil
}
