package embedding

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type modelSpec struct {
	provider  string
	dimension int
}

// supportedModels is the static table of embedding models the pipeline
// can run against. Collections reference these by name.
var supportedModels = map[string]modelSpec{
	"jina/jina-embeddings-v2-base-de": {provider: ProviderOllama, dimension: 768},
	"text-embedding-3-small":          {provider: ProviderOpenAI, dimension: 1536},
	"text-embedding-3-large":          {provider: ProviderOpenAI, dimension: 3072},
}

// Registry resolves embedding model names to ready-to-use embedder
// clients. Resolved configs are memoized so repeated lookups share one
// HTTP client per model.
type Registry struct {
	ollamaURL  string
	openaiURL  string
	openaiKey  string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]ports.EmbeddingConfig
}

func NewRegistry(ollamaURL, openaiURL, openaiKey string) *Registry {
	return &Registry{
		ollamaURL:  ollamaURL,
		openaiURL:  openaiURL,
		openaiKey:  openaiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cache:      make(map[string]ports.EmbeddingConfig),
	}
}

func (r *Registry) GetEmbeddingConfig(modelName string) (ports.EmbeddingConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.cache[modelName]; ok {
		return cfg, nil
	}

	spec, ok := supportedModels[modelName]
	if !ok {
		return ports.EmbeddingConfig{}, domain.WrapError(domain.ErrUnsupportedModel, "resolve embedding model",
			fmt.Errorf("unknown embedding model %q", modelName))
	}

	var dense ports.DenseEmbedder
	switch spec.provider {
	case ProviderOllama:
		dense = NewOllamaEmbedder(r.ollamaURL, modelName, r.httpClient)
	case ProviderOpenAI:
		dense = NewOpenAIEmbedder(r.openaiURL, r.openaiKey, modelName, r.httpClient)
	default:
		return ports.EmbeddingConfig{}, domain.WrapError(domain.ErrUnsupportedModel, "resolve embedding model",
			fmt.Errorf("unknown embedding provider %q", spec.provider))
	}

	cfg := ports.EmbeddingConfig{
		Dense:     dense,
		Sparse:    NewBM25Encoder(),
		Dimension: spec.dimension,
	}
	r.cache[modelName] = cfg
	return cfg, nil
}

func (r *Registry) Dimension(modelName string) (int, error) {
	spec, ok := supportedModels[modelName]
	if !ok {
		return 0, domain.WrapError(domain.ErrUnsupportedModel, "resolve embedding model",
			fmt.Errorf("unknown embedding model %q", modelName))
	}
	return spec.dimension, nil
}
