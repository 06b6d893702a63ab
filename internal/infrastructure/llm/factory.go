package llm

import (
	"fmt"
	"sync"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
	"github.com/mkravets/rag-assistant/internal/infrastructure/llm/ollama"
	"github.com/mkravets/rag-assistant/internal/infrastructure/llm/openai"
	"github.com/mkravets/rag-assistant/internal/infrastructure/resilience"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Factory hands out chat model clients by (model, provider), memoized so
// every use case shares one client per pair.
type Factory struct {
	ollamaURL       string
	openaiURL       string
	openaiKey       string
	defaultModel    string
	defaultProvider string
	executor        *resilience.Executor

	mu    sync.Mutex
	cache map[string]ports.ChatModel
}

func NewFactory(ollamaURL, openaiURL, openaiKey, defaultModel, defaultProvider string, executor *resilience.Executor) *Factory {
	if defaultProvider == "" {
		defaultProvider = ProviderOllama
	}
	return &Factory{
		ollamaURL:       ollamaURL,
		openaiURL:       openaiURL,
		openaiKey:       openaiKey,
		defaultModel:    defaultModel,
		defaultProvider: defaultProvider,
		executor:        executor,
		cache:           make(map[string]ports.ChatModel),
	}
}

func (f *Factory) ChatModel(model, provider string) (ports.ChatModel, error) {
	if model == "" {
		model = f.defaultModel
	}
	if provider == "" {
		provider = f.defaultProvider
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := provider + "/" + model
	if client, ok := f.cache[key]; ok {
		return client, nil
	}

	var client ports.ChatModel
	switch provider {
	case ProviderOllama:
		client = ollama.New(f.ollamaURL, model, f.executor)
	case ProviderOpenAI:
		client = openai.New(f.openaiURL, f.openaiKey, model)
	default:
		return nil, domain.WrapError(domain.ErrUnsupportedModel, "resolve chat model",
			fmt.Errorf("unknown llm provider %q", provider))
	}

	f.cache[key] = client
	return client, nil
}
