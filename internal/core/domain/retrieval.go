package domain

// SearchMode selects how the vector index scores a query.
type SearchMode string

const (
	SearchDense  SearchMode = "dense"
	SearchHybrid SearchMode = "hybrid"
)

// Reranker providers supported by the pipeline.
const (
	RerankerCohere      = "cohere"
	RerankerHuggingFace = "huggingface"
)

// RetrievalConfig holds the per-request retrieval parameters. It is owned
// by the caller and immutable for the duration of one Retrieve call.
type RetrievalConfig struct {
	HybridSearch bool   `json:"hybrid_search" yaml:"hybrid_search"`
	TopK         int    `json:"top_k" yaml:"top_k"`
	UseHyde      bool   `json:"use_hyde" yaml:"use_hyde"`
	HydePrompt   string `json:"hyde_prompt,omitempty" yaml:"hyde_prompt"`

	Reranking        bool   `json:"reranking" yaml:"reranking"`
	RerankerProvider string `json:"reranker_provider,omitempty" yaml:"reranker_provider"`
	RerankerModel    string `json:"reranker_model,omitempty" yaml:"reranker_model"`
	TopN             int    `json:"top_n,omitempty" yaml:"top_n"`

	// LLM used for HyDE rewriting.
	LLMModel    string `json:"llm_model,omitempty" yaml:"llm_model"`
	LLMProvider string `json:"llm_provider,omitempty" yaml:"llm_provider"`
}

// Mode maps the hybrid flag onto the index search mode.
func (c RetrievalConfig) Mode() SearchMode {
	if c.HybridSearch {
		return SearchHybrid
	}
	return SearchDense
}

// EffectiveTopK returns TopK with the upstream default applied.
func (c RetrievalConfig) EffectiveTopK() int {
	if c.TopK <= 0 {
		return 10
	}
	return c.TopK
}

// EffectiveTopN returns the rerank truncation size, defaulting to half of
// top_k but never below one.
func (c RetrievalConfig) EffectiveTopN() int {
	if c.TopN > 0 {
		return c.TopN
	}
	topN := c.EffectiveTopK() / 2
	if topN < 1 {
		topN = 1
	}
	return topN
}
