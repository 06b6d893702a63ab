package domain

// GenerationMode selects between plain answering and the structured
// precise-citation contract. Precise citation cannot stream tokens: the
// structured parse needs the complete model output, so the streaming path
// emits exactly one final chunk in that mode.
type GenerationMode string

const (
	ModeStandard        GenerationMode = "standard"
	ModePreciseCitation GenerationMode = "precise_citation"
)

// GenerationConfig holds the per-request generation parameters. Prompt
// templates use {context}, {context_with_indices} and {question}
// placeholders; empty templates fall back to the built-in defaults.
type GenerationConfig struct {
	LLMModel    string `json:"llm_model" yaml:"llm_model"`
	LLMProvider string `json:"llm_provider" yaml:"llm_provider"`

	Mode GenerationMode `json:"mode,omitempty" yaml:"mode"`

	SystemPrompt string `json:"system_prompt,omitempty" yaml:"system_prompt"`
	UserPrompt   string `json:"user_prompt,omitempty" yaml:"user_prompt"`

	PreciseCitationSystemPrompt string `json:"precise_citation_system_prompt,omitempty" yaml:"precise_citation_system_prompt"`
	PreciseCitationUserPrompt   string `json:"precise_citation_user_prompt,omitempty" yaml:"precise_citation_user_prompt"`

	// Reranking mirrors the retrieval setting: when no reranking stage
	// ran, sources without a relevance score are still surfaced.
	Reranking bool `json:"reranking" yaml:"reranking"`
}

// EffectiveMode treats an unset mode as standard.
func (c GenerationConfig) EffectiveMode() GenerationMode {
	if c.Mode == ModePreciseCitation {
		return ModePreciseCitation
	}
	return ModeStandard
}

// CitedAnswer is the structured output the LLM must produce in precise
// citation mode. Indices are 0-based positions into the retrieved
// document list and are validated by the pipeline, never trusted.
type CitedAnswer struct {
	Answer           string `json:"answer"`
	UsedChunkIndices []int  `json:"used_chunk_indices"`
}
