package domain

// AnswerMetadata is observability data attached to every answer.
type AnswerMetadata struct {
	RetrievedDocs int    `json:"retrieved_docs_count"`
	LLMModel      string `json:"llm_model"`

	// DroppedCitations counts chunk indices the model cited that did not
	// exist in the retrieved set (precise citation mode only).
	DroppedCitations int `json:"dropped_citations,omitempty"`
}

// Answer is the final output of one pipeline execution.
type Answer struct {
	Answer   string         `json:"answer"`
	Sources  []Source       `json:"sources"`
	Contexts []string       `json:"contexts"`
	Metadata AnswerMetadata `json:"metadata"`
}

// StreamResult is the terminal element of a generation stream. In
// standard mode it carries the source URLs and contexts for the tokens
// already streamed; in precise citation mode it carries the complete
// answer instead, since tokens cannot be streamed there.
type StreamResult struct {
	SourceURLs []string `json:"source_urls,omitempty"`
	Contexts   []string `json:"contexts,omitempty"`
	Result     *Answer  `json:"result,omitempty"`
}

// StreamChunk is one element of a generation stream: either a text token
// or the final result, never both. Consumers branch on IsToken instead of
// sniffing element types.
type StreamChunk struct {
	Token string
	Final *StreamResult
}

func (c StreamChunk) IsToken() bool { return c.Final == nil }

// TokenChunk wraps a streamed token.
func TokenChunk(token string) StreamChunk { return StreamChunk{Token: token} }

// FinalChunk wraps the terminal stream element.
func FinalChunk(result StreamResult) StreamChunk { return StreamChunk{Final: &result} }
