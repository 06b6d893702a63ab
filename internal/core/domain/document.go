package domain

// Metadata keys attached to chunks at ingestion time and read back at
// retrieval time.
const (
	MetaSourceURL      = "source_url"
	MetaTitle          = "title"
	MetaCollectionName = "collection_name"
	MetaSourceCategory = "source_category"
	MetaContentHash    = "content_hash"
	MetaRelevanceScore = "relevance_score"
)

// RetrievedDocument is an ephemeral, read-only view over an indexed chunk.
// The reranker attaches a relevance score by returning a copy; nothing
// mutates a document in place once it entered the pipeline.
type RetrievedDocument struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (d RetrievedDocument) metaString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// Title returns the document title used when formatting prompt context.
func (d RetrievedDocument) Title() string {
	if title := d.metaString(MetaTitle); title != "" {
		return title
	}
	return "Document"
}

// SourceURL returns the citation URL for the chunk.
func (d RetrievedDocument) SourceURL() string {
	if url := d.metaString(MetaSourceURL); url != "" {
		return url
	}
	return "Unknown source"
}

// RelevanceScore reports the reranker score, if the document passed
// through a reranking stage.
func (d RetrievedDocument) RelevanceScore() (float64, bool) {
	if d.Metadata == nil {
		return 0, false
	}
	switch v := d.Metadata[MetaRelevanceScore].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

// WithRelevanceScore returns a copy of the document with the reranker
// score attached. The receiver's metadata map is not modified.
func (d RetrievedDocument) WithRelevanceScore(score float64) RetrievedDocument {
	meta := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	meta[MetaRelevanceScore] = score
	return RetrievedDocument{Content: d.Content, Metadata: meta}
}

// SourceMetadata carries collection attribution for a source entry.
type SourceMetadata struct {
	CollectionName string `json:"collection_name,omitempty"`
}

// Source is one citation entry in an answer. Score is nil (and omitted
// from JSON) for documents that never passed through the reranker.
type Source struct {
	URL      string         `json:"url"`
	Score    *float64       `json:"score,omitempty"`
	Metadata SourceMetadata `json:"metadata"`
}

// SparseVector is a BM25-style weighted-term vector in Qdrant's sparse
// index format.
type SparseVector struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}
