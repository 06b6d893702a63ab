package domain

import "time"

// Distance metric names accepted by collection configuration. The
// human-readable spelling is what the configuration UI stores.
const (
	DistanceCosine    = "Cosine similarity"
	DistanceDot       = "Dot product"
	DistanceEuclidean = "Euclidean distance"
	DistanceManhattan = "Manhattan distance"
)

// CollectionConfig is the stored configuration of one knowledge-base
// collection.
type CollectionConfig struct {
	Name                string    `json:"name"`
	ChunkSize           int       `json:"chunk_size"`
	ChunkOverlap        int       `json:"chunk_overlap"`
	DenseEmbeddingModel string    `json:"dense_embedding_model"`
	DistanceMetric      string    `json:"distance_metric"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Raw document source categories.
const (
	SourceCategoryWebsite = "website"
	SourceCategoryFile    = "file"
)

// RawDocument is ingested content before chunking: one crawled page or
// one parsed file, kept in the document store so collections can be
// re-chunked with new parameters.
type RawDocument struct {
	ID             string    `json:"id"`
	CollectionName string    `json:"collection_name"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	SourceCategory string    `json:"source_category"`
	CreatedAt      time.Time `json:"created_at"`
}

// AssistantConfig is a named assistant preset: which knowledge bases it
// answers from and how it retrieves and generates.
type AssistantConfig struct {
	Name             string           `json:"name" yaml:"name"`
	KnowledgeBaseIDs []string         `json:"knowledge_base_ids" yaml:"knowledge_base_ids"`
	Retrieval        RetrievalConfig  `json:"retrieval" yaml:"retrieval"`
	Generation       GenerationConfig `json:"generation" yaml:"generation"`
}
