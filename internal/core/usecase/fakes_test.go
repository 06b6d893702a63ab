package usecase

import (
	"context"
	"strings"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

type collectionStoreFake struct {
	cfg      *domain.CollectionConfig
	err      error
	getCalls int
}

func (f *collectionStoreFake) CreateCollection(context.Context, *domain.CollectionConfig) error {
	return nil
}

func (f *collectionStoreFake) GetCollection(_ context.Context, name string) (*domain.CollectionConfig, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg != nil {
		return f.cfg, nil
	}
	return &domain.CollectionConfig{
		Name:                name,
		ChunkSize:           1000,
		ChunkOverlap:        100,
		DenseEmbeddingModel: "jina/jina-embeddings-v2-base-de",
		DistanceMetric:      domain.DistanceCosine,
	}, nil
}

func (f *collectionStoreFake) ListCollections(context.Context) ([]domain.CollectionConfig, error) {
	return nil, nil
}

func (f *collectionStoreFake) UpdateChunking(context.Context, string, int, int) error { return nil }
func (f *collectionStoreFake) DeleteCollection(context.Context, string) error         { return nil }

type registryFake struct {
	err error
}

func (f *registryFake) GetEmbeddingConfig(string) (ports.EmbeddingConfig, error) {
	if f.err != nil {
		return ports.EmbeddingConfig{}, f.err
	}
	return ports.EmbeddingConfig{Dimension: 768}, nil
}

func (f *registryFake) Dimension(string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return 768, nil
}

type vectorIndexFake struct {
	documents []domain.RetrievedDocument
	searchErr error

	searchCalls      int
	searchCollection string
	searchQuery      string
	searchK          int
	searchMode       domain.SearchMode

	storedChunks []domain.RetrievedDocument
	storedIDs    []string
	existing     map[string]bool

	createErr        error
	createCollection string

	deletedURLs []string
}

func (f *vectorIndexFake) CreateCollection(_ context.Context, name string, _ int, _ string) error {
	f.createCollection = name
	return f.createErr
}

func (f *vectorIndexFake) DeleteCollection(context.Context, string) error { return nil }

func (f *vectorIndexFake) Store(_ context.Context, _ string, chunks []domain.RetrievedDocument, ids []string, _ ports.EmbeddingConfig, _ int) (int, error) {
	f.storedChunks = append(f.storedChunks, chunks...)
	f.storedIDs = append(f.storedIDs, ids...)
	return len(chunks), nil
}

func (f *vectorIndexFake) Search(_ context.Context, collection, query string, k int, mode domain.SearchMode, _ ports.EmbeddingConfig) ([]domain.RetrievedDocument, error) {
	f.searchCalls++
	f.searchCollection = collection
	f.searchQuery = query
	f.searchK = k
	f.searchMode = mode
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.documents) {
		return f.documents[:k], nil
	}
	return f.documents, nil
}

func (f *vectorIndexFake) DeleteBySourceURLs(_ context.Context, _ string, urls []string) error {
	f.deletedURLs = append(f.deletedURLs, urls...)
	return nil
}

func (f *vectorIndexFake) ExistingContentHashes(_ context.Context, _ string, hashes []string) (map[string]bool, error) {
	out := make(map[string]bool, len(hashes))
	for _, hash := range hashes {
		if f.existing[hash] {
			out[hash] = true
		}
	}
	return out, nil
}

type chatModelFake struct {
	completeText string
	completeErr  error

	jsonText string
	jsonErr  error

	streamTokens []string
	streamErr    error

	lastPrompt string
}

func (f *chatModelFake) Complete(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completeText, nil
}

func (f *chatModelFake) CompleteJSON(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	return f.jsonText, nil
}

func (f *chatModelFake) CompleteStream(_ context.Context, prompt string, onToken func(string) error) error {
	f.lastPrompt = prompt
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, token := range f.streamTokens {
		if err := onToken(token); err != nil {
			return err
		}
	}
	return nil
}

type llmFactoryFake struct {
	model *chatModelFake
	err   error
}

func (f *llmFactoryFake) ChatModel(string, string) (ports.ChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

// rerankerFake keeps the documents at the given input positions, in
// order, attaching the paired scores.
type rerankerFake struct {
	keep   []int
	scores []float64
	err    error
}

func (f *rerankerFake) Rerank(_ context.Context, _ string, documents []domain.RetrievedDocument, topN int) ([]domain.RetrievedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.RetrievedDocument, 0, len(f.keep))
	for i, idx := range f.keep {
		if idx >= len(documents) || len(out) >= topN {
			break
		}
		out = append(out, documents[idx].WithRelevanceScore(f.scores[i]))
	}
	return out, nil
}

type rerankerFactoryFake struct {
	reranker ports.Reranker
	err      error
}

func (f *rerankerFactoryFake) Reranker(string, string, int) (ports.Reranker, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.reranker, nil
}

type chunkerFake struct {
	separator string
}

func (f *chunkerFake) Split(text string) []string {
	sep := f.separator
	if sep == "" {
		sep = "|"
	}
	parts := strings.Split(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishCollectionIndex(_ context.Context, collection string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, collection)
	return nil
}

func (f *queueFake) SubscribeCollectionIndex(context.Context, func(context.Context, string) error) error {
	return nil
}

type rawDocumentStoreFake struct {
	documents   []domain.RawDocument
	deleted     []string
	deletedURLs []string
}

func (f *rawDocumentStoreFake) Insert(_ context.Context, doc *domain.RawDocument) error {
	f.documents = append(f.documents, *doc)
	return nil
}

func (f *rawDocumentStoreFake) ListByCollection(_ context.Context, collection string) ([]domain.RawDocument, error) {
	var out []domain.RawDocument
	for _, doc := range f.documents {
		if doc.CollectionName == collection {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (f *rawDocumentStoreFake) DeleteByURL(_ context.Context, _ string, url string) error {
	f.deletedURLs = append(f.deletedURLs, url)
	return nil
}

func (f *rawDocumentStoreFake) DeleteByCollection(_ context.Context, collection string) error {
	f.deleted = append(f.deleted, collection)
	return nil
}

func fixedDocuments(n int) []domain.RetrievedDocument {
	docs := make([]domain.RetrievedDocument, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, domain.RetrievedDocument{
			Content: "chunk " + string(rune('a'+i)),
			Metadata: map[string]any{
				domain.MetaSourceURL:      "https://example.com/" + string(rune('a'+i)),
				domain.MetaTitle:          "Doc " + string(rune('A'+i)),
				domain.MetaCollectionName: "kb-1",
			},
		})
	}
	return docs
}
