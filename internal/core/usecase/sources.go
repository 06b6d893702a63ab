package usecase

import (
	"fmt"
	"strings"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

func formatContext(documents []domain.RetrievedDocument) string {
	parts := make([]string, 0, len(documents))
	for _, doc := range documents {
		parts = append(parts, fmt.Sprintf("[Quote from %s] %s", doc.Title(), doc.Content))
	}
	return strings.Join(parts, "\n\n")
}

func formatContextWithIndices(documents []domain.RetrievedDocument) string {
	parts := make([]string, 0, len(documents))
	for i, doc := range documents {
		parts = append(parts, fmt.Sprintf("[Chunk %d]\n%s", i, doc.Content))
	}
	return strings.Join(parts, "\n\n")
}

// extractSources builds the source attribution list. Documents without a
// relevance score are skipped unless includeWithoutScores is set (the
// caller sets it when no reranking stage ran, so absence of a score is
// expected rather than suspicious).
func extractSources(documents []domain.RetrievedDocument, includeWithoutScores bool) []domain.Source {
	sources := make([]domain.Source, 0, len(documents))
	for _, doc := range documents {
		entry := domain.Source{
			URL: doc.SourceURL(),
			Metadata: domain.SourceMetadata{
				CollectionName: collectionName(doc),
			},
		}
		if score, ok := doc.RelevanceScore(); ok {
			entry.Score = &score
			sources = append(sources, entry)
			continue
		}
		if includeWithoutScores {
			sources = append(sources, entry)
		}
	}
	return sources
}

func collectionName(doc domain.RetrievedDocument) string {
	if doc.Metadata == nil {
		return ""
	}
	name, _ := doc.Metadata[domain.MetaCollectionName].(string)
	return name
}

func contextsOf(documents []domain.RetrievedDocument) []string {
	contexts := make([]string, 0, len(documents))
	for _, doc := range documents {
		contexts = append(contexts, doc.Content)
	}
	return contexts
}

func sourceURLsOf(documents []domain.RetrievedDocument) []string {
	urls := make([]string, 0, len(documents))
	for _, doc := range documents {
		urls = append(urls, doc.SourceURL())
	}
	return urls
}

func fillTemplate(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}
