package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// CohereReranker scores documents with the cohere rerank API. Results
// come back best-first; the API truncates to top_n server-side.
type CohereReranker struct {
	baseURL    string
	apiKey     string
	model      string
	topN       int
	httpClient *http.Client
}

func NewCohereReranker(baseURL, apiKey, model string, topN int) *CohereReranker {
	if baseURL == "" {
		baseURL = "https://api.cohere.com"
	}
	return &CohereReranker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		topN:       topN,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *CohereReranker) Rerank(
	ctx context.Context,
	query string,
	documents []domain.RetrievedDocument,
	topN int,
) ([]domain.RetrievedDocument, error) {
	if len(documents) == 0 {
		return documents, nil
	}
	if topN <= 0 {
		topN = r.topN
	}

	texts := make([]string, 0, len(documents))
	for _, doc := range documents {
		texts = append(texts, doc.Content)
	}

	reqBody := map[string]any{
		"model":     r.model,
		"query":     query,
		"documents": texts,
		"top_n":     topN,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v2/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cohere rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("cohere rerank status: %s: %s", resp.Status, strings.TrimSpace(string(responseBody)))
	}

	var rerankResp struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	out := make([]domain.RetrievedDocument, 0, len(rerankResp.Results))
	for _, result := range rerankResp.Results {
		if result.Index < 0 || result.Index >= len(documents) {
			return nil, fmt.Errorf("cohere rerank: result index %d out of range", result.Index)
		}
		out = append(out, documents[result.Index].WithRelevanceScore(result.RelevanceScore))
	}
	return out, nil
}
