package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

// HuggingFaceReranker scores query/document pairs against a local
// text-embeddings-inference rerank endpoint. The endpoint returns raw
// cross-encoder scores per pair; ordering and truncation happen here.
type HuggingFaceReranker struct {
	baseURL    string
	topN       int
	httpClient *http.Client
}

func NewHuggingFaceReranker(baseURL string, topN int) *HuggingFaceReranker {
	return &HuggingFaceReranker{
		baseURL:    strings.TrimRight(baseURL, "/"),
		topN:       topN,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HuggingFaceReranker) Rerank(
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
		"query": query,
		"texts": texts,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("huggingface rerank status: %s: %s", resp.Status, strings.TrimSpace(string(responseBody)))
	}

	var results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	type scored struct {
		index int
		score float64
	}
	pairs := make([]scored, 0, len(results))
	needsNormalization := false
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(documents) {
			return nil, fmt.Errorf("huggingface rerank: result index %d out of range", result.Index)
		}
		if result.Score < 0 || result.Score > 1 {
			needsNormalization = true
		}
		pairs = append(pairs, scored{index: result.Index, score: result.Score})
	}

	// Raw cross-encoder logits are squashed into [0, 1] so scores are
	// comparable with the other providers.
	if needsNormalization {
		for i := range pairs {
			pairs[i].score = sigmoid(pairs[i].score)
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })
	if len(pairs) > topN {
		pairs = pairs[:topN]
	}

	out := make([]domain.RetrievedDocument, 0, len(pairs))
	for _, pair := range pairs {
		out = append(out, documents[pair.index].WithRelevanceScore(pair.score))
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
