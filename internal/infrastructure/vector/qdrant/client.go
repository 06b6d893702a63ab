package qdrant

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
	"github.com/mkravets/rag-assistant/internal/core/ports"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "sparse"

	payloadText = "text"
)

// distanceNames maps the metric names collections are configured with to
// qdrant's distance identifiers.
var distanceNames = map[string]string{
	domain.DistanceCosine:    "Cosine",
	domain.DistanceDot:       "Dot",
	domain.DistanceEuclidean: "Euclid",
	domain.DistanceManhattan: "Manhattan",
}

// Client talks to qdrant over its REST API. Every collection carries a
// named dense vector and a named sparse vector so hybrid search can fuse
// both server-side.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) CreateCollection(ctx context.Context, name string, dimension int, distanceMetric string) error {
	distance, ok := distanceNames[distanceMetric]
	if !ok {
		return domain.WrapError(domain.ErrCollectionConfig, "create collection",
			fmt.Errorf("unknown distance metric %q", distanceMetric))
	}

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     dimension,
				"distance": distance,
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	resp, err := c.do(ctx, http.MethodPut, "/collections/"+name, reqBody)
	if err != nil {
		return fmt.Errorf("qdrant create collection: %w", err)
	}
	defer resp.Body.Close()

	// 409 means the collection already exists; creation is idempotent.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode >= 300 {
		return c.statusError("create collection", resp)
	}
	return nil
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	if err != nil {
		return fmt.Errorf("qdrant delete collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		return c.statusError("delete collection", resp)
	}
	return nil
}

// Store embeds and upserts chunks in batches. Point ids are supplied by
// the caller, paired one-to-one with chunks. Returns the number of
// points written.
func (c *Client) Store(
	ctx context.Context,
	collection string,
	chunks []domain.RetrievedDocument,
	ids []string,
	embedding ports.EmbeddingConfig,
	batchSize int,
) (int, error) {
	if len(chunks) != len(ids) {
		return 0, fmt.Errorf("qdrant store: %d chunks for %d ids", len(chunks), len(ids))
	}
	if batchSize <= 0 {
		batchSize = 10
	}

	stored := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := c.storeBatch(ctx, collection, chunks[start:end], ids[start:end], embedding); err != nil {
			return stored, err
		}
		stored += end - start
	}
	return stored, nil
}

func (c *Client) storeBatch(
	ctx context.Context,
	collection string,
	chunks []domain.RetrievedDocument,
	ids []string,
	embedding ports.EmbeddingConfig,
) error {
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Content)
	}

	dense, err := embedding.Dense.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(dense) != len(chunks) {
		return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(dense), len(chunks))
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		sparse, err := embedding.Sparse.EmbedSparse(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("sparse embed chunk: %w", err)
		}

		payload := map[string]any{payloadText: chunk.Content}
		for key, value := range chunk.Metadata {
			payload[key] = value
		}

		points = append(points, point{
			ID: ids[i],
			Vector: map[string]any{
				denseVectorName: dense[i],
				sparseVectorName: map[string]any{
					"indices": sparse.Indices,
					"values":  sparse.Values,
				},
			},
			Payload: payload,
		})
	}

	resp, err := c.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", map[string]any{"points": points})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.statusError("upsert points", resp)
	}
	return nil
}

// Search embeds the query and runs a dense or hybrid point query. Hybrid
// mode prefetches dense and sparse candidates and lets qdrant fuse them
// with reciprocal rank fusion; result order is the fused ranking.
func (c *Client) Search(
	ctx context.Context,
	collection, query string,
	k int,
	mode domain.SearchMode,
	embedding ports.EmbeddingConfig,
) ([]domain.RetrievedDocument, error) {
	queryVector, err := embedding.Dense.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var reqBody map[string]any
	switch mode {
	case domain.SearchHybrid:
		sparse, err := embedding.Sparse.EmbedSparse(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("sparse embed query: %w", err)
		}
		reqBody = map[string]any{
			"prefetch": []map[string]any{
				{
					"query": queryVector,
					"using": denseVectorName,
					"limit": k,
				},
				{
					"query": map[string]any{
						"indices": sparse.Indices,
						"values":  sparse.Values,
					},
					"using": sparseVectorName,
					"limit": k,
				},
			},
			"query":        map[string]any{"fusion": "rrf"},
			"limit":        k,
			"with_payload": true,
		}
	default:
		reqBody = map[string]any{
			"query":        queryVector,
			"using":        denseVectorName,
			"limit":        k,
			"with_payload": true,
		}
	}

	resp, err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/query", reqBody)
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, c.statusError("query points", resp)
	}

	var queryResp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	out := make([]domain.RetrievedDocument, 0, len(queryResp.Result.Points))
	for _, p := range queryResp.Result.Points {
		out = append(out, pointToDocument(p.Payload))
	}
	return out, nil
}

func (c *Client) DeleteBySourceURLs(ctx context.Context, collection string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   domain.MetaSourceURL,
					"match": map[string]any{"any": urls},
				},
			},
		},
	}

	resp, err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/delete?wait=true", reqBody)
	if err != nil {
		return fmt.Errorf("qdrant delete points: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.statusError("delete points", resp)
	}
	return nil
}

// ExistingContentHashes scrolls the collection for points whose content
// hash matches any of the given hashes and reports which were found.
func (c *Client) ExistingContentHashes(ctx context.Context, collection string, hashes []string) (map[string]bool, error) {
	found := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return found, nil
	}

	var offset any
	for {
		reqBody := map[string]any{
			"filter": map[string]any{
				"must": []map[string]any{
					{
						"key":   domain.MetaContentHash,
						"match": map[string]any{"any": hashes},
					},
				},
			},
			"limit":        256,
			"with_payload": []string{domain.MetaContentHash},
		}
		if offset != nil {
			reqBody["offset"] = offset
		}

		resp, err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/scroll", reqBody)
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll: %w", err)
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if resp.StatusCode >= 300 {
			err := c.statusError("scroll points", resp)
			resp.Body.Close()
			return nil, err
		}
		err = json.NewDecoder(resp.Body).Decode(&scrollResp)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode scroll response: %w", err)
		}

		for _, p := range scrollResp.Result.Points {
			if hash, ok := p.Payload[domain.MetaContentHash].(string); ok {
				found[hash] = true
			}
		}
		if scrollResp.Result.NextPageOffset == nil {
			return found, nil
		}
		offset = scrollResp.Result.NextPageOffset
	}
}

func pointToDocument(payload map[string]any) domain.RetrievedDocument {
	content, _ := payload[payloadText].(string)
	metadata := make(map[string]any, len(payload))
	for key, value := range payload {
		if key == payloadText {
			continue
		}
		metadata[key] = value
	}
	return domain.RetrievedDocument{Content: content, Metadata: metadata}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// statusError consumes the response body. A 404 means the collection
// does not exist and is surfaced as such rather than as a generic HTTP
// failure.
func (c *Client) statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))

	if resp.StatusCode == http.StatusNotFound {
		return domain.WrapError(domain.ErrCollectionNotFound, "qdrant "+operation,
			fmt.Errorf("status %s: %s", resp.Status, msg))
	}
	if msg == "" {
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
}
