package domain

import "testing"

func TestEffectiveTopNDefaultsToHalfTopK(t *testing.T) {
	cfg := RetrievalConfig{TopK: 10}
	if got := cfg.EffectiveTopN(); got != 5 {
		t.Fatalf("expected top_n=5, got %d", got)
	}
}

func TestEffectiveTopNNeverBelowOne(t *testing.T) {
	cfg := RetrievalConfig{TopK: 1}
	if got := cfg.EffectiveTopN(); got != 1 {
		t.Fatalf("expected top_n=1, got %d", got)
	}
}

func TestEffectiveTopNPrefersExplicitValue(t *testing.T) {
	cfg := RetrievalConfig{TopK: 10, TopN: 3}
	if got := cfg.EffectiveTopN(); got != 3 {
		t.Fatalf("expected top_n=3, got %d", got)
	}
}

func TestModeFollowsHybridFlag(t *testing.T) {
	if got := (RetrievalConfig{HybridSearch: true}).Mode(); got != SearchHybrid {
		t.Fatalf("expected hybrid mode, got %s", got)
	}
	if got := (RetrievalConfig{}).Mode(); got != SearchDense {
		t.Fatalf("expected dense mode, got %s", got)
	}
}

func TestWithRelevanceScoreDoesNotMutateOriginal(t *testing.T) {
	doc := RetrievedDocument{
		Content:  "text",
		Metadata: map[string]any{MetaSourceURL: "https://example.com"},
	}

	scored := doc.WithRelevanceScore(0.8)

	if _, ok := doc.RelevanceScore(); ok {
		t.Fatalf("original document gained a relevance score")
	}
	score, ok := scored.RelevanceScore()
	if !ok || score != 0.8 {
		t.Fatalf("expected score 0.8 on copy, got %v (ok=%v)", score, ok)
	}
	if scored.SourceURL() != "https://example.com" {
		t.Fatalf("expected metadata carried over, got %s", scored.SourceURL())
	}
}
