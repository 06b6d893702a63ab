package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/mkravets/rag-assistant/internal/core/domain"
)

const (
	bm25K          = 1.2
	maxSparseTerms = 256
)

// BM25Encoder builds a hashed bag-of-words sparse vector with BM25-style
// term-frequency saturation. It runs in process; documents and queries
// only need matching term hashes, not a shared vocabulary file.
type BM25Encoder struct{}

func NewBM25Encoder() *BM25Encoder {
	return &BM25Encoder{}
}

func (e *BM25Encoder) EmbedSparse(_ context.Context, text string) (domain.SparseVector, error) {
	termFreq := make(map[uint32]float64, 64)
	for _, token := range tokenizeAlphaNum(text) {
		termFreq[hashToken(token)]++
	}
	return termFreqToSparse(termFreq), nil
}

func termFreqToSparse(tf map[uint32]float64) domain.SparseVector {
	if len(tf) == 0 {
		return domain.SparseVector{}
	}
	indices := make([]uint32, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	if len(indices) > maxSparseTerms {
		indices = indices[:maxSparseTerms]
	}

	values := make([]float32, 0, len(indices))
	for _, idx := range indices {
		tfValue := tf[idx]
		weight := (tfValue * (bm25K + 1.0)) / (tfValue + bm25K)
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		values = append(values, float32(weight))
	}

	return domain.SparseVector{Indices: indices, Values: values}
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum32()
	if sum == 0 {
		return 1
	}
	return sum
}

func tokenizeAlphaNum(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
