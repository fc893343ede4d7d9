// Package similarity ranks stored vectors against a query by cosine similarity.
// It backs the exact-scan vector stores (sqlite, memory).
package similarity

import (
	"container/heap"
	"math"
	"sort"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b, or 0 if either is a zero
// vector. The vectors must have equal length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK keeps the k highest-scoring chunks seen so far.
type TopK struct {
	k int
	h minHeap
}

// NewTopK returns a collector for at most k results.
func NewTopK(k int) *TopK {
	return &TopK{k: k, h: make(minHeap, 0, k)}
}

// Push offers a candidate.
func (t *TopK) Push(c domain.RetrievedChunk) {
	if t.k <= 0 {
		return
	}
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if better(c, t.h[0]) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// Results returns the collected chunks, nearest first. Ties are broken by id
// so results are stable across runs.
func (t *TopK) Results() []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(t.h))
	copy(out, t.h)
	sort.Slice(out, func(i, j int) bool { return better(out[i], out[j]) })
	return out
}

func better(a, b domain.RetrievedChunk) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// minHeap keeps the worst candidate at the root.
type minHeap []domain.RetrievedChunk

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(domain.RetrievedChunk)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
