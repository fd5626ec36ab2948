// Package localembed is the in-process fallback embedder: a hashed
// bag-of-words projection. Not semantically deep, but deterministic,
// free and offline, which keeps ingestion and search functional when no
// external provider is configured.
package localembed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/adipk/ragdocs/internal/config"
)

type Embedder struct {
	dim int
}

func New() *Embedder {
	return &Embedder{dim: config.EmbeddingDimension}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.dim]++
	}
	l2normalize(vec)
	return vec, nil
}

func (e *Embedder) ModelName() string {
	return config.LocalEmbeddingModel
}

func (e *Embedder) Dimension() int {
	return e.dim
}

func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
