// Package randomembed is the last-resort placeholder provider. Vectors
// are random noise; retrieval quality is meaningless but every pipeline
// stage still runs end to end.
package randomembed

import (
	"context"
	"math/rand"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/pkg/logx"
)

type Embedder struct {
	dim int
}

func New() *Embedder {
	logx.New("random_embedding").Warn("Using random placeholder embeddings - configure a real provider for production")
	return &Embedder{dim: config.EmbeddingDimension}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for i := range vec {
		vec[i] = float32(rand.NormFloat64())
	}
	return vec, nil
}

func (e *Embedder) ModelName() string {
	return config.RandomEmbeddingModel
}

func (e *Embedder) Dimension() int {
	return e.dim
}
