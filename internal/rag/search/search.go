// Package search ranks stored chunk vectors against a query by cosine
// similarity. The scan is exhaustive by design: at the corpus sizes this
// service targets, a linear pass beats the operational cost of an
// approximate index.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/metrics"
	"github.com/adipk/ragdocs/internal/rag/embedding"
	"github.com/adipk/ragdocs/pkg/logx"
)

type Searcher struct {
	store    docmodel.Store
	embedder embedding.Embedder
	logger   *logx.Logger
}

func NewSearcher(store docmodel.Store, embedder embedding.Embedder) *Searcher {
	return &Searcher{
		store:    store,
		embedder: embedder,
		logger:   logx.New("vector_search"),
	}
}

// Search embeds the query, scores it against every stored vector
// (scoped to documentIDs when given) and returns the topK best matches,
// highest similarity first. An empty corpus yields an empty result.
func (s *Searcher) Search(ctx context.Context, query string, documentIDs []string, topK int) ([]docmodel.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureStageLatency("vector_search", time.Since(start)) }()

	topK = clampTopK(topK)

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	vectors, err := s.store.ListVectors(ctx, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("loading stored vectors: %w", err)
	}
	if len(vectors) == 0 {
		s.logger.Warn("No embeddings found for query", "query", query)
		return nil, nil
	}

	results := make([]docmodel.SearchResult, 0, len(vectors))
	for _, v := range vectors {
		results = append(results, docmodel.SearchResult{
			ChunkId:       v.ChunkId,
			DocumentId:    v.DocumentId,
			DocumentTitle: v.DocumentTitle,
			Content:       v.Content,
			Similarity:    CosineSimilarity(queryVec, v.Vector),
			Metadata: docmodel.Metadata{
				"chunk_index":       v.ChunkIndex,
				"page_number":       v.PageNumber,
				"chunk_metadata":    v.ChunkMetadata,
				"document_metadata": v.DocMetadata,
			},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// HybridSearch is the named extension point for keyword fusion. Until a
// lexical index exists it delegates to the plain similarity scan.
func (s *Searcher) HybridSearch(ctx context.Context, query string, documentIDs []string, topK int) ([]docmodel.SearchResult, error) {
	return s.Search(ctx, query, documentIDs, topK)
}

// CosineSimilarity returns a value in [-1, 1]; mismatched lengths and
// zero vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

func clampTopK(topK int) int {
	if topK < config.MinTopK {
		return config.DefaultTopK
	}
	if topK > config.MaxTopK {
		return config.MaxTopK
	}
	return topK
}
