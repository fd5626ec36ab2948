package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/metrics"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/google/uuid"
)

// Pipeline embeds chunks in fixed-size batches and persists the vectors.
// A single chunk failing to embed degrades to a zero vector, which just
// ranks poorly in search; a batch failing to persist is fatal because
// the store is no longer trustworthy.
type Pipeline struct {
	store     docmodel.Store
	embedder  Embedder
	batchSize int
	delay     time.Duration
	logger    *logx.Logger
}

func NewPipeline(store docmodel.Store, embedder Embedder) *Pipeline {
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		batchSize: config.EmbeddingBatchSize,
		delay:     config.EmbeddingBatchDelay,
		logger:    logx.New("embedding_pipeline"),
	}
}

func (p *Pipeline) EmbedAll(ctx context.Context, chunkIDs []string) error {
	for i := 0; i < len(chunkIDs); i += p.batchSize {
		end := i + p.batchSize
		if end > len(chunkIDs) {
			end = len(chunkIDs)
		}

		if err := p.embedBatch(ctx, chunkIDs[i:end]); err != nil {
			return err
		}

		// throttle between batches; the last one runs free
		if end < len(chunkIDs) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay):
			}
		}
	}
	return nil
}

func (p *Pipeline) embedBatch(ctx context.Context, batchIDs []string) error {
	start := time.Now()
	defer func() { metrics.CaptureStageLatency("embedding_batch", time.Since(start)) }()

	chunks, err := p.store.GetChunksByIDs(ctx, batchIDs)
	if err != nil {
		return fmt.Errorf("loading chunk batch: %w", err)
	}

	rows := make([]docmodel.Embedding, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := p.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			p.logger.Error("Embedding failed, degrading to zero vector",
				"chunkId", chunk.Id, "error", err)
			metrics.IncrementDegradedEmbeddings()
			vec = make([]float32, p.embedder.Dimension())
		}
		rows = append(rows, docmodel.Embedding{
			Id:        uuid.New().String(),
			ChunkId:   chunk.Id,
			Vector:    vec,
			ModelName: p.embedder.ModelName(),
			Dimension: len(vec),
			CreatedAt: time.Now().UTC(),
		})
	}

	if err := p.store.SaveEmbeddings(ctx, rows); err != nil {
		return fmt.Errorf("persisting embedding batch: %w", err)
	}
	return nil
}
