// Package rag orchestrates the two long flows of the service: turning an
// uploaded file into indexed, embedded chunks, and answering a question
// grounded in the chunks retrieved for it.
package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/data/cache"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/metrics"
	"github.com/adipk/ragdocs/internal/rag/chunker"
	"github.com/adipk/ragdocs/internal/rag/embedding"
	"github.com/adipk/ragdocs/internal/rag/llm"
	"github.com/adipk/ragdocs/internal/rag/search"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/google/uuid"
)

// Service is what the worker and the HTTP layer call. They don't need to
// know about extraction, embedding providers or the completion model.
type Service interface {
	ProcessDocument(ctx context.Context, documentID string) error
	Answer(ctx context.Context, question string, documentIDs []string, topK int) (docmodel.QueryResult, error)
}

type service struct {
	store     docmodel.Store
	pipeline  *embedding.Pipeline
	searcher  *search.Searcher
	completer llm.Completer
	answers   cache.AnswerCache
	logger    *logx.Logger
}

func NewService(store docmodel.Store, pipeline *embedding.Pipeline, searcher *search.Searcher, completer llm.Completer, answers cache.AnswerCache) Service {
	return &service{
		store:     store,
		pipeline:  pipeline,
		searcher:  searcher,
		completer: completer,
		answers:   answers,
		logger:    logx.New("rag_service"),
	}
}

// ProcessDocument runs the full pipeline for one document: claim the
// processing lease, wipe any previous index, extract, chunk, embed, then
// mark INDEXED. Any stage failing marks the document FAILED with the
// stage recorded in metadata, so a reader of the document row can tell
// where the run died.
func (s *service) ProcessDocument(ctx context.Context, documentID string) error {
	log := s.logger.With("documentId", documentID)

	doc, err := s.store.ClaimDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("claiming document %s: %w", documentID, err)
	}
	log.Info("Processing document", "fileName", doc.FileName)

	// a reindex starts clean: stale chunks and their vectors go first
	removed, err := s.store.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return s.markFailed(ctx, doc, "reset", err)
	}
	if removed > 0 {
		log.Info("Cleared previous index", "chunksRemoved", removed)
	}

	text, extractMeta := s.executeExtractionStep(doc)
	if errMsg, failed := extractMeta["error"]; failed {
		return s.markFailed(ctx, doc, "extract", fmt.Errorf("%v", errMsg))
	}

	if err := s.persistExtractionMetadata(ctx, doc, extractMeta); err != nil {
		return s.markFailed(ctx, doc, "extract", err)
	}

	chunkIDs, err := s.executeChunkingStep(ctx, doc, text, extractMeta)
	if err != nil {
		return s.markFailed(ctx, doc, "chunk", err)
	}
	log.Info("Document chunked", "chunkCount", len(chunkIDs))

	if err := s.executeEmbeddingStep(ctx, chunkIDs); err != nil {
		return s.markFailed(ctx, doc, "embed", err)
	}

	return s.markIndexed(ctx, doc, len(chunkIDs))
}

// Answer retrieves the chunks most similar to the question and asks the
// completion model to answer from them alone. Retrieval and completion
// failures degrade to canned answers rather than surfacing as errors;
// only a broken store propagates.
func (s *service) Answer(ctx context.Context, question string, documentIDs []string, topK int) (docmodel.QueryResult, error) {
	topK = normalizeTopK(topK)
	key := cache.Key(question, documentIDs, topK)

	if cached, found := s.executeCacheCheckStep(ctx, key); found {
		s.logger.Debug("Answer served from cache", "key", key)
		return cached, nil
	}

	matches, err := s.searcher.Search(ctx, question, documentIDs, topK)
	if err != nil {
		return docmodel.QueryResult{}, fmt.Errorf("retrieving context: %w", err)
	}
	if len(matches) == 0 {
		return docmodel.QueryResult{
			Answer:  config.NoContextAnswer,
			Context: []docmodel.SearchResult{},
		}, nil
	}

	answer, err := s.executeCompletionStep(ctx, question, matches)
	result := docmodel.QueryResult{Answer: answer, Context: matches}
	if err != nil {
		s.logger.Error("Completion failed, returning fallback answer", "error", err)
		result.Answer = config.CompletionErrorAnswer
		return result, nil
	}

	// cache in the background; a failed write only costs a future miss
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.answers.Put(cacheCtx, key, result); err != nil {
			s.logger.Error("Failed to cache answer", "error", err)
		}
	}()

	return result, nil
}

func (s *service) persistExtractionMetadata(ctx context.Context, doc *docmodel.Document, extractMeta docmodel.Metadata) error {
	persisted := doc.DocMetadata.Merge(extractMeta)
	// per-page texts are a chunking aid, not worth duplicating in the row
	delete(persisted, "pages")

	doc.DocMetadata = persisted
	doc.UpdatedAt = time.Now().UTC()
	return s.store.UpdateDocument(ctx, doc)
}

func (s *service) executeChunkingStep(ctx context.Context, doc *docmodel.Document, text string, extractMeta docmodel.Metadata) ([]string, error) {
	start := time.Now()
	defer func() { metrics.CaptureStageLatency("chunking", time.Since(start)) }()

	segments := chunker.Split(text, extractMeta, config.ChunkSize, config.ChunkOverlap)
	if len(segments) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	chunks := make([]docmodel.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, docmodel.Chunk{
			Id:            uuid.New().String(),
			DocumentId:    doc.Id,
			Content:       seg.Content,
			ChunkIndex:    i,
			PageNumber:    seg.PageNumber,
			ChunkMetadata: seg.Metadata,
			CreatedAt:     now,
		})
	}

	if err := s.store.CreateChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("persisting chunks: %w", err)
	}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.Id
	}
	return ids, nil
}

func (s *service) executeEmbeddingStep(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	return s.pipeline.EmbedAll(ctx, chunkIDs)
}

func (s *service) markIndexed(ctx context.Context, doc *docmodel.Document, chunkCount int) error {
	doc.Status = docmodel.StatusIndexed
	doc.DocMetadata = doc.DocMetadata.Merge(docmodel.Metadata{"chunk_count": chunkCount})
	doc.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("marking document indexed: %w", err)
	}
	metrics.CaptureDocumentProcessed(string(docmodel.StatusIndexed))
	s.logger.Info("Document indexed", "documentId", doc.Id, "chunkCount", chunkCount)
	return nil
}

func (s *service) markFailed(ctx context.Context, doc *docmodel.Document, stage string, cause error) error {
	s.logger.Error("Document processing failed", "documentId", doc.Id, "stage", stage, "error", cause)

	doc.Status = docmodel.StatusFailed
	doc.DocMetadata = doc.DocMetadata.Merge(docmodel.Metadata{
		"error":        cause.Error(),
		"failed_stage": stage,
		"error_time":   time.Now().UTC().Format(time.RFC3339),
	})
	doc.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		s.logger.Error("Could not record failure state", "documentId", doc.Id, "error", err)
	}
	metrics.CaptureDocumentProcessed(string(docmodel.StatusFailed))
	return fmt.Errorf("processing document %s at stage %s: %w", doc.Id, stage, cause)
}

func normalizeTopK(topK int) int {
	if topK < config.MinTopK {
		return config.DefaultTopK
	}
	if topK > config.MaxTopK {
		return config.MaxTopK
	}
	return topK
}
