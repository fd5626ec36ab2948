package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/metrics"
	"github.com/adipk/ragdocs/internal/rag/extract"
)

func (s *service) executeExtractionStep(doc *docmodel.Document) (string, docmodel.Metadata) {
	start := time.Now()
	defer func() { metrics.CaptureStageLatency("extraction", time.Since(start)) }()

	return extract.Extract(doc.FilePath, filepath.Ext(doc.FileName))
}

func (s *service) executeCacheCheckStep(ctx context.Context, key string) (docmodel.QueryResult, bool) {
	start := time.Now()
	defer func() { metrics.CaptureStageLatency("cache_lookup", time.Since(start)) }()

	return s.answers.Get(ctx, key)
}

func (s *service) executeCompletionStep(ctx context.Context, question string, matches []docmodel.SearchResult) (string, error) {
	start := time.Now()
	defer func() { metrics.CaptureStageLatency("llm_generation", time.Since(start)) }()

	return s.completer.Complete(ctx, buildPrompt(question, matches))
}

func buildPrompt(question string, matches []docmodel.SearchResult) string {
	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = fmt.Sprintf("CONTEXT %d:\n%s", i+1, m.Content)
	}

	return fmt.Sprintf(`You are an AI assistant that answers questions based on the provided context.
If you don't know the answer or if the context doesn't contain relevant information,
say "I don't have enough information to answer this question."

CONTEXT:
%s

USER QUESTION: %s

Answer the question using ONLY the information provided in the context above.
Be specific and provide a comprehensive answer based strictly on the relevant information in the context.
If the context doesn't contain the answer, simply state that you don't have enough information.
`, strings.Join(blocks, "\n\n"), question)
}
