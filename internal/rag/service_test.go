package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/data/cache"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/rag/embedding"
	"github.com/adipk/ragdocs/internal/rag/embedding/localembed"
	"github.com/adipk/ragdocs/internal/rag/search"
)

type mockStore struct {
	docmodel.Store

	ClaimFn        func(ctx context.Context, id string) (*docmodel.Document, error)
	ListVectorsFn  func(ctx context.Context, documentIDs []string) ([]docmodel.StoredVector, error)
	DeleteChunksFn func(ctx context.Context, documentID string) (int, error)

	updatedDocs   []docmodel.Document
	createdChunks []docmodel.Chunk
	savedRows     []docmodel.Embedding
}

func (m *mockStore) ClaimDocument(ctx context.Context, id string) (*docmodel.Document, error) {
	return m.ClaimFn(ctx, id)
}

func (m *mockStore) UpdateDocument(ctx context.Context, doc *docmodel.Document) error {
	m.updatedDocs = append(m.updatedDocs, *doc)
	return nil
}

func (m *mockStore) DeleteChunksByDocument(ctx context.Context, documentID string) (int, error) {
	if m.DeleteChunksFn != nil {
		return m.DeleteChunksFn(ctx, documentID)
	}
	return 0, nil
}

func (m *mockStore) CreateChunks(ctx context.Context, chunks []docmodel.Chunk) error {
	m.createdChunks = append(m.createdChunks, chunks...)
	return nil
}

func (m *mockStore) GetChunksByIDs(ctx context.Context, ids []string) ([]docmodel.Chunk, error) {
	out := make([]docmodel.Chunk, 0, len(ids))
	for _, id := range ids {
		for _, c := range m.createdChunks {
			if c.Id == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (m *mockStore) SaveEmbeddings(ctx context.Context, rows []docmodel.Embedding) error {
	m.savedRows = append(m.savedRows, rows...)
	return nil
}

func (m *mockStore) ListVectors(ctx context.Context, documentIDs []string) ([]docmodel.StoredVector, error) {
	if m.ListVectorsFn != nil {
		return m.ListVectorsFn(ctx, documentIDs)
	}
	return nil, nil
}

type mockCompleter struct {
	called bool
	answer string
	err    error
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.called = true
	return m.answer, m.err
}

func newTestService(store *mockStore, completer *mockCompleter, answers cache.AnswerCache) Service {
	embedder := localembed.New()
	if answers == nil {
		answers = cache.NoopCache{}
	}
	return NewService(store,
		embedding.NewPipeline(store, embedder),
		search.NewSearcher(store, embedder),
		completer,
		answers,
	)
}

func (m *mockStore) lastUpdate(t *testing.T) docmodel.Document {
	t.Helper()
	if len(m.updatedDocs) == 0 {
		t.Fatal("Expected at least one UpdateDocument call")
	}
	return m.updatedDocs[len(m.updatedDocs)-1]
}

func claimedDoc(filePath string) *docmodel.Document {
	return &docmodel.Document{
		Id:       "doc-1",
		Title:    "test doc",
		FileName: filepath.Base(filePath),
		FilePath: filePath,
		Status:   docmodel.StatusProcessing,
	}
}

func TestProcessDocument_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	content := "A small document with a handful of words to index."
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	store := &mockStore{
		ClaimFn: func(ctx context.Context, id string) (*docmodel.Document, error) {
			return claimedDoc(path), nil
		},
	}
	svc := newTestService(store, &mockCompleter{}, nil)

	if err := svc.ProcessDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	if len(store.createdChunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(store.createdChunks))
	}
	if store.createdChunks[0].Content != content {
		t.Errorf("Chunk content changed: %q", store.createdChunks[0].Content)
	}
	if len(store.savedRows) != 1 {
		t.Errorf("Expected 1 embedding row, got %d", len(store.savedRows))
	}

	final := store.lastUpdate(t)
	if final.Status != docmodel.StatusIndexed {
		t.Errorf("Final status = %s, want INDEXED", final.Status)
	}
	if final.DocMetadata["chunk_count"] != 1 {
		t.Errorf("chunk_count = %v, want 1", final.DocMetadata["chunk_count"])
	}
	if final.DocMetadata["word_count"] == nil {
		t.Errorf("Extraction metadata was not persisted: %v", final.DocMetadata)
	}
}

func TestProcessDocument_ExtractionFailure(t *testing.T) {
	store := &mockStore{
		ClaimFn: func(ctx context.Context, id string) (*docmodel.Document, error) {
			return claimedDoc("/nonexistent/missing.txt"), nil
		},
	}
	svc := newTestService(store, &mockCompleter{}, nil)

	err := svc.ProcessDocument(context.Background(), "doc-1")
	if err == nil {
		t.Fatal("Expected extraction failure to surface")
	}

	if len(store.createdChunks) != 0 {
		t.Errorf("No chunks should be created after extraction failure, got %d", len(store.createdChunks))
	}

	final := store.lastUpdate(t)
	if final.Status != docmodel.StatusFailed {
		t.Errorf("Final status = %s, want FAILED", final.Status)
	}
	if final.DocMetadata["failed_stage"] != "extract" {
		t.Errorf("failed_stage = %v, want extract", final.DocMetadata["failed_stage"])
	}
	if final.DocMetadata["error"] == nil || final.DocMetadata["error_time"] == nil {
		t.Errorf("Failure metadata incomplete: %v", final.DocMetadata)
	}
}

func TestProcessDocument_LeaseRejection(t *testing.T) {
	store := &mockStore{
		ClaimFn: func(ctx context.Context, id string) (*docmodel.Document, error) {
			return nil, docmodel.ErrAlreadyProcessing
		},
	}
	svc := newTestService(store, &mockCompleter{}, nil)

	err := svc.ProcessDocument(context.Background(), "doc-1")
	if !errors.Is(err, docmodel.ErrAlreadyProcessing) {
		t.Errorf("Expected ErrAlreadyProcessing, got %v", err)
	}
	if len(store.updatedDocs) != 0 {
		t.Errorf("Document must stay untouched when the lease is held, got %d updates", len(store.updatedDocs))
	}
}

func TestProcessDocument_ReindexClearsOldChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("fresh content"), 0600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	var clearedDoc string
	store := &mockStore{
		ClaimFn: func(ctx context.Context, id string) (*docmodel.Document, error) {
			return claimedDoc(path), nil
		},
		DeleteChunksFn: func(ctx context.Context, documentID string) (int, error) {
			clearedDoc = documentID
			return 4, nil
		},
	}
	svc := newTestService(store, &mockCompleter{}, nil)

	if err := svc.ProcessDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if clearedDoc != "doc-1" {
		t.Errorf("Previous chunks were not cleared before reprocessing")
	}
}

func TestAnswer_NoContextReturnsCannedAnswer(t *testing.T) {
	completer := &mockCompleter{answer: "should not be used"}
	svc := newTestService(&mockStore{}, completer, nil)

	result, err := svc.Answer(context.Background(), "what is in the void?", nil, 5)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if result.Answer != config.NoContextAnswer {
		t.Errorf("Answer = %q, want the no-context fallback", result.Answer)
	}
	if len(result.Context) != 0 {
		t.Errorf("Expected empty context, got %d", len(result.Context))
	}
	if completer.called {
		t.Error("Completer must not be called without retrieved context")
	}
}

func answerFixtureStore(t *testing.T, content string) *mockStore {
	t.Helper()
	vec, err := localembed.New().Embed(context.Background(), content)
	if err != nil {
		t.Fatalf("embedding fixture: %v", err)
	}
	return &mockStore{
		ListVectorsFn: func(ctx context.Context, documentIDs []string) ([]docmodel.StoredVector, error) {
			return []docmodel.StoredVector{{
				ChunkId:    "chunk-1",
				DocumentId: "doc-1",
				Content:    content,
				Vector:     vec,
			}}, nil
		},
	}
}

func TestAnswer_GroundedCompletion(t *testing.T) {
	content := "the warehouse opens at nine in the morning"
	completer := &mockCompleter{answer: "It opens at nine."}
	svc := newTestService(answerFixtureStore(t, content), completer, nil)

	result, err := svc.Answer(context.Background(), "the warehouse opens at nine in the morning", nil, 5)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if !completer.called {
		t.Fatal("Completer was never invoked")
	}
	if result.Answer != "It opens at nine." {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Context) != 1 || result.Context[0].ChunkId != "chunk-1" {
		t.Errorf("Context not carried through: %+v", result.Context)
	}
}

func TestAnswer_CompletionErrorDegrades(t *testing.T) {
	content := "some indexed material"
	completer := &mockCompleter{err: errors.New("model offline")}
	svc := newTestService(answerFixtureStore(t, content), completer, nil)

	result, err := svc.Answer(context.Background(), "some indexed material", nil, 5)
	if err != nil {
		t.Fatalf("Completion errors must degrade, not fail: %v", err)
	}
	if result.Answer != config.CompletionErrorAnswer {
		t.Errorf("Answer = %q, want the completion-error fallback", result.Answer)
	}
	if len(result.Context) != 1 {
		t.Errorf("Context should still be returned alongside the fallback")
	}
}

type stubCache struct {
	result docmodel.QueryResult
	hit    bool
}

func (s *stubCache) Get(ctx context.Context, key string) (docmodel.QueryResult, bool) {
	return s.result, s.hit
}

func (s *stubCache) Put(ctx context.Context, key string, result docmodel.QueryResult) error {
	return nil
}

func TestAnswer_CacheHitSkipsRetrieval(t *testing.T) {
	store := &mockStore{
		ListVectorsFn: func(ctx context.Context, documentIDs []string) ([]docmodel.StoredVector, error) {
			t.Error("Retrieval must be skipped on a cache hit")
			return nil, nil
		},
	}
	cached := docmodel.QueryResult{Answer: "cached answer"}
	completer := &mockCompleter{}
	svc := newTestService(store, completer, &stubCache{result: cached, hit: true})

	result, err := svc.Answer(context.Background(), "repeated question", nil, 5)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}
	if result.Answer != "cached answer" {
		t.Errorf("Answer = %q, want cached answer", result.Answer)
	}
	if completer.called {
		t.Error("Completer must not run on a cache hit")
	}
}

func TestBuildPrompt_NumbersContextBlocks(t *testing.T) {
	prompt := buildPrompt("what now?", []docmodel.SearchResult{
		{Content: "first block"},
		{Content: "second block"},
	})

	for _, want := range []string{"CONTEXT 1:\nfirst block", "CONTEXT 2:\nsecond block", "USER QUESTION: what now?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}
