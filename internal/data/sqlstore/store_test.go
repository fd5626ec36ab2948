package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDocument(id string) *docmodel.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return &docmodel.Document{
		Id:          id,
		Title:       "title " + id,
		FileName:    id + ".txt",
		FilePath:    "/tmp/" + id + ".txt",
		FileSize:    42,
		MimeType:    "text/plain",
		Status:      docmodel.StatusPending,
		DocMetadata: docmodel.Metadata{"original_filename": id + ".txt"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestDocumentCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := testDocument("doc-1")
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != doc.Title || got.Status != docmodel.StatusPending {
		t.Errorf("Round trip changed document: %+v", got)
	}
	if got.DocMetadata["original_filename"] != "doc-1.txt" {
		t.Errorf("Metadata lost in round trip: %v", got.DocMetadata)
	}

	got.Status = docmodel.StatusIndexed
	got.DocMetadata = got.DocMetadata.Merge(docmodel.Metadata{"chunk_count": 3})
	if err := s.UpdateDocument(ctx, got); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	updated, err := s.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetDocument after update: %v", err)
	}
	if updated.Status != docmodel.StatusIndexed {
		t.Errorf("Status = %s, want INDEXED", updated.Status)
	}
	// JSON round trip turns numbers into float64
	if updated.DocMetadata["chunk_count"] != float64(3) {
		t.Errorf("chunk_count = %v, want 3", updated.DocMetadata["chunk_count"])
	}

	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, "doc-1"); !errors.Is(err, docmodel.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetDocument(context.Background(), "ghost"); !errors.Is(err, docmodel.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListDocuments_Pagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		doc := testDocument(string(rune('a' + i)))
		doc.CreatedAt = doc.CreatedAt.Add(time.Duration(i) * time.Minute)
		if err := s.CreateDocument(ctx, doc); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}

	docs, total, err := s.ListDocuments(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(docs) != 2 {
		t.Errorf("page size = %d, want 2", len(docs))
	}
	// newest first, skipping one
	if docs[0].Id != "d" || docs[1].Id != "c" {
		t.Errorf("Unexpected page order: %s, %s", docs[0].Id, docs[1].Id)
	}
}

func TestClaimDocument_Lease(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	claimed, err := s.ClaimDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("First claim should succeed: %v", err)
	}
	if claimed.Status != docmodel.StatusProcessing {
		t.Errorf("Claimed status = %s, want PROCESSING", claimed.Status)
	}

	if _, err := s.ClaimDocument(ctx, "doc-1"); !errors.Is(err, docmodel.ErrAlreadyProcessing) {
		t.Errorf("Second claim should be rejected, got %v", err)
	}

	// release the lease and claim again
	claimed.Status = docmodel.StatusFailed
	if err := s.UpdateDocument(ctx, claimed); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if _, err := s.ClaimDocument(ctx, "doc-1"); err != nil {
		t.Errorf("Claim after release should succeed, got %v", err)
	}
}

func seedChunks(t *testing.T, s *Store, docID string, n int) []docmodel.Chunk {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	chunks := make([]docmodel.Chunk, n)
	for i := range chunks {
		chunks[i] = docmodel.Chunk{
			Id:         docID + "-chunk-" + string(rune('0'+i)),
			DocumentId: docID,
			Content:    "content " + string(rune('0'+i)),
			ChunkIndex: i,
			PageNumber: i + 1,
			CreatedAt:  now,
		}
	}
	if err := s.CreateChunks(ctx, chunks); err != nil {
		t.Fatalf("CreateChunks: %v", err)
	}
	return chunks
}

func TestChunkLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	seedChunks(t, s, "doc-1", 3)

	chunks, err := s.GetChunksByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetChunksByDocument: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("Chunks not ordered by index: position %d has index %d", i, c.ChunkIndex)
		}
	}

	byID, err := s.GetChunksByIDs(ctx, []string{chunks[1].Id})
	if err != nil {
		t.Fatalf("GetChunksByIDs: %v", err)
	}
	if len(byID) != 1 || byID[0].Id != chunks[1].Id {
		t.Errorf("GetChunksByIDs returned wrong rows: %+v", byID)
	}

	removed, err := s.DeleteChunksByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("DeleteChunksByDocument: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
}

func TestVectorsRoundTripAndFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, docID := range []string{"doc-1", "doc-2"} {
		if err := s.CreateDocument(ctx, testDocument(docID)); err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
		chunks := seedChunks(t, s, docID, 2)

		rows := make([]docmodel.Embedding, len(chunks))
		for i, c := range chunks {
			rows[i] = docmodel.Embedding{
				Id:        c.Id + "-emb",
				ChunkId:   c.Id,
				Vector:    []float32{0.1, 0.2, 0.3},
				ModelName: "test-model",
				Dimension: 3,
				CreatedAt: time.Now().UTC(),
			}
		}
		if err := s.SaveEmbeddings(ctx, rows); err != nil {
			t.Fatalf("SaveEmbeddings: %v", err)
		}
	}

	all, err := s.ListVectors(ctx, nil)
	if err != nil {
		t.Fatalf("ListVectors: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 vectors, got %d", len(all))
	}
	if len(all) > 0 && len(all[0].Vector) != 3 {
		t.Errorf("Vector lost in round trip: %v", all[0].Vector)
	}

	filtered, err := s.ListVectors(ctx, []string{"doc-2"})
	if err != nil {
		t.Fatalf("ListVectors filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("Expected 2 filtered vectors, got %d", len(filtered))
	}
	for _, v := range filtered {
		if v.DocumentId != "doc-2" {
			t.Errorf("Filter leaked document %s", v.DocumentId)
		}
	}

	// chunk linkage survives the save
	chunks, err := s.GetChunksByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetChunksByDocument: %v", err)
	}
	for _, c := range chunks {
		if c.EmbeddingId == "" {
			t.Errorf("Chunk %s was not linked to its embedding", c.Id)
		}
	}
}

func TestDeleteDocument_CascadesToChunksAndVectors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.CreateDocument(ctx, testDocument("doc-1")); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	chunks := seedChunks(t, s, "doc-1", 2)
	rows := []docmodel.Embedding{{
		Id: "emb-1", ChunkId: chunks[0].Id, Vector: []float32{1},
		ModelName: "m", Dimension: 1, CreatedAt: time.Now().UTC(),
	}}
	if err := s.SaveEmbeddings(ctx, rows); err != nil {
		t.Fatalf("SaveEmbeddings: %v", err)
	}

	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}

	remaining, err := s.GetChunksByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetChunksByDocument: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("Chunks survived the cascade: %d", len(remaining))
	}
	vectors, err := s.ListVectors(ctx, nil)
	if err != nil {
		t.Fatalf("ListVectors: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("Vectors survived the cascade: %d", len(vectors))
	}
}
