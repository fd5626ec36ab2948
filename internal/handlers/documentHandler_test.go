package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/data/blob"
	"github.com/adipk/ragdocs/internal/docsvc"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

type stubStore struct {
	docmodel.Store
	created []*docmodel.Document
}

func (s *stubStore) CreateDocument(ctx context.Context, doc *docmodel.Document) error {
	s.created = append(s.created, doc)
	return nil
}

type stubBlobs struct {
	blob.Store
}

func (s *stubBlobs) Save(r io.Reader, name string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "/data/documents/" + name, nil
}

type stubEnqueuer struct {
	ids []string
}

func (s *stubEnqueuer) Enqueue(ctx context.Context, documentID string) error {
	s.ids = append(s.ids, documentID)
	return nil
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUpload_AcceptsFileWithinLimit(t *testing.T) {
	store := &stubStore{}
	queue := &stubEnqueuer{}
	handler := NewDocumentHandler(docsvc.New(store, &stubBlobs{}, queue))

	body, contentType := multipartUpload(t, "notes.txt", []byte("small upload"))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if len(store.created) != 1 {
		t.Fatalf("Created %d documents, want 1", len(store.created))
	}
	if len(queue.ids) != 1 {
		t.Errorf("Queued %d jobs, want 1", len(queue.ids))
	}
}

func TestUpload_RejectsOversizedBody(t *testing.T) {
	store := &stubStore{}
	queue := &stubEnqueuer{}
	handler := NewDocumentHandler(docsvc.New(store, &stubBlobs{}, queue))

	// the multipart framing pushes the body past the limit
	body, contentType := multipartUpload(t, "huge.txt", make([]byte, config.MaxUploadSize))
	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if len(store.created) != 0 {
		t.Errorf("Oversized upload must not create a document, got %d", len(store.created))
	}
	if len(queue.ids) != 0 {
		t.Errorf("Oversized upload must not be queued, got %d", len(queue.ids))
	}
}
