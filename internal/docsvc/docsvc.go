// Package docsvc is the boundary the HTTP handlers call. It owns upload
// validation, document CRUD and the hand-off of processing work to the
// background pool.
package docsvc

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/data/blob"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/google/uuid"
)

// Enqueuer submits a document for background processing. The worker pool
// implements it; tests swap in a recorder.
type Enqueuer interface {
	Enqueue(ctx context.Context, documentID string) error
}

// ErrUnsupportedFileType rejects uploads whose extension no extractor
// handles well enough to index.
type ErrUnsupportedFileType struct {
	Extension string
}

func (e ErrUnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported file type %q", e.Extension)
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
}

type Upload struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type Service struct {
	store    docmodel.Store
	blobs    blob.Store
	enqueuer Enqueuer
	logger   *logx.Logger
}

func New(store docmodel.Store, blobs blob.Store, enqueuer Enqueuer) *Service {
	return &Service{
		store:    store,
		blobs:    blobs,
		enqueuer: enqueuer,
		logger:   logx.New("document_service"),
	}
}

// CreateDocument validates the upload, stores the original bytes, records
// a PENDING document and queues it for processing. The document is
// returned immediately; indexing happens in the background.
func (s *Service) CreateDocument(ctx context.Context, up Upload) (*docmodel.Document, error) {
	ext := strings.ToLower(filepath.Ext(up.FileName))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFileType{Extension: ext}
	}

	path, err := s.blobs.Save(up.Content, up.FileName)
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	title := up.Title
	if title == "" {
		title = up.FileName
	}

	now := time.Now().UTC()
	doc := &docmodel.Document{
		Id:          uuid.New().String(),
		Title:       title,
		Description: up.Description,
		FileName:    up.FileName,
		FilePath:    path,
		FileSize:    up.Size,
		MimeType:    up.ContentType,
		Status:      docmodel.StatusPending,
		DocMetadata: docmodel.Metadata{
			"original_filename": up.FileName,
			"content_type":      up.ContentType,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		s.blobs.Delete(path)
		return nil, fmt.Errorf("creating document record: %w", err)
	}

	if err := s.enqueuer.Enqueue(ctx, doc.Id); err != nil {
		// the record stays PENDING; a later reindex call can retry it
		s.logger.Error("Failed to queue document for processing", "documentId", doc.Id, "error", err)
	}
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*docmodel.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// ListDocuments pages through documents newest first. limit is clamped
// to the configured maximum; the returned int is the total row count so
// clients can page.
func (s *Service) ListDocuments(ctx context.Context, skip, limit int) ([]docmodel.Document, int, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = config.MaxListLimit
	}
	if limit > config.MaxListLimit {
		limit = config.MaxListLimit
	}
	return s.store.ListDocuments(ctx, skip, limit)
}

// DeleteDocument removes the document row (chunks and embeddings cascade
// with it) and then the stored file. A missing blob is logged, not fatal:
// the index entry is already gone.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document record: %w", err)
	}

	if doc.FilePath != "" && !s.blobs.Delete(doc.FilePath) {
		s.logger.Warn("Stored file could not be removed", "documentId", id, "path", doc.FilePath)
	}
	return nil
}

func (s *Service) GetChunks(ctx context.Context, documentID string) ([]docmodel.Chunk, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetChunksByDocument(ctx, documentID)
}

// Reindex queues an existing document for a fresh processing run. The
// run itself resets prior chunks; a document already mid-processing is
// rejected by the lease when the worker picks the job up.
func (s *Service) Reindex(ctx context.Context, id string) error {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := s.enqueuer.Enqueue(ctx, id); err != nil {
		return fmt.Errorf("queueing reindex: %w", err)
	}
	return nil
}

// OpenFile streams the stored original for download.
func (s *Service) OpenFile(ctx context.Context, id string) (*docmodel.Document, io.ReadCloser, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc.FilePath == "" || !s.blobs.Exists(doc.FilePath) {
		return nil, nil, docmodel.ErrNotFound
	}
	rc, err := s.blobs.Open(doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening stored file: %w", err)
	}
	return doc, rc, nil
}
