package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

const documentColumns = `id, title, description, file_name, file_path, file_size,
	mime_type, status, doc_metadata, created_at, updated_at`

func (s *Store) CreateDocument(ctx context.Context, doc *docmodel.Document) error {
	meta, err := marshalMeta(doc.DocMetadata)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Id, doc.Title, nullString(doc.Description), doc.FileName, doc.FilePath,
		doc.FileSize, nullString(doc.MimeType), string(doc.Status), meta,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*docmodel.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

func (s *Store) ListDocuments(ctx context.Context, skip, limit int) ([]docmodel.Document, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	docs := make([]docmodel.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	return docs, total, rows.Err()
}

func (s *Store) UpdateDocument(ctx context.Context, doc *docmodel.Document) error {
	meta, err := marshalMeta(doc.DocMetadata)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, description = ?, status = ?, doc_metadata = ?, updated_at = ?
		WHERE id = ?`,
		doc.Title, nullString(doc.Description), string(doc.Status), meta,
		doc.UpdatedAt, doc.Id,
	)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if affected == 0 {
		return docmodel.ErrNotFound
	}
	return nil
}

// ClaimDocument is the per-document processing lease: the status swap to
// PROCESSING is guarded so only one run wins.
func (s *Store) ClaimDocument(ctx context.Context, id string) (*docmodel.Document, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == docmodel.StatusProcessing {
		return nil, docmodel.ErrAlreadyProcessing
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(docmodel.StatusProcessing), now, id, string(doc.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("claiming document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claiming document: %w", err)
	}
	if affected == 0 {
		// lost the race to a concurrent claim
		return nil, docmodel.ErrAlreadyProcessing
	}

	doc.Status = docmodel.StatusProcessing
	doc.UpdatedAt = now
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if affected == 0 {
		return docmodel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*docmodel.Document, error) {
	var (
		doc         docmodel.Document
		description sql.NullString
		mimeType    sql.NullString
		status      string
		rawMeta     sql.NullString
	)
	err := row.Scan(&doc.Id, &doc.Title, &description, &doc.FileName, &doc.FilePath,
		&doc.FileSize, &mimeType, &status, &rawMeta, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docmodel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Description = description.String
	doc.MimeType = mimeType.String
	doc.Status = docmodel.DocumentStatus(status)
	if doc.DocMetadata, err = unmarshalMeta(rawMeta); err != nil {
		return nil, err
	}
	return &doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
