package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

const chunkColumns = `id, document_id, content, chunk_index, page_number,
	chunk_metadata, embedding_id, created_at`

func (s *Store) CreateChunks(ctx context.Context, chunks []docmodel.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting chunk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO text_chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		meta, err := marshalMeta(c.ChunkMetadata)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, c.Id, c.DocumentId, c.Content, c.ChunkIndex,
			c.PageNumber, meta, nullString(c.EmbeddingId), c.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.ChunkIndex, err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetChunksByDocument(ctx context.Context, documentID string) ([]docmodel.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM text_chunks
		WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *Store) GetChunksByIDs(ctx context.Context, ids []string) ([]docmodel.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM text_chunks
		WHERE id IN (`+placeholders(len(ids))+`) ORDER BY chunk_index`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks by id: %w", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// DeleteChunksByDocument clears all chunks for a document ahead of a
// reindex; embeddings go with them through the cascade.
func (s *Store) DeleteChunksByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM text_chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	return int(affected), nil
}

func scanChunks(rows *sql.Rows) ([]docmodel.Chunk, error) {
	var chunks []docmodel.Chunk
	for rows.Next() {
		var (
			c           docmodel.Chunk
			pageNumber  sql.NullInt64
			rawMeta     sql.NullString
			embeddingID sql.NullString
		)
		err := rows.Scan(&c.Id, &c.DocumentId, &c.Content, &c.ChunkIndex,
			&pageNumber, &rawMeta, &embeddingID, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.PageNumber = int(pageNumber.Int64)
		c.EmbeddingId = embeddingID.String
		if c.ChunkMetadata, err = unmarshalMeta(rawMeta); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}
