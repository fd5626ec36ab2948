package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

// SaveEmbeddings commits one embedding batch: the new rows plus the
// embedding_id pointer flip on each owning chunk, in a single transaction
// so a half-written batch never becomes visible.
func (s *Store) SaveEmbeddings(ctx context.Context, embeddings []docmodel.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting embedding batch: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (id, chunk_id, vector, model_name, dimension, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer insert.Close()

	link, err := tx.PrepareContext(ctx,
		`UPDATE text_chunks SET embedding_id = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing chunk link: %w", err)
	}
	defer link.Close()

	for _, e := range embeddings {
		vec, err := marshalVector(e.Vector)
		if err != nil {
			return err
		}
		if _, err := insert.ExecContext(ctx, e.Id, e.ChunkId, vec, e.ModelName, e.Dimension, e.CreatedAt); err != nil {
			return fmt.Errorf("inserting embedding for chunk %s: %w", e.ChunkId, err)
		}
		if _, err := link.ExecContext(ctx, e.Id, e.ChunkId); err != nil {
			return fmt.Errorf("linking embedding to chunk %s: %w", e.ChunkId, err)
		}
	}
	return tx.Commit()
}

// ListVectors loads every current embedding joined to its chunk and
// owning document. The similarity scan walks this entire result set;
// stale rows no chunk points at any more are left out by the join.
func (s *Store) ListVectors(ctx context.Context, documentIDs []string) ([]docmodel.StoredVector, error) {
	query := `
		SELECT c.id, d.id, d.title, c.content, c.chunk_index,
		       COALESCE(c.page_number, 0), c.chunk_metadata, d.doc_metadata, e.vector
		FROM embeddings e
		JOIN text_chunks c ON c.embedding_id = e.id
		JOIN documents d ON d.id = c.document_id`

	var args []any
	if len(documentIDs) > 0 {
		query += ` WHERE d.id IN (` + placeholders(len(documentIDs)) + `)`
		for _, id := range documentIDs {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var vectors []docmodel.StoredVector
	for rows.Next() {
		var (
			v        docmodel.StoredVector
			rawChunk sql.NullString
			rawDoc   sql.NullString
			rawVec   string
		)
		err := rows.Scan(&v.ChunkId, &v.DocumentId, &v.DocumentTitle, &v.Content,
			&v.ChunkIndex, &v.PageNumber, &rawChunk, &rawDoc, &rawVec)
		if err != nil {
			return nil, fmt.Errorf("scanning vector row: %w", err)
		}
		if v.ChunkMetadata, err = unmarshalMeta(rawChunk); err != nil {
			return nil, err
		}
		if v.DocMetadata, err = unmarshalMeta(rawDoc); err != nil {
			return nil, err
		}
		if v.Vector, err = unmarshalVector(rawVec); err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}
