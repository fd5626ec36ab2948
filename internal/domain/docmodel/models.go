package docmodel

import (
	"context"
	"errors"
	"time"
)

type DocumentStatus string

const (
	StatusPending    DocumentStatus = "PENDING"
	StatusProcessing DocumentStatus = "PROCESSING"
	StatusIndexed    DocumentStatus = "INDEXED"
	StatusFailed     DocumentStatus = "FAILED"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrAlreadyProcessing is returned by ClaimDocument when another run
	// already holds the processing lease for the document.
	ErrAlreadyProcessing = errors.New("document is already being processed")
)

// Metadata is the open key/value bag attached to documents and chunks.
// Merges are additive: stages add keys, they never wipe what earlier
// stages recorded.
type Metadata map[string]any

// Merge returns a new map containing the receiver's keys overlaid with
// other's keys. Neither input is mutated.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// PageText is one page of extracted text, carried in extraction metadata
// under the "pages" key so the chunker can tag chunks with page numbers.
type PageText struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

type Document struct {
	Id          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	FileName    string         `json:"file_name"`
	FilePath    string         `json:"file_path"`
	FileSize    int64          `json:"file_size"`
	MimeType    string         `json:"mime_type,omitempty"`
	Status      DocumentStatus `json:"status"`
	DocMetadata Metadata       `json:"doc_metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Chunk is immutable once created; reprocessing deletes and recreates the
// whole set for a document rather than mutating rows in place.
type Chunk struct {
	Id            string    `json:"id"`
	DocumentId    string    `json:"document_id"`
	Content       string    `json:"content"`
	ChunkIndex    int       `json:"chunk_index"`
	PageNumber    int       `json:"page_number,omitempty"`
	ChunkMetadata Metadata  `json:"chunk_metadata,omitempty"`
	EmbeddingId   string    `json:"embedding_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Embedding struct {
	Id        string    `json:"id"`
	ChunkId   string    `json:"chunk_id"`
	Vector    []float32 `json:"vector"`
	ModelName string    `json:"model_name"`
	Dimension int       `json:"dimension"`
	CreatedAt time.Time `json:"created_at"`
}

// StoredVector is one embedding joined to its chunk and owning document,
// the unit the similarity scan ranks.
type StoredVector struct {
	ChunkId       string
	DocumentId    string
	DocumentTitle string
	Content       string
	ChunkIndex    int
	PageNumber    int
	ChunkMetadata Metadata
	DocMetadata   Metadata
	Vector        []float32
}

type SearchResult struct {
	ChunkId       string   `json:"chunk_id"`
	DocumentId    string   `json:"document_id"`
	DocumentTitle string   `json:"document_title"`
	Content       string   `json:"content"`
	Similarity    float32  `json:"similarity"`
	Metadata      Metadata `json:"metadata,omitempty"`
}

type QueryResult struct {
	Answer  string         `json:"answer"`
	Context []SearchResult `json:"context"`
}

// Store is the relational persistence boundary for documents, chunks and
// embeddings. Every mutation is individually atomic; the multi-stage
// processing pipeline on top of it deliberately is not.
type Store interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, skip, limit int) ([]Document, int, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	// ClaimDocument compare-and-swaps the document's status to PROCESSING.
	// It fails with ErrAlreadyProcessing when the document is already in
	// PROCESSING, which is the per-document lease keeping a reindex from
	// racing an in-flight run.
	ClaimDocument(ctx context.Context, id string) (*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	CreateChunks(ctx context.Context, chunks []Chunk) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]Chunk, error)
	GetChunksByIDs(ctx context.Context, ids []string) ([]Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID string) (int, error)

	// SaveEmbeddings persists a batch of embedding rows and points each
	// owning chunk's embedding_id at its new row.
	SaveEmbeddings(ctx context.Context, embeddings []Embedding) error
	ListVectors(ctx context.Context, documentIDs []string) ([]StoredVector, error)
}
