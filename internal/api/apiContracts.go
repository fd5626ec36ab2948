package api

import "time"

type DocumentResponse struct {
	Id          string         `json:"id" example:"2b1f4d7e-9c35-4f62-8a10-5f3b2a7c9d01"`
	Title       string         `json:"title" example:"Q3 report"`
	Description string         `json:"description,omitempty"`
	FileName    string         `json:"file_name" example:"report.pdf"`
	FileSize    int64          `json:"file_size"`
	MimeType    string         `json:"mime_type,omitempty"`
	Status      string         `json:"status" example:"INDEXED"`
	DocMetadata map[string]any `json:"doc_metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
	Skip      int                `json:"skip"`
	Limit     int                `json:"limit"`
}

type ChunkResponse struct {
	Id            string         `json:"id"`
	DocumentId    string         `json:"document_id"`
	Content       string         `json:"content"`
	ChunkIndex    int            `json:"chunk_index"`
	PageNumber    int            `json:"page_number,omitempty"`
	ChunkMetadata map[string]any `json:"chunk_metadata,omitempty"`
}

type ChunkListResponse struct {
	DocumentId string          `json:"document_id"`
	Chunks     []ChunkResponse `json:"chunks"`
	Total      int             `json:"total"`
}

type ContextChunkResponse struct {
	ChunkId       string         `json:"chunk_id"`
	DocumentId    string         `json:"document_id"`
	DocumentTitle string         `json:"document_title"`
	Content       string         `json:"content"`
	Similarity    float32        `json:"similarity"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

type QueryResponse struct {
	Question string                 `json:"question"`
	Answer   string                 `json:"answer"`
	Context  []ContextChunkResponse `json:"context"`
}

type ReindexResponse struct {
	Id     string `json:"id"`
	Status string `json:"status" example:"queued"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// requests---------------------

type QueryRequest struct {
	Question    string   `json:"question" validate:"required"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}
