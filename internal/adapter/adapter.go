// Package adapter maps domain models onto the wire contracts. Handlers
// never hand a domain struct to the encoder directly.
package adapter

import (
	"github.com/adipk/ragdocs/internal/api"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
)

func ToDocumentResponse(doc *docmodel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:          doc.Id,
		Title:       doc.Title,
		Description: doc.Description,
		FileName:    doc.FileName,
		FileSize:    doc.FileSize,
		MimeType:    doc.MimeType,
		Status:      string(doc.Status),
		DocMetadata: doc.DocMetadata,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func ToDocumentListResponse(docs []docmodel.Document, total, skip, limit int) api.DocumentListResponse {
	out := make([]api.DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return api.DocumentListResponse{Documents: out, Total: total, Skip: skip, Limit: limit}
}

func ToChunkListResponse(documentID string, chunks []docmodel.Chunk) api.ChunkListResponse {
	out := make([]api.ChunkResponse, len(chunks))
	for i, c := range chunks {
		out[i] = api.ChunkResponse{
			Id:            c.Id,
			DocumentId:    c.DocumentId,
			Content:       c.Content,
			ChunkIndex:    c.ChunkIndex,
			PageNumber:    c.PageNumber,
			ChunkMetadata: c.ChunkMetadata,
		}
	}
	return api.ChunkListResponse{DocumentId: documentID, Chunks: out, Total: len(out)}
}

func ToQueryResponse(question string, result docmodel.QueryResult) api.QueryResponse {
	out := make([]api.ContextChunkResponse, len(result.Context))
	for i, c := range result.Context {
		out[i] = api.ContextChunkResponse{
			ChunkId:       c.ChunkId,
			DocumentId:    c.DocumentId,
			DocumentTitle: c.DocumentTitle,
			Content:       c.Content,
			Similarity:    c.Similarity,
			Metadata:      c.Metadata,
		}
	}
	return api.QueryResponse{Question: question, Answer: result.Answer, Context: out}
}
