// Package handlers holds the HTTP handlers for the document and query
// endpoints. Handlers only parse, delegate and encode; all behavior
// lives in the services they wrap.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/adipk/ragdocs/internal/adapter"
	"github.com/adipk/ragdocs/internal/api"
	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/docsvc"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/go-chi/chi/v5"
)

type DocumentHandler struct {
	documents *docsvc.Service
	logger    *logx.Logger
}

func NewDocumentHandler(documents *docsvc.Service) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logx.New("document_handler"),
	}
}

// Upload accepts a multipart form with a "file" part plus optional title
// and description fields. The document comes back PENDING; processing
// runs in the background.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteErrorResponse(h.logger, w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("upload exceeds the %d byte limit", config.MaxUploadSize))
			return
		}
		WriteErrorResponse(h.logger, w, http.StatusBadRequest, "Bad Request", "malformed multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteErrorResponse(h.logger, w, http.StatusBadRequest, "Bad Request", "file field is required")
		return
	}
	defer file.Close()

	doc, err := h.documents.CreateDocument(r.Context(), docsvc.Upload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		writeDomainError(h.logger, w, err)
		return
	}

	h.logger.Info("Document uploaded", "documentId", doc.Id, "fileName", doc.FileName)
	writeJsonResponse(h.logger, w, http.StatusAccepted, adapter.ToDocumentResponse(doc))
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	writeJsonResponse(h.logger, w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	docs, total, err := h.documents.ListDocuments(r.Context(), skip, limit)
	if err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	writeJsonResponse(h.logger, w, http.StatusOK, adapter.ToDocumentListResponse(docs, total, skip, limit))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.documents.DeleteDocument(r.Context(), id); err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	h.logger.Info("Document deleted", "documentId", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chunks, err := h.documents.GetChunks(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	writeJsonResponse(h.logger, w, http.StatusOK, adapter.ToChunkListResponse(id, chunks))
}

func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.documents.Reindex(r.Context(), id); err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	h.logger.Info("Document queued for reindex", "documentId", id)
	writeJsonResponse(h.logger, w, http.StatusAccepted, api.ReindexResponse{Id: id, Status: "queued"})
}

// Download streams the stored original bytes with a content type resolved
// from the file extension.
func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	doc, rc, err := h.documents.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(doc.FileName))
	if contentType == "" {
		contentType = doc.MimeType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Error("Download interrupted", "documentId", doc.Id, "error", err)
	}
}
