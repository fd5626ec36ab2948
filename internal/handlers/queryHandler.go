package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/adipk/ragdocs/internal/adapter"
	"github.com/adipk/ragdocs/internal/api"
	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/rag"
	"github.com/adipk/ragdocs/pkg/logx"
)

type QueryHandler struct {
	ragService rag.Service
	logger     *logx.Logger
}

func NewQueryHandler(ragService rag.Service) *QueryHandler {
	return &QueryHandler{
		ragService: ragService,
		logger:     logx.New("query_handler"),
	}
}

// Query answers a question grounded in the indexed documents. top_k is
// optional and clamped server-side; document_ids narrows the search to
// those documents.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			h.logger.Error("Couldn't close the query request body", "error", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(h.logger, w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if req.Question == "" {
		WriteErrorResponse(h.logger, w, http.StatusBadRequest, "Bad Request", "question is required")
		return
	}
	if req.TopK < 0 || req.TopK > config.MaxTopK {
		WriteErrorResponse(h.logger, w, http.StatusBadRequest, "Bad Request", "top_k must be between 1 and 20; omit it or send 0 for the default")
		return
	}

	result, err := h.ragService.Answer(r.Context(), req.Question, req.DocumentIDs, req.TopK)
	if err != nil {
		writeDomainError(h.logger, w, err)
		return
	}
	writeJsonResponse(h.logger, w, http.StatusOK, adapter.ToQueryResponse(req.Question, result))
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
