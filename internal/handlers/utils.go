package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adipk/ragdocs/internal/api"
	"github.com/adipk/ragdocs/internal/docsvc"
	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/adipk/ragdocs/internal/worker"
	"github.com/adipk/ragdocs/pkg/logx"
)

func writeJsonResponse(log *logx.Logger, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// too late for a clean status code, just log it
		log.Error("Error encoding response", "error", err)
	}
}

func WriteErrorResponse(log *logx.Logger, w http.ResponseWriter, httpCode int, message string, detail string) {
	writeJsonResponse(log, w, httpCode, api.ErrorResponse{Error: message, Detail: detail})
}

// writeDomainError maps the well-known domain errors onto status codes;
// anything unrecognized is a 500.
func writeDomainError(log *logx.Logger, w http.ResponseWriter, err error) {
	var unsupported docsvc.ErrUnsupportedFileType
	switch {
	case errors.Is(err, docmodel.ErrNotFound):
		WriteErrorResponse(log, w, http.StatusNotFound, "Not found", "")
	case errors.As(err, &unsupported):
		WriteErrorResponse(log, w, http.StatusBadRequest, "Unsupported file type", unsupported.Error())
	case errors.Is(err, worker.ErrQueueFull):
		WriteErrorResponse(log, w, http.StatusServiceUnavailable, "Service busy", "processing queue is full, retry later")
	default:
		log.Error("Unhandled service error", "error", err)
		WriteErrorResponse(log, w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
