package handlers

import (
	"PixelRelay/internal/ledger"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadLookup reads ledger records. *ledger.Manager implements it.
type UploadLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*ledger.Upload, error)
}

// UploadsHandler exposes ledger records as JSON
type UploadsHandler struct {
	lookup UploadLookup
	logger *zap.Logger
}

// NewUploadsHandler creates the handler. A nil lookup means the ledger is
// disabled and every request gets 503.
func NewUploadsHandler(lookup UploadLookup, logger *zap.Logger) *UploadsHandler {
	return &UploadsHandler{lookup: lookup, logger: logger}
}

// GetUpload returns one upload record as JSON
func (h *UploadsHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	if h.lookup == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "upload ledger disabled"})
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid upload ID", zap.String("upload_id", idStr), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid upload id"})
		return
	}

	upload, err := h.lookup.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrUploadNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "upload not found"})
			return
		}
		h.logger.Error("Failed to get upload", zap.String("upload_id", id.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, upload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
