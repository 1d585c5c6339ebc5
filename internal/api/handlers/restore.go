package handlers

import (
	"PixelRelay/internal/relay"
	"PixelRelay/internal/web"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RestoreHandler relays an image to the root of the destination bucket
type RestoreHandler struct {
	relay    *relay.Service
	pages    *PageRenderer
	maxBytes int64
	logger   *zap.Logger
}

func NewRestoreHandler(svc *relay.Service, pages *PageRenderer, maxBytes int64, logger *zap.Logger) *RestoreHandler {
	return &RestoreHandler{
		relay:    svc,
		pages:    pages,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Handle serves POST /restore
func (h *RestoreHandler) Handle(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req, form, err := parseRestoreRequest(w, r, h.maxBytes)
	if err != nil {
		h.logger.Warn("Invalid restore request", zap.String("request_id", reqID), zap.Error(err))
		h.pages.RenderError(w, err)
		return
	}
	defer form.Close()

	result, err := h.relay.Restore(r.Context(), *req)
	if err != nil {
		h.logger.Error("Restore request failed",
			zap.String("request_id", reqID),
			zap.String("filename", req.Filename),
			zap.Error(err),
		)
		h.pages.RenderError(w, err)
		return
	}

	h.logger.Info("Restore request accepted",
		zap.String("request_id", reqID),
		zap.String("upload_id", result.ID.String()),
		zap.String("key", result.Key),
	)
	h.pages.Render(w, http.StatusOK, web.IndexPage{Message: result.Message})
}
