package handlers

import (
	"PixelRelay/internal/relay"
	"PixelRelay/internal/web"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ResizeHandler accepts an image plus target dimensions and relays it to the
// source bucket
type ResizeHandler struct {
	relay        *relay.Service
	pages        *PageRenderer
	maxBytes     int64
	maxDimension int
	logger       *zap.Logger
}

func NewResizeHandler(svc *relay.Service, pages *PageRenderer, maxBytes int64, maxDimension int, logger *zap.Logger) *ResizeHandler {
	return &ResizeHandler{
		relay:        svc,
		pages:        pages,
		maxBytes:     maxBytes,
		maxDimension: maxDimension,
		logger:       logger,
	}
}

// Handle serves POST /resize
func (h *ResizeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	req, form, err := parseResizeRequest(w, r, h.maxBytes, h.maxDimension)
	if err != nil {
		h.logger.Warn("Invalid resize request", zap.String("request_id", reqID), zap.Error(err))
		h.pages.RenderError(w, err)
		return
	}
	defer form.Close()

	result, err := h.relay.Resize(r.Context(), *req)
	if err != nil {
		h.logger.Error("Resize request failed",
			zap.String("request_id", reqID),
			zap.String("filename", req.Filename),
			zap.Error(err),
		)
		h.pages.RenderError(w, err)
		return
	}

	h.logger.Info("Resize request accepted",
		zap.String("request_id", reqID),
		zap.String("upload_id", result.ID.String()),
		zap.String("key", result.Key),
		zap.Int("width", req.Width),
		zap.Int("height", req.Height),
	)
	h.pages.Render(w, http.StatusOK, web.IndexPage{ResizedFile: result.Filename})
}
