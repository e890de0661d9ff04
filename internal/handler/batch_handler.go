package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"tcg-labeler/internal/model"
	"tcg-labeler/internal/orderimport"
	"tcg-labeler/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// BatchHandler serves purchased batches back to their owner.
type BatchHandler struct {
	service service.BatchService
	logger  zerolog.Logger
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(service service.BatchService, logger zerolog.Logger) *BatchHandler {
	return &BatchHandler{
		service: service,
		logger:  logger.With().Str("handler", "batch").Logger(),
	}
}

// List handles GET /api/batches requests.
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "limit must be a non-negative integer", h.logger)
			return
		}
		limit = n
	}

	batches, err := h.service.List(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, batches)
}

// Get handles GET /api/batches/{batchId} requests.
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "batchId"))
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// TrackingCSV handles GET /api/batches/{batchId}/tracking.csv requests.
func (h *BatchHandler) TrackingCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	// Buffered so a failure can still be reported as a JSON error.
	var buf bytes.Buffer
	if err := h.service.WriteTrackingCSV(r.Context(), userID, chi.URLParam(r, "batchId"), &buf); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+orderimport.TrackingFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
