package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tcg-labeler/internal/middleware"
	"tcg-labeler/internal/model"
	"tcg-labeler/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LabelHandler handles label purchase requests.
type LabelHandler struct {
	service service.LabelService
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// NewLabelHandler creates a new label handler.
func NewLabelHandler(service service.LabelService, logger zerolog.Logger) *LabelHandler {
	return &LabelHandler{
		service: service,
		logger:  logger.With().Str("handler", "label").Logger(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Purchase handles POST /api/labels requests.
//
// Orders without a batch id join one batch generated for this request. The
// run is detached from the request context so a client that disconnects does
// not stop a batch half way through.
func (h *LabelHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var orders []model.OrderRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, service.MaxUploadBytes)).Decode(&orders); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "request body must be a JSON array of orders", h.logger)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	orders = model.EnrichOrders(orders, userID, h.newID(), model.DefaultBatchName(h.now()))

	report, err := h.service.PurchaseBatch(context.WithoutCancel(r.Context()), orders)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	if r.URL.Query().Get("detail") == "true" {
		writeJSON(w, http.StatusOK, report)
		return
	}

	results := report.Results
	if results == nil {
		results = []model.LabelResult{}
	}
	writeJSON(w, http.StatusOK, results)
}
