package handler

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"

	"tcg-labeler/internal/model"
	"tcg-labeler/internal/service"

	"github.com/rs/zerolog"
)

// importRequest names a stored export to load.
type importRequest struct {
	Key string `json:"key"`
}

// ImportHandler turns marketplace exports into order records.
type ImportHandler struct {
	service service.ImportService
	logger  zerolog.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service service.ImportService, logger zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		logger:  logger.With().Str("handler", "import").Logger(),
	}
}

// Parse handles POST /api/orders/parse. The export is either the raw request
// body or the "file" part of a multipart form.
func (h *ImportHandler) Parse(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, service.MaxUploadBytes)
	var src io.Reader = body

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = body
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "multipart field \"file\" is required", h.logger)
			return
		}
		defer file.Close()
		src = file
	}

	orders, err := h.service.Parse(r.Context(), src)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Import handles POST /api/orders/import requests.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	orders, err := h.service.Import(r.Context(), req.Key)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}
