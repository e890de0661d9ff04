package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tcg-labeler/internal/middleware"
	"tcg-labeler/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func batchRouter(h *BatchHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/batches", h.List)
	r.Get("/api/batches/{batchId}", h.Get)
	r.Get("/api/batches/{batchId}/tracking.csv", h.TrackingCSV)
	return r
}

func serveAs(t *testing.T, handler http.Handler, userID, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestBatchHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		expectLimit    int
		expectService  bool
		expectedStatus int
	}{
		{name: "Default limit", target: "/api/batches", expectLimit: 0, expectService: true, expectedStatus: http.StatusOK},
		{name: "Explicit limit", target: "/api/batches?limit=5", expectLimit: 5, expectService: true, expectedStatus: http.StatusOK},
		{name: "Bad limit", target: "/api/batches?limit=abc", expectedStatus: http.StatusBadRequest},
		{name: "Negative limit", target: "/api/batches?limit=-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBatchService)
			if tt.expectService {
				svc.On("List", mock.Anything, "user-1", tt.expectLimit).
					Return([]model.BatchRecord{{BatchID: "b1", UserID: "user-1"}}, nil)
			}

			w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "user-1", http.MethodGet, tt.target)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestBatchHandler_List_RequiresUser(t *testing.T) {
	svc := new(MockBatchService)

	w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "", http.MethodGet, "/api/batches")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchHandler_Get(t *testing.T) {
	detail := &model.BatchDetail{
		Batch:        model.BatchRecord{BatchID: "b1", BatchName: "May", UserID: "user-1"},
		Orders:       []model.OrderDocument{{ID: "d1", OrderNumber: "100", Postage: decimal.RequireFromString("4.63")}},
		TotalPostage: decimal.RequireFromString("4.63"),
	}

	t.Run("Found", func(t *testing.T) {
		svc := new(MockBatchService)
		svc.On("Get", mock.Anything, "user-1", "b1").Return(detail, nil)

		w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "user-1", http.MethodGet, "/api/batches/b1")

		assert.Equal(t, http.StatusOK, w.Code)
		var got model.BatchDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "May", got.Batch.BatchName)
		assert.True(t, detail.TotalPostage.Equal(got.TotalPostage))
		svc.AssertExpectations(t)
	})

	t.Run("Not found", func(t *testing.T) {
		svc := new(MockBatchService)
		svc.On("Get", mock.Anything, "user-1", "nope").Return(nil, model.ErrBatchNotFound)

		w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "user-1", http.MethodGet, "/api/batches/nope")

		assert.Equal(t, http.StatusNotFound, w.Code)
		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.ErrCodeBatchNotFound, resp.Error)
	})

	t.Run("Store failure", func(t *testing.T) {
		svc := new(MockBatchService)
		svc.On("Get", mock.Anything, "user-1", "b1").Return(nil, errors.New("connection reset"))

		w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "user-1", http.MethodGet, "/api/batches/b1")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestBatchHandler_TrackingCSV(t *testing.T) {
	t.Run("Download", func(t *testing.T) {
		svc := new(MockBatchService)
		csv := "Order #,Tracking #,Carrier\n100,9400100,USPS\n"
		svc.On("WriteTrackingCSV", mock.Anything, "user-1", "b1", mock.Anything).Return(nil, csv)

		w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "user-1", http.MethodGet, "/api/batches/b1/tracking.csv")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="tcgplayer_tracking_upload.csv"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, csv, w.Body.String())
	})

	t.Run("Unknown batch", func(t *testing.T) {
		svc := new(MockBatchService)
		svc.On("WriteTrackingCSV", mock.Anything, "user-1", "b9", mock.Anything).Return(model.ErrBatchNotFound, "")

		w := serveAs(t, batchRouter(NewBatchHandler(svc, zerolog.Nop())), "user-1", http.MethodGet, "/api/batches/b9/tracking.csv")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Empty(t, w.Header().Get("Content-Disposition"))
	})
}
