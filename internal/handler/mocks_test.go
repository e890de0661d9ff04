package handler

import (
	"context"
	"io"

	"tcg-labeler/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockLabelService is a mock implementation of LabelService.
type MockLabelService struct {
	mock.Mock
}

func (m *MockLabelService) PurchaseBatch(ctx context.Context, orders []model.OrderRecord) (*model.BatchReport, error) {
	args := m.Called(ctx, orders)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchReport), args.Error(1)
}

// MockBatchService is a mock implementation of BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) List(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BatchRecord), args.Error(1)
}

func (m *MockBatchService) Get(ctx context.Context, userID, batchID string) (*model.BatchDetail, error) {
	args := m.Called(ctx, userID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchDetail), args.Error(1)
}

func (m *MockBatchService) WriteTrackingCSV(ctx context.Context, userID, batchID string, w io.Writer) error {
	args := m.Called(ctx, userID, batchID, w)
	if body := args.String(1); body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(0)
}

// MockImportService is a mock implementation of ImportService.
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Parse(ctx context.Context, r io.Reader) ([]model.OrderRecord, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, string(data))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderRecord), args.Error(1)
}

func (m *MockImportService) Import(ctx context.Context, key string) ([]model.OrderRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderRecord), args.Error(1)
}

// MockSettingsService is a mock implementation of SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSettings), args.Error(1)
}

func (m *MockSettingsService) Save(ctx context.Context, userID string, req *model.SettingsRequest) (*model.UserSettings, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSettings), args.Error(1)
}
