package service

import (
	"context"
	"sync"

	"tcg-labeler/internal/carrier"
	"tcg-labeler/internal/events"
	"tcg-labeler/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockCarrierClient is a mock implementation of carrier.Client.
type MockCarrierClient struct {
	mock.Mock
}

func (m *MockCarrierClient) CreateShipment(ctx context.Context, order model.OrderRecord) (*carrier.Shipment, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Shipment), args.Error(1)
}

func (m *MockCarrierClient) Buy(ctx context.Context, shipmentID string, rate carrier.Rate) (*carrier.Purchase, error) {
	args := m.Called(ctx, shipmentID, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*carrier.Purchase), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, doc *model.OrderDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockOrderRepository) ListByBatch(ctx context.Context, userID, batchID string) ([]model.OrderDocument, error) {
	args := m.Called(ctx, userID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderDocument), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.OrderDocument, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderDocument), args.Error(1)
}

// MockBatchRepository is a mock implementation of BatchRepository.
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) Create(ctx context.Context, batch *model.BatchRecord) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) GetByID(ctx context.Context, batchID string) (*model.BatchRecord, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchRecord), args.Error(1)
}

func (m *MockBatchRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.BatchRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.BatchRecord), args.Error(1)
}

// MockSettingsRepository is a mock implementation of SettingsRepository.
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context, userID string) (*model.UserSettings, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserSettings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings *model.UserSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockBatchCache is a mock implementation of cache.BatchCache.
type MockBatchCache struct {
	mock.Mock
}

func (m *MockBatchCache) Get(ctx context.Context, userID, batchID string) (*model.BatchDetail, bool, error) {
	args := m.Called(ctx, userID, batchID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.BatchDetail), args.Bool(1), args.Error(2)
}

func (m *MockBatchCache) Set(ctx context.Context, userID string, detail *model.BatchDetail) error {
	args := m.Called(ctx, userID, detail)
	return args.Error(0)
}

func (m *MockBatchCache) Invalidate(ctx context.Context, userID, batchID string) error {
	args := m.Called(ctx, userID, batchID)
	return args.Error(0)
}

// recordingPublisher keeps every published envelope.
type recordingPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) ofType(eventType string) []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Envelope
	for _, e := range p.envs {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
