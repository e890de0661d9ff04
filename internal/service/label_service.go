package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tcg-labeler/internal/cache"
	"tcg-labeler/internal/carrier"
	"tcg-labeler/internal/events"
	"tcg-labeler/internal/metrics"
	"tcg-labeler/internal/model"
	"tcg-labeler/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EventProducer is the producer name stamped on published events.
const EventProducer = "tcg-labeler"

// LabelOption customises a label service.
type LabelOption func(*labelService)

// WithClock replaces the wall clock used for document timestamps.
func WithClock(now func() time.Time) LabelOption {
	return func(s *labelService) { s.now = now }
}

// WithIDGenerator replaces the order document id generator.
func WithIDGenerator(newID func() string) LabelOption {
	return func(s *labelService) { s.newID = newID }
}

// WithPublisher publishes label and batch events.
func WithPublisher(p events.Publisher) LabelOption {
	return func(s *labelService) { s.publisher = p }
}

// WithBatchCache invalidates cached batch details after a run.
func WithBatchCache(c cache.BatchCache) LabelOption {
	return func(s *labelService) { s.cache = c }
}

// labelService implements LabelService.
type labelService struct {
	carrier   carrier.Client
	selector  carrier.RateSelector
	orders    repository.OrderRepository
	batches   repository.BatchRepository
	metrics   *metrics.Registry
	publisher events.Publisher
	cache     cache.BatchCache
	logger    zerolog.Logger
	now       func() time.Time
	newID     func() string
}

// NewLabelService creates a new label service.
func NewLabelService(
	client carrier.Client,
	selector carrier.RateSelector,
	orders repository.OrderRepository,
	batches repository.BatchRepository,
	reg *metrics.Registry,
	logger zerolog.Logger,
	opts ...LabelOption,
) LabelService {
	s := &labelService{
		carrier:   client,
		selector:  selector,
		orders:    orders,
		batches:   batches,
		metrics:   reg,
		publisher: events.NopPublisher{},
		cache:     cache.NopBatchCache{},
		logger:    logger.With().Str("service", "label").Logger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	return s
}

// run is the state of one PurchaseBatch call. The written set never outlives it.
type run struct {
	written map[string]struct{}
	touched map[string]string // batch id -> owner
	report  *model.BatchReport
}

func (s *labelService) PurchaseBatch(ctx context.Context, orders []model.OrderRecord) (*model.BatchReport, error) {
	started := time.Now()
	r := &run{
		written: make(map[string]struct{}),
		touched: make(map[string]string),
		report: &model.BatchReport{
			Results:  []model.LabelResult{},
			Outcomes: make([]model.OrderOutcome, 0, len(orders)),
		},
	}

	s.logger.Info().Int("order_count", len(orders)).Msg("starting label purchase run")

	for i, order := range orders {
		outcome, result := s.purchaseOne(ctx, i, order, r)
		r.report.Outcomes = append(r.report.Outcomes, outcome)

		if result != nil {
			r.report.Results = append(r.report.Results, *result)
			s.metrics.LabelsPurchased.Inc()
			continue
		}
		s.metrics.OrdersSkipped.WithLabelValues(string(outcome.Outcome)).Inc()
	}

	s.finishRun(ctx, orders, r)

	s.metrics.BatchesRun.Inc()
	s.metrics.BatchDuration.Observe(time.Since(started).Seconds())

	s.logger.Info().
		Int("order_count", len(orders)).
		Int("purchased", len(r.report.Results)).
		Dur("elapsed", time.Since(started)).
		Msg("label purchase run finished")

	return r.report, nil
}

// purchaseOne runs the create, select, buy, persist pipeline for one order.
// A nil result means the order was skipped.
func (s *labelService) purchaseOne(ctx context.Context, index int, order model.OrderRecord, r *run) (out model.OrderOutcome, result *model.LabelResult) {
	out = model.OrderOutcome{
		Index:       index,
		OrderNumber: order.OrderNumber,
		Name:        order.Name,
	}
	logger := s.logger.With().
		Int("index", index).
		Str("order_number", order.OrderNumber).
		Str("batch_id", order.BatchID).
		Logger()

	defer func() {
		if rec := recover(); rec != nil {
			out.Outcome = model.OutcomeUnexpectedError
			out.Reason = fmt.Sprint(rec)
			result = nil
			logger.Error().Interface("panic", rec).Msg("order processing panicked")
		}
	}()

	callStarted := time.Now()
	shipment, err := s.carrier.CreateShipment(ctx, order)
	s.metrics.ObserveCarrier(metrics.OpCreateShipment, callStarted)
	if err != nil {
		return s.skip(logger, out, outcomeFor(err), err), nil
	}
	out.ShipmentID = shipment.ID

	rate, ok := s.selector.Select(shipment.Rates)
	if !ok {
		// The shipment stays unpurchased at the carrier.
		return s.skip(logger, out, model.OutcomeNoEligibleRate, carrier.ErrNoEligibleRate), nil
	}

	callStarted = time.Now()
	purchase, err := s.carrier.Buy(ctx, shipment.ID, rate)
	s.metrics.ObserveCarrier(metrics.OpBuy, callStarted)
	if err != nil {
		return s.skip(logger, out, outcomeFor(err), err), nil
	}
	if purchase.LabelURL() == "" {
		return s.skip(logger, out, model.OutcomeIncompleteLabel, carrier.ErrIncompleteLabel), nil
	}
	out.TrackingCode = purchase.TrackingCode

	doc := s.newDocument(order, rate, purchase)
	if err := s.orders.Create(ctx, doc); err != nil {
		logger.Error().Str("tracking_code", purchase.TrackingCode).Msg("label purchased but not recorded")
		return s.skip(logger, out, model.OutcomePersistFailed, err), nil
	}

	s.recordBatch(ctx, logger, order, doc.CreatedAt, r)
	s.publishLabel(ctx, doc, shipment.ID)

	out.Outcome = model.OutcomePurchased
	logger.Debug().Str("tracking_code", doc.TrackingCode).Msg("label purchased")

	return out, &model.LabelResult{LabelURL: doc.LabelURL, TrackingCode: doc.TrackingCode}
}

func (s *labelService) skip(logger zerolog.Logger, out model.OrderOutcome, outcome model.Outcome, err error) model.OrderOutcome {
	out.Outcome = outcome
	out.Reason = err.Error()
	logger.Warn().Err(err).Str("outcome", string(outcome)).Msg("order skipped")
	return out
}

func (s *labelService) newDocument(order model.OrderRecord, rate carrier.Rate, purchase *carrier.Purchase) *model.OrderDocument {
	bought := rate
	if purchase.SelectedRate != nil {
		bought = *purchase.SelectedRate
	}

	return &model.OrderDocument{
		ID:           s.newID(),
		UserID:       order.OwnerID(),
		BatchID:      order.BatchID,
		BatchName:    order.BatchName,
		OrderNumber:  order.OrderNumber,
		TrackingCode: purchase.TrackingCode,
		LabelURL:     purchase.LabelURL(),
		ToName:       order.Name,
		Carrier:      bought.Carrier,
		Service:      bought.Service,
		Postage:      bought.Rate,
		CreatedAt:    model.EpochMillis(s.now()),
	}
}

// recordBatch writes the batch record the first time one of its orders is
// recorded in this run. A failed write is retried by the batch's next order.
func (s *labelService) recordBatch(ctx context.Context, logger zerolog.Logger, order model.OrderRecord, createdAt int64, r *run) {
	r.touched[order.BatchID] = order.OwnerID()
	if _, done := r.written[order.BatchID]; done {
		return
	}

	batch := &model.BatchRecord{
		BatchID:   order.BatchID,
		BatchName: order.BatchName,
		UserID:    order.OwnerID(),
		CreatedAt: createdAt,
	}
	if err := s.batches.Create(ctx, batch); err != nil {
		if errors.Is(err, repository.ErrBatchOwned) {
			// The id stays taken for the rest of the run.
			r.written[order.BatchID] = struct{}{}
			logger.Warn().Err(err).Msg("batch id already in use")
			return
		}
		logger.Error().Err(err).Msg("failed to record batch")
		return
	}
	r.written[order.BatchID] = struct{}{}
}

func (s *labelService) publishLabel(ctx context.Context, doc *model.OrderDocument, shipmentID string) {
	s.publish(ctx, events.EventLabelPurchased, doc.BatchID, events.LabelPurchasedPayload{
		UserID:       doc.UserID,
		BatchID:      doc.BatchID,
		OrderNumber:  doc.OrderNumber,
		ShipmentID:   shipmentID,
		TrackingCode: doc.TrackingCode,
		LabelURL:     doc.LabelURL,
		Carrier:      doc.Carrier,
		Service:      doc.Service,
		Postage:      doc.Postage.StringFixed(2),
	})
}

// finishRun drops stale cached details and announces each batch the run touched.
func (s *labelService) finishRun(ctx context.Context, orders []model.OrderRecord, r *run) {
	type summary struct {
		name      string
		submitted int
		purchased int
		skipped   map[string]int
	}
	batches := make(map[string]*summary)
	var seen []string

	for i, o := range orders {
		b, ok := batches[o.BatchID]
		if !ok {
			b = &summary{name: o.BatchName, skipped: make(map[string]int)}
			batches[o.BatchID] = b
			seen = append(seen, o.BatchID)
		}
		b.submitted++
		if outcome := r.report.Outcomes[i].Outcome; outcome.Succeeded() {
			b.purchased++
		} else {
			b.skipped[string(outcome)]++
		}
	}

	for batchID, userID := range r.touched {
		if err := s.cache.Invalidate(ctx, userID, batchID); err != nil {
			s.logger.Warn().Err(err).Str("batch_id", batchID).Msg("failed to invalidate cached batch")
		}
	}

	for _, batchID := range seen {
		b := batches[batchID]
		s.publish(ctx, events.EventBatchCompleted, batchID, events.BatchCompletedPayload{
			UserID:    r.ownerOf(batchID, orders),
			BatchID:   batchID,
			BatchName: b.name,
			Submitted: b.submitted,
			Purchased: b.purchased,
			Skipped:   b.skipped,
		})
	}
}

func (r *run) ownerOf(batchID string, orders []model.OrderRecord) string {
	if owner, ok := r.touched[batchID]; ok {
		return owner
	}
	for _, o := range orders {
		if o.BatchID == batchID {
			return o.OwnerID()
		}
	}
	return model.UnknownUserID
}

func (s *labelService) publish(ctx context.Context, eventType, batchID string, payload any) {
	env, err := events.NewEnvelope(eventType, EventProducer, batchID, payload, s.now())
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := s.publisher.Publish(ctx, env); err != nil {
		if errors.Is(err, events.ErrBufferFull) {
			s.metrics.EventsDropped.Inc()
		}
		s.logger.Warn().Err(err).Str("event_type", eventType).Str("batch_id", batchID).Msg("failed to publish event")
	}
}

// outcomeFor maps a carrier error to the outcome reported for the order.
func outcomeFor(err error) model.Outcome {
	var apiErr *carrier.APIError
	switch {
	case errors.Is(err, carrier.ErrIncompleteLabel):
		return model.OutcomeIncompleteLabel
	case errors.Is(err, carrier.ErrNoEligibleRate):
		return model.OutcomeNoEligibleRate
	case errors.Is(err, carrier.ErrTransport),
		errors.Is(err, carrier.ErrInvalidResponse),
		errors.As(err, &apiErr):
		return model.OutcomeTransportError
	default:
		return model.OutcomeUnexpectedError
	}
}
