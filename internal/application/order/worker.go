package order

import (
	"context"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ReconciliationWorker records every incomplete reservation so an operator can
// repair the stock by hand.
type ReconciliationWorker struct {
	repo       domorder.ReconciliationRepository
	subscriber domoutbox.Subscriber
	ids        IDGenerator
	clock      Clock
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

const (
	workerService             = "order-reconciliation-worker"
	useCaseRecordIncomplete   = "order.worker.reservation_incomplete"
	reconciliationListDefault = 100
)

func NewReconciliationWorker(
	repo domorder.ReconciliationRepository,
	subscriber domoutbox.Subscriber,
	ids IDGenerator,
	clock Clock,
	tel observability.Observability,
) *ReconciliationWorker {
	if tel == nil {
		tel = observability.Nop()
	}
	if clock == nil {
		clock = SystemClock
	}
	return &ReconciliationWorker{
		repo:         repo,
		subscriber:   subscriber,
		ids:          ids,
		clock:        clock,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (w *ReconciliationWorker) Start() {
	if w.subscriber == nil || w.repo == nil {
		return
	}
	w.subscriber.Subscribe(domorder.ReservationIncompleteEvent{}.EventName(), w.handleReservationIncomplete)
}

// Pending lists the most recent entries awaiting manual repair.
func (w *ReconciliationWorker) Pending(ctx context.Context, limit int) ([]domorder.ReconciliationEntry, error) {
	if limit <= 0 {
		limit = reconciliationListDefault
	}
	entries, err := w.repo.List(ctx, limit)
	if err != nil {
		return nil, newStore("list reconciliation entries", err)
	}
	return entries, nil
}

func (w *ReconciliationWorker) handleReservationIncomplete(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.ReservationIncompleteEvent)
	if !ok {
		w.observe("ignored", 0)
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"ReservationIncomplete",
		attribute.String("use_case", useCaseRecordIncomplete),
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	start := time.Now()
	outcome, status := observability.OutcomeSuccess, "OK"

	ctx, logger := logctx.Enrich(ctx, w.log,
		observability.F("use_case", useCaseRecordIncomplete),
		observability.F("event", e.EventName()),
		observability.F("order_id", evt.OrderID),
		observability.F("product_id", evt.ProductID),
	)

	defer func() {
		lat := time.Since(start).Seconds()
		w.observe(outcome, lat)
		logger.Info("use_case_done",
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
			observability.F("reason", evt.Reason),
		)
		if outcome == observability.OutcomeError {
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	entry := domorder.NewReconciliationEntry(w.ids.NewID(), evt, w.clock.Now())
	if err := w.repo.Record(ctx, entry); err != nil {
		outcome, status = observability.OutcomeError, "RECORD_FAILED"
		return fmt.Errorf("worker: record reconciliation entry: %w", err)
	}
	return nil
}

func (w *ReconciliationWorker) observe(outcome string, latency float64) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCaseRecordIncomplete),
		observability.L("outcome", outcome),
	)
	if latency > 0 {
		w.durHistogram.Observe(latency, observability.L("use_case", useCaseRecordIncomplete))
	}
}
