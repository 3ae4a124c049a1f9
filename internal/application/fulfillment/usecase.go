package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	fulfillmentService = "fulfillment-simulator"
	useCaseAdvance     = "fulfillment.advance"
	spanPrefix         = "UC."
	defaultBatch       = 5
)

// AdvanceOrdersUseCase walks a small batch of open orders one step along
// preparing, shipped, delivered. It stands in for a real fulfillment system
// in demo deployments.
type AdvanceOrdersUseCase struct {
	repo  domorder.Repository
	clock func() time.Time
	tel   observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

type AdvanceOrdersInput struct {
	// Batch caps how many orders per status are moved in one run.
	Batch int
}

type AdvanceOrdersResult struct {
	Shipped   int
	Delivered int
	Skipped   int
}

func NewAdvanceOrdersUseCase(repo domorder.Repository, clock func() time.Time, tel observability.Observability) *AdvanceOrdersUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &AdvanceOrdersUseCase{
		repo:         repo,
		clock:        clock,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", fulfillmentService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (uc *AdvanceOrdersUseCase) Execute(ctx context.Context, in AdvanceOrdersInput) (_ *AdvanceOrdersResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseAdvance))
	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"AdvanceOrders",
		attribute.String("use_case", useCaseAdvance),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"
	res := &AdvanceOrdersResult{}

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseAdvance),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseAdvance))
		logger.Info("use_case_done",
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("shipped", res.Shipped),
			observability.F("delivered", res.Delivered),
			observability.F("skipped", res.Skipped),
		)
	}()

	batch := in.Batch
	if batch <= 0 {
		batch = defaultBatch
	}

	// Shipped first, so an order moves at most one step per run.
	for _, from := range []domorder.Status{domorder.StatusShipped, domorder.StatusPreparing} {
		orders, ferr := uc.repo.FindByStatus(ctx, from, batch)
		if ferr != nil {
			outcome, statusText = observability.OutcomeError, "REPO_QUERY_FAILED"
			return res, fmt.Errorf("fulfillment: find %s orders: %w", from, ferr)
		}
		for _, o := range orders {
			if aerr := o.Advance(uc.clock()); aerr != nil {
				res.Skipped++
				continue
			}
			uerr := uc.repo.UpdateStatus(ctx, o.ID, from, o.Status)
			switch {
			case uerr == nil:
				if o.Status == domorder.StatusShipped {
					res.Shipped++
				} else {
					res.Delivered++
				}
			case errors.Is(uerr, domorder.ErrStatusConflict), errors.Is(uerr, domorder.ErrNotFound):
				res.Skipped++
			default:
				res.Skipped++
				logger.Warn("order_status_update_failed",
					observability.F("order_id", o.ID),
					observability.Err(uerr),
				)
			}
		}
	}
	return res, nil
}
