package order

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService      = "order-service"
	useCasePlaceOrder = "order.place"
	spanPrefix        = "UC."

	peerProductStore = "product_store"
	peerOrderStore   = "order_store"
	peerCache        = "cache"
	peerOutbox       = "outbox"

	publishTimeout    = 300 * time.Millisecond
	bestEffortTimeout = 2 * time.Second

	defaultReserveConcurrency = 8
)

// Dashboard read models derived from orders and product counters.
var dashboardCacheKeys = []string{
	"dashboard:stats",
	"dashboard:statistics",
	"dashboard:popular-products",
	"dashboard:recent-orders",
}

// PlaceOrderDeps are the ports the order pipeline talks to.
type PlaceOrderDeps struct {
	Products  catalog.Repository
	Orders    domain.Repository
	Identity  IdentityVerifier
	Cache     CacheInvalidator
	Publisher domoutbox.Publisher
	IDs       IDGenerator
	Clock     Clock
}

type PlaceOrderOptions struct {
	Pricing PricingConfig
	// ReserveConcurrency bounds the stock decrements in flight for one order.
	ReserveConcurrency int
}

// PlaceOrderUseCase validates, prices, persists and reserves stock for a cart.
type PlaceOrderUseCase struct {
	deps PlaceOrderDeps
	opts PlaceOrderOptions
	tel  observability.Observability

	log observability.Logger
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}

	sagaSteps  observability.Counter // order_saga_steps_total{step,outcome}
	incomplete observability.Counter // order_reservation_incomplete_total{reason}
	bestEffort observability.Counter // best_effort_failures_total{effect}
}

// PlaceOrderInput is a raw submission plus the caller's bearer credential, if any.
type PlaceOrderInput struct {
	Credential      string
	Items           []RawLine
	ShippingAddress domain.ShippingAddress
	GuestEmail      string
}

type PlaceOrderResult struct {
	Order *domain.Order
	Lines []PricedLine
}

// NewPlaceOrderUseCase wires the dependencies required to execute the use case.
func NewPlaceOrderUseCase(deps PlaceOrderDeps, opts PlaceOrderOptions, tel observability.Observability) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if opts.ReserveConcurrency <= 0 {
		opts.ReserveConcurrency = defaultReserveConcurrency
	}
	if opts.Pricing == (PricingConfig{}) {
		opts.Pricing = DefaultPricing()
	}

	metrics := tel.Metrics()
	return &PlaceOrderUseCase{
		deps:         deps,
		opts:         opts,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
		sagaSteps:    metrics.Counter(observability.MSagaSteps),
		incomplete:   metrics.Counter(observability.MReservationIncomplete),
		bestEffort:   metrics.Counter(observability.MBestEffortFailures),
	}
}

// Execute runs the pipeline. Validation and pricing failures leave no trace in
// any store. Once the order is inserted nothing is rolled back.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCasePlaceOrder))

	var orderID string

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.Int("order.raw_lines", len(cmd.Items)),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePlaceOrder),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCasePlaceOrder),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.Err(err))
		}

		logger.Info("use_case_done", fields...)
	}()

	var caller Principal
	if uc.deps.Identity != nil && cmd.Credential != "" {
		caller = uc.deps.Identity.Resolve(ctx, cmd.Credential)
	}

	lines, buyer, nerr := Normalize(cmd.Items, caller, cmd.GuestEmail)
	if nerr != nil {
		outcome, statusText = observability.OutcomeRejected, statusFor(nerr)
		return nil, nerr
	}
	lines = MergeLines(lines)
	span.SetAttributes(
		attribute.Int("order.lines", len(lines)),
		attribute.Bool("order.guest", buyer.CustomerID == ""),
	)

	fetchStart := time.Now()
	products, ferr := uc.deps.Products.FindManyByIDs(ctx, productIDs(lines))
	uc.observeExternal(peerProductStore, "find_many_by_ids", fetchStart, ferr)
	if ferr != nil {
		outcome, statusText = observability.OutcomeError, "PRODUCT_LOOKUP_FAILED"
		return nil, newStore("find products", ferr)
	}

	quote, perr := Price(lines, products, uc.opts.Pricing)
	if perr != nil {
		outcome, statusText = observability.OutcomeRejected, statusFor(perr)
		return nil, perr
	}

	orderID = uc.deps.IDs.NewID()
	entity, derr := domain.New(orderID, buyer, quote.Items(), quote.Totals, cmd.ShippingAddress, uc.deps.Clock.Now())
	if derr != nil {
		outcome, statusText = observability.OutcomeError, "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("order: construct: %w", derr)
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = observability.OutcomeError, "CONTEXT_CANCELED"
		return nil, err
	}

	insertStart := time.Now()
	ierr := uc.deps.Orders.Create(ctx, entity)
	uc.observeExternal(peerOrderStore, "create", insertStart, ierr)
	if ierr != nil {
		uc.step(logger, stepInsertOrder, ierr)
		outcome, statusText = observability.OutcomeError, "REPO_INSERT_FAILED"
		return nil, newStore("insert order", ierr)
	}
	uc.step(logger, stepInsertOrder, nil)
	span.AddEvent("order.inserted", trace.WithAttributes(attribute.String("order.id", orderID)))

	reserved, failures := uc.reserve(ctx, logger, entity)
	if len(failures) > 0 {
		uc.holdOrder(ctx, logger, entity)
	}
	uc.deactivateDepleted(ctx, logger, reserved)
	uc.invalidateCache(ctx, logger)

	if len(failures) > 0 {
		outcome, statusText = observability.OutcomeError, "RESERVATION_INCOMPLETE"
		return nil, reservationError(entity, failures)
	}

	span.SetAttributes(
		attribute.String("order.status", string(entity.Status)),
		attribute.String("order.grand_total", entity.Totals.GrandTotal.StringFixed(2)),
	)
	return &PlaceOrderResult{Order: entity, Lines: quote.Lines}, nil
}

func (uc *PlaceOrderUseCase) observeExternal(peer, endpoint string, start time.Time, err error) {
	out := observability.OutcomeOf(err)
	uc.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", out),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// statusFor turns a pipeline error code into the log/span status text.
func statusFor(err error) string {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return "UNKNOWN"
}
