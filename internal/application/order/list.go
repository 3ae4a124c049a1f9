package order

import (
	"context"
	"time"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const useCaseListCustomerOrders = "order.list_customer"

// ListCustomerOrdersUseCase returns a signed-in customer's order history.
type ListCustomerOrdersUseCase struct {
	orders domain.Repository
	tel    observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewListCustomerOrdersUseCase(orders domain.Repository, tel observability.Observability) *ListCustomerOrdersUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	return &ListCustomerOrdersUseCase{
		orders:       orders,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (uc *ListCustomerOrdersUseCase) Execute(ctx context.Context, customerID string) (_ []*domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseListCustomerOrders))
	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"ListCustomerOrders",
		attribute.String("use_case", useCaseListCustomerOrders),
	)
	start := time.Now()
	outcome, statusText := observability.OutcomeSuccess, "OK"
	count := 0

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
			observability.L("use_case", useCaseListCustomerOrders),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseListCustomerOrders))
		logger.Info("use_case_done",
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("orders", count),
		)
	}()

	if customerID == "" {
		outcome, statusText = observability.OutcomeRejected, CodeMissingIdentity
		return nil, newValidation(CodeMissingIdentity)
	}

	orders, ferr := uc.orders.FindByCustomer(ctx, customerID)
	if ferr != nil {
		outcome, statusText = observability.OutcomeError, "REPO_QUERY_FAILED"
		return nil, newStore("find orders by customer", ferr)
	}
	count = len(orders)
	return orders, nil
}
