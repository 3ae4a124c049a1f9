package order

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Saga steps after pricing. None of them has a compensating action.
const (
	stepInsertOrder        = "insert_order"
	stepReserveStock       = "reserve_stock"
	stepDeactivateDepleted = "deactivate_depleted"
	stepInvalidateCache    = "invalidate_cache"
	stepHoldOrder          = "hold_order"
)

type lineFailure struct {
	line domain.LineItem
	err  error
}

func (uc *PlaceOrderUseCase) step(logger observability.Logger, step string, err error) {
	out := observability.OutcomeOf(err)
	uc.sagaSteps.Add(1, observability.L("step", step), observability.L("outcome", out))
	if err != nil {
		logger.Warn("order_saga_step_failed",
			observability.F("step", step),
			observability.Err(err),
		)
	}
}

// reserve decrements stock for every line in parallel. Every line is attempted
// even when another fails; successful decrements are kept.
func (uc *PlaceOrderUseCase) reserve(ctx context.Context, logger observability.Logger, o *domain.Order) ([]*catalog.Product, []lineFailure) {
	var (
		mu       sync.Mutex
		reserved = make([]*catalog.Product, 0, len(o.Items))
		failures []lineFailure
		g        errgroup.Group
	)
	g.SetLimit(uc.opts.ReserveConcurrency)

	for _, line := range o.Items {
		line := line
		g.Go(func() error {
			start := time.Now()
			p, err := uc.deps.Products.DecrementStock(ctx, line.ProductID, line.Quantity)
			uc.observeExternal(peerProductStore, "decrement_stock", start, err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, lineFailure{line: line, err: err})
				return nil
			}
			reserved = append(reserved, p)
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == 0 {
		uc.step(logger, stepReserveStock, nil)
		return reserved, nil
	}

	uc.step(logger, stepReserveStock, failures[0].err)
	for _, f := range failures {
		reason := catalog.FailureReason(f.err)
		uc.incomplete.Add(1, observability.L("reason", reason))
		logger.Error("order_reservation_incomplete",
			observability.F("order_id", o.ID),
			observability.F("product_id", f.line.ProductID),
			observability.F("quantity", f.line.Quantity),
			observability.F("reason", reason),
			observability.F("reserved_lines", len(reserved)),
			observability.F("failed_lines", len(failures)),
			observability.Err(f.err),
		)
		uc.publishIncomplete(ctx, logger, domain.NewReservationIncompleteEvent(o.ID, f.line.ProductID, f.line.Quantity, reason))
	}
	return reserved, failures
}

func (uc *PlaceOrderUseCase) publishIncomplete(ctx context.Context, logger observability.Logger, evt domain.ReservationIncompleteEvent) {
	if uc.deps.Publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.deps.Publisher.Publish(pubCtx, evt)
	uc.observeExternal(peerOutbox, evt.EventName(), start, err)
	if err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", evt.EventName()),
			observability.F("order_id", evt.OrderID),
			observability.Err(err),
		)
	}
}

// holdOrder keeps an incompletely reserved order out of fulfillment. A failed
// hold is logged and counted; the reconciliation entry still records the gap.
func (uc *PlaceOrderUseCase) holdOrder(ctx context.Context, logger observability.Logger, o *domain.Order) {
	start := time.Now()
	err := uc.bestEffortCall(ctx, func(ctx context.Context) error {
		return uc.deps.Orders.HoldForReconciliation(ctx, o.ID)
	})
	uc.observeExternal(peerOrderStore, "hold_for_reconciliation", start, err)
	uc.step(logger, stepHoldOrder, err)
	if err != nil {
		uc.bestEffort.Add(1, observability.L("effect", stepHoldOrder))
		logger.Error("order_hold_failed",
			observability.F("order_id", o.ID),
			observability.Err(err),
		)
		return
	}
	o.HoldForReconciliation(uc.deps.Clock.Now())
}

// deactivateDepleted takes sold-out products off sale. Each call is isolated:
// its failure is logged, counted and dropped.
func (uc *PlaceOrderUseCase) deactivateDepleted(ctx context.Context, logger observability.Logger, reserved []*catalog.Product) {
	for _, p := range reserved {
		if p == nil || !p.Depleted() {
			continue
		}
		err := uc.bestEffortCall(ctx, func(ctx context.Context) error {
			return uc.deps.Products.Deactivate(ctx, p.ID)
		})
		uc.step(logger, stepDeactivateDepleted, err)
		if err != nil {
			uc.bestEffort.Add(1, observability.L("effect", stepDeactivateDepleted))
			logger.Warn("product_deactivate_failed",
				observability.F("product_id", p.ID),
				observability.Err(err),
			)
		}
	}
}

func (uc *PlaceOrderUseCase) invalidateCache(ctx context.Context, logger observability.Logger) {
	if uc.deps.Cache == nil {
		return
	}
	start := time.Now()
	err := uc.bestEffortCall(ctx, func(ctx context.Context) error {
		return uc.deps.Cache.Invalidate(ctx, dashboardCacheKeys...)
	})
	uc.observeExternal(peerCache, "invalidate", start, err)
	uc.step(logger, stepInvalidateCache, err)
	if err != nil {
		uc.bestEffort.Add(1, observability.L("effect", stepInvalidateCache))
	}
}

// bestEffortCall runs fn detached from the request's cancellation, with its
// own deadline, converting a panic into an error.
func (uc *PlaceOrderUseCase) bestEffortCall(ctx context.Context, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bestEffortTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

// reservationError reports the first failed line to the caller. Stock
// failures surface as insufficient stock; anything else is a store failure.
func reservationError(o *domain.Order, failures []lineFailure) error {
	first := failures[0]
	for _, f := range failures {
		if errors.Is(f.err, catalog.ErrInsufficientStock) || errors.Is(f.err, catalog.ErrNotFound) {
			e := newDomain(CodeInsufficientStock, f.line.Name)
			e.OrderID = o.ID
			e.Err = f.err
			return e
		}
	}
	e := newStore("decrement stock", first.err)
	e.OrderID = o.ID
	return e
}
