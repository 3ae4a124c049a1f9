package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/fulfillment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

const componentFulfillment = "fulfillment_ticker"

// Worker runs the fulfillment simulator on a fixed interval until stopped.
type Worker struct {
	useCase  application.UseCase[fulfillment.AdvanceOrdersInput, *fulfillment.AdvanceOrdersResult]
	interval time.Duration
	batch    int
	log      observability.Logger

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(
	useCase application.UseCase[fulfillment.AdvanceOrdersInput, *fulfillment.AdvanceOrdersResult],
	interval time.Duration,
	batch int,
	logger observability.Logger,
) *Worker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Worker{
		useCase:  useCase,
		interval: interval,
		batch:    batch,
		log:      logger.With(observability.F("component", componentFulfillment)),
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		w.log.Info("fulfillment_ticker_started", observability.F("interval", w.interval.String()))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
}

func (w *Worker) tick(ctx context.Context) {
	if _, err := w.useCase.Execute(ctx, fulfillment.AdvanceOrdersInput{Batch: w.batch}); err != nil {
		w.log.Warn("fulfillment_tick_failed", observability.Err(err))
	}
}

// Stop cancels the loop and waits for the in-flight tick to return.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel == nil {
			return
		}
		w.cancel()
		<-w.done
		w.log.Info("fulfillment_ticker_stopped")
	})
}
