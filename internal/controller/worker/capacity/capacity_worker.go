package capacity

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/juju/clock"
)

// Worker runs a capacity rebalance on every tick. A rebalance that is still
// running when the next tick fires delays it; ticks are never queued.
type Worker struct {
	uc     usecase.CapacityUseCase
	clock  clock.Clock
	logger logger.Interface

	interval         time.Duration
	rebalanceTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	uc usecase.CapacityUseCase,
	clk clock.Clock,
	l logger.Interface,
	interval time.Duration,
	rebalanceTimeout time.Duration,
) *Worker {
	return &Worker{
		uc:               uc,
		clock:            clk,
		logger:           l,
		interval:         interval,
		rebalanceTimeout: rebalanceTimeout,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("CapacityWorker - Start - worker already started")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-w.clock.After(w.interval):
				w.rebalance()
			}
		}
	}()

	return nil
}

func (w *Worker) rebalance() {
	ctx, cancel := context.WithTimeout(w.ctx, w.rebalanceTimeout)
	defer cancel()

	err := w.uc.Rebalance(ctx)
	if err != nil {
		w.logger.Error(err, "CapacityWorker - rebalance - w.uc.Rebalance")
	}
}

func (w *Worker) Shutdown(ctx context.Context) error {
	if !w.started.Load() {
		return nil
	}

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})

	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("CapacityWorker - Shutdown: %w", ctx.Err())
	}
}
