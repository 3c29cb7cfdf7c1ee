package stage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
)

const (
	_defaultAckTimeout     = 5 * time.Second
	_defaultProcessTimeout = 2 * time.Minute
	_defaultFetchBackoff   = time.Second
)

// Controller feeds deliveries of one subscription to a pool of handler slots.
// Every delivery is acknowledged exactly once after its handler returns,
// whether it failed, succeeded or panicked: failures are recorded on the
// submission by the handler itself. Shutdown stops fetching and lets
// in-flight handlers finish; handlers still running when its deadline
// passes are cancelled and their deliveries are left for redelivery.
type Controller struct {
	name    string
	source  infrastructure.MessageSource
	handler usecase.StageHandler
	logger  logger.Interface

	workers        int
	ackTimeout     time.Duration
	processTimeout time.Duration
	fetchBackoff   time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// work is the parent of handler contexts. It survives cancel and is only
	// cancelled by abort.
	work  context.Context
	abort context.CancelFunc

	wg sync.WaitGroup

	started atomic.Bool
}

func New(
	name string,
	source infrastructure.MessageSource,
	handler usecase.StageHandler,
	l logger.Interface,
	opts ...Option,
) *Controller {
	c := &Controller{
		name:           name,
		source:         source,
		handler:        handler,
		logger:         l,
		workers:        1,
		ackTimeout:     _defaultAckTimeout,
		processTimeout: _defaultProcessTimeout,
		fetchBackoff:   _defaultFetchBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("StageController - Start - %s already started", c.name)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.work, c.abort = context.WithCancel(context.WithoutCancel(ctx))

	tasks := make(chan *entity.Message)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			msg, err := c.source.Fetch(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				c.logger.Error(err, "StageController - Start - %s - c.source.Fetch", c.name)

				select {
				case <-time.After(c.fetchBackoff):
				case <-c.ctx.Done():
					return
				}

				continue
			}

			// Unbuffered: a delivery is only taken once a slot is free.
			select {
			case tasks <- msg:
			case <-c.ctx.Done():
				return
			}
		}
	}()

	c.logger.Info("StageController - Start - %s running with %d worker(s)", c.name, c.workers)

	return nil
}

func (c *Controller) worker(tasks <-chan *entity.Message) {
	defer c.wg.Done()

	for msg := range tasks {
		c.handle(msg)

		if c.work.Err() != nil {
			c.logger.Warn("StageController - worker - %s - %s aborted, left for redelivery", c.name, msg.ID)

			continue
		}

		c.ack(msg)
	}
}

func (c *Controller) handle(msg *entity.Message) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(fmt.Errorf("panic: %v", r), "StageController - handle - %s - %s", c.name, msg.ID)
		}
	}()

	ctx, cancel := context.WithTimeout(c.work, c.processTimeout)
	defer cancel()

	err := c.handler.Handle(ctx, msg)
	if err != nil {
		c.logger.Error(err, "StageController - handle - %s - c.handler.Handle", c.name)
	}
}

// ack uses a context detached from shutdown so that a handled delivery is
// still acknowledged while the controller stops.
func (c *Controller) ack(msg *entity.Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), c.ackTimeout)
	defer cancel()

	err := c.source.Ack(ctx, msg)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error(err, "StageController - ack - %s - c.source.Ack", c.name)
	}
}

func (c *Controller) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	c.cancel()

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.abort()
	case <-ctx.Done():
		c.abort()

		return fmt.Errorf("StageController - Shutdown - %s: %w", c.name, ctx.Err())
	}

	err := c.source.Close()
	if err != nil {
		return fmt.Errorf("StageController - Shutdown - c.source.Close: %w", err)
	}

	return nil
}
