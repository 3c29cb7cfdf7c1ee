package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/juju/clock"
	"github.com/juju/retry"
	"google.golang.org/api/compute/v1"
)

const (
	_defaultPollInterval = time.Second
	_defaultPollAttempts = 120
	_defaultPollTimeout  = 2 * time.Minute

	operationDone = "DONE"
)

var errOperationPending = errors.New("operation pending")

// Scaler resizes managed instance groups and waits for the resize to finish.
type Scaler struct {
	svc     *compute.Service
	project string
	clock   clock.Clock

	pollInterval time.Duration
	pollAttempts int
	pollTimeout  time.Duration
}

type ScalerOption func(*Scaler)

func PollInterval(d time.Duration) ScalerOption {
	return func(s *Scaler) {
		s.pollInterval = d
	}
}

func PollAttempts(n int) ScalerOption {
	return func(s *Scaler) {
		s.pollAttempts = n
	}
}

func PollTimeout(d time.Duration) ScalerOption {
	return func(s *Scaler) {
		s.pollTimeout = d
	}
}

func Clock(c clock.Clock) ScalerOption {
	return func(s *Scaler) {
		s.clock = c
	}
}

func NewScaler(svc *compute.Service, project string, opts ...ScalerOption) *Scaler {
	s := &Scaler{
		svc:          svc,
		project:      project,
		clock:        clock.WallClock,
		pollInterval: _defaultPollInterval,
		pollAttempts: _defaultPollAttempts,
		pollTimeout:  _defaultPollTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Scaler) Resize(ctx context.Context, group entity.InstanceGroup, size int64) error {
	op, err := s.svc.InstanceGroupManagers.Resize(s.project, group.Zone, group.Name, size).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("Scaler - Resize - s.svc.InstanceGroupManagers.Resize: %w", err)
	}

	err = s.waitOperation(ctx, group.Zone, op)
	if err != nil {
		return fmt.Errorf("Scaler - Resize - %s: %w", group, err)
	}

	return nil
}

// waitOperation polls a zone operation until it is DONE. Running out of
// attempts or time yields errs.ErrOperationTimeout, an operation that
// finished with errors yields errs.ErrOperationFailed.
func (s *Scaler) waitOperation(ctx context.Context, zone string, op *compute.Operation) error {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			if op.Status == operationDone {
				return nil
			}

			current, err := s.svc.ZoneOperations.Get(s.project, zone, op.Name).Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("s.svc.ZoneOperations.Get: %w", err)
			}
			op = current

			if op.Status != operationDone {
				return errOperationPending
			}

			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, errOperationPending)
		},
		Attempts:    s.pollAttempts,
		Delay:       s.pollInterval,
		MaxDuration: s.pollTimeout,
		Clock:       s.clock,
		Stop:        ctx.Done(),
	})

	switch {
	case err == nil:
	case retry.IsAttemptsExceeded(err), retry.IsDurationExceeded(err):
		return fmt.Errorf("waitOperation - %s: %w", op.Name, errs.ErrOperationTimeout)
	case retry.IsRetryStopped(err):
		return fmt.Errorf("waitOperation - %s: %w", op.Name, ctx.Err())
	default:
		return fmt.Errorf("waitOperation - %s: %w", op.Name, err)
	}

	if op.Error != nil && len(op.Error.Errors) > 0 {
		msgs := make([]string, 0, len(op.Error.Errors))
		for _, e := range op.Error.Errors {
			msgs = append(msgs, e.Message)
		}

		return fmt.Errorf("waitOperation - %s: %w: %s", op.Name, errs.ErrOperationFailed, strings.Join(msgs, "; "))
	}

	return nil
}
