package capacity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/gauge"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scaler struct {
	mu    sync.Mutex
	sizes map[string]int64
	fail  map[string]error
}

func (s *scaler) Resize(_ context.Context, g entity.InstanceGroup, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail[g.Name]; err != nil {
		return err
	}
	s.sizes[g.Name] = size

	return nil
}

var groups = []entity.InstanceGroup{
	{Zone: "europe-west1-b", Name: "ocr-premium"},
	{Zone: "europe-west1-b", Name: "translation-premium"},
}

func TestRebalanceFollowsGauge(t *testing.T) {
	s := &scaler{sizes: map[string]int64{}}
	premium := gauge.New()
	uc := New(s, groups, premium, DefaultHeadroom, nil, logger.Nop())

	require.NoError(t, uc.Rebalance(context.Background()))
	assert.Equal(t, map[string]int64{"ocr-premium": 2, "translation-premium": 2}, s.sizes)

	premium.Inc()
	premium.Inc()
	premium.Inc()

	require.NoError(t, uc.Rebalance(context.Background()))
	assert.Equal(t, int64(5), s.sizes["ocr-premium"])
	assert.Equal(t, int64(5), s.sizes["translation-premium"])
}

func TestRebalanceContinuesPastFailure(t *testing.T) {
	s := &scaler{
		sizes: map[string]int64{},
		fail:  map[string]error{"ocr-premium": errs.ErrOperationTimeout},
	}
	premium := gauge.New()
	premium.Inc()
	uc := New(s, groups, premium, DefaultHeadroom, nil, logger.Nop())

	err := uc.Rebalance(context.Background())
	require.ErrorIs(t, err, errs.ErrOperationTimeout)
	assert.Contains(t, err.Error(), "europe-west1-b/ocr-premium")
	assert.Equal(t, map[string]int64{"translation-premium": 3}, s.sizes)
}

func TestRebalanceJoinsErrors(t *testing.T) {
	boom := errors.New("quota")
	s := &scaler{
		sizes: map[string]int64{},
		fail:  map[string]error{"ocr-premium": errs.ErrOperationFailed, "translation-premium": boom},
	}
	uc := New(s, groups, gauge.New(), DefaultHeadroom, nil, logger.Nop())

	err := uc.Rebalance(context.Background())
	assert.ErrorIs(t, err, errs.ErrOperationFailed)
	assert.ErrorIs(t, err, boom)
}
