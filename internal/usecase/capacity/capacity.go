package capacity

import (
	"context"
	"errors"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/gauge"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
)

// DefaultHeadroom is the number of idle premium workers kept above the gauge.
const DefaultHeadroom = 2

// CapacityUseCase sizes the premium instance groups from the premium gauge.
type CapacityUseCase struct {
	scaler   infrastructure.InstanceGroupScaler
	groups   []entity.InstanceGroup
	premium  *gauge.Counter
	headroom int64

	metrics *metrics.Metrics
	logger  logger.Interface
}

func New(
	scaler infrastructure.InstanceGroupScaler,
	groups []entity.InstanceGroup,
	premium *gauge.Counter,
	headroom int64,
	m *metrics.Metrics,
	l logger.Interface,
) *CapacityUseCase {
	return &CapacityUseCase{
		scaler:   scaler,
		groups:   groups,
		premium:  premium,
		headroom: headroom,
		metrics:  m,
		logger:   l,
	}
}

// Target is the size every premium group is resized to.
func (uc *CapacityUseCase) Target() int64 {
	return uc.premium.Value() + uc.headroom
}

// Rebalance resizes each group in turn. A failing group does not stop the
// others; all failures are returned joined.
func (uc *CapacityUseCase) Rebalance(ctx context.Context) error {
	size := uc.Target()

	var errList []error

	for _, g := range uc.groups {
		err := uc.scaler.Resize(ctx, g, size)
		uc.metrics.Resized(err)
		if err != nil {
			errList = append(errList, fmt.Errorf("CapacityUseCase - Rebalance - %s: %w", g, err))

			continue
		}

		uc.logger.Debug("CapacityUseCase - Rebalance - %s resized to %d", g, size)
	}

	return errors.Join(errList...)
}
