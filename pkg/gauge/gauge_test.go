package gauge

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterConcurrentInc(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()

	require.Equal(t, int64(50), c.Value())
}
