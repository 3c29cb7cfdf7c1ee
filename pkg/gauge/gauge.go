// Package gauge provides the in-process active premium session counter.
package gauge

import "sync/atomic"

// Counter starts at zero and only grows. It is safe for concurrent use.
type Counter struct {
	v atomic.Int64
}

func New() *Counter {
	return &Counter{}
}

func (c *Counter) Inc() int64 {
	return c.v.Add(1)
}

func (c *Counter) Value() int64 {
	return c.v.Load()
}
