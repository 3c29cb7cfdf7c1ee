package stage

import "time"

type Option func(*Controller)

// Workers sets the number of concurrent handler slots. Values below one
// are ignored.
func Workers(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.workers = n
		}
	}
}

func AckTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.ackTimeout = d
	}
}

func ProcessTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.processTimeout = d
	}
}

func FetchBackoff(d time.Duration) Option {
	return func(c *Controller) {
		c.fetchBackoff = d
	}
}
