package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

type partitionKey struct {
	topic     string
	partition int
}

// partitionOffsets holds the offsets fetched from one partition and not yet
// committed, in fetch order, and which of them were acknowledged.
type partitionOffsets struct {
	pending []int64
	acked   map[int64]kafka.Message
}

// offsets lets handler slots acknowledge in any order while the group only
// ever commits up to the oldest offset still being handled. Committing the
// offset of a later message would otherwise also commit every earlier one.
type offsets struct {
	mu    sync.Mutex
	parts map[partitionKey]*partitionOffsets
}

func newOffsets() *offsets {
	return &offsets{parts: make(map[partitionKey]*partitionOffsets)}
}

func (o *offsets) fetched(m kafka.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()

	k := partitionKey{m.Topic, m.Partition}
	p, ok := o.parts[k]

	// A fetch at or below an offset already pending means the group
	// rebalanced and rewound the partition to its last commit.
	if !ok || (len(p.pending) > 0 && m.Offset <= p.pending[len(p.pending)-1]) {
		p = &partitionOffsets{acked: make(map[int64]kafka.Message)}
		o.parts[k] = p
	}

	p.pending = append(p.pending, m.Offset)
}

// ack records m as handled and commits the longest handled prefix of its
// partition, if it grew. Commits are serialized so they never go backwards.
func (o *offsets) ack(ctx context.Context, m kafka.Message, commit func(context.Context, kafka.Message) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.parts[partitionKey{m.Topic, m.Partition}]
	if !ok {
		return nil
	}

	if !p.isPending(m.Offset) {
		// Fetched before a rebalance rewound the partition; it will come again.
		return nil
	}
	p.acked[m.Offset] = m

	var (
		last    kafka.Message
		advance bool
	)
	for len(p.pending) > 0 {
		done, ok := p.acked[p.pending[0]]
		if !ok {
			break
		}
		delete(p.acked, p.pending[0])
		p.pending = p.pending[1:]
		last, advance = done, true
	}

	if !advance {
		return nil
	}

	return commit(ctx, last)
}

func (p *partitionOffsets) isPending(offset int64) bool {
	for _, o := range p.pending {
		if o == offset {
			return true
		}
	}
	return false
}
