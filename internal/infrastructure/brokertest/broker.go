// Package brokertest is an in-memory broker for tests of the stage pipeline.
package brokertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
)

const _queueSize = 1024

type Broker struct {
	mu        sync.Mutex
	queues    map[string]chan *entity.Message
	published []Published
	acked     []string
	nextID    int

	// FailPublish makes Publish return this error.
	FailPublish error
}

// Published is a message as handed to Publish.
type Published struct {
	Topic      string
	Payload    []byte
	Attributes map[string]string
}

var _ infrastructure.Publisher = (*Broker)(nil)

func New() *Broker {
	return &Broker{queues: make(map[string]chan *entity.Message)}
}

func (b *Broker) queue(topic string) chan *entity.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[topic]
	if !ok {
		q = make(chan *entity.Message, _queueSize)
		b.queues[topic] = q
	}

	return q
}

func (b *Broker) Publish(_ context.Context, topic string, payload []byte, attributes map[string]string) error {
	b.mu.Lock()
	if b.FailPublish != nil {
		err := b.FailPublish
		b.mu.Unlock()

		return err
	}

	b.nextID++
	attrs := make(map[string]string, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	msg := &entity.Message{
		ID:         fmt.Sprintf("%s-%d", topic, b.nextID),
		Payload:    append([]byte(nil), payload...),
		Attributes: attrs,
	}
	b.published = append(b.published, Published{Topic: topic, Payload: msg.Payload, Attributes: attrs})
	b.mu.Unlock()

	b.queue(topic) <- msg

	return nil
}

// Deliver puts msg on topic as if it had been published, without recording it.
func (b *Broker) Deliver(topic string, msg *entity.Message) {
	b.queue(topic) <- msg
}

func (b *Broker) Published() []Published {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Published(nil), b.published...)
}

func (b *Broker) Acked() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]string(nil), b.acked...)
}

func (b *Broker) Close() error {
	return nil
}

// Source returns a consumer of topic.
func (b *Broker) Source(topic string) infrastructure.MessageSource {
	return &source{b: b, q: b.queue(topic)}
}

type source struct {
	b *Broker
	q chan *entity.Message
}

func (s *source) Fetch(ctx context.Context) (*entity.Message, error) {
	select {
	case msg := <-s.q:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *source) Ack(_ context.Context, msg *entity.Message) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	s.b.acked = append(s.b.acked, msg.ID)

	return nil
}

func (s *source) Close() error {
	return nil
}
