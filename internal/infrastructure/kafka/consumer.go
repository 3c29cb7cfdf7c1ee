package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/kafka/consumer"
	"github.com/segmentio/kafka-go"
)

var errForeignReceipt = errors.New("message was not fetched from kafka")

type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Source delivers the messages of one consumer group. Deliveries may be
// acknowledged in any order by concurrent handlers.
type Source struct {
	reader  reader
	closer  io.Closer
	offsets *offsets
}

func NewSource(c *consumer.Consumer) *Source {
	return newSource(c.Reader, c)
}

func newSource(r reader, closer io.Closer) *Source {
	return &Source{
		reader:  r,
		closer:  closer,
		offsets: newOffsets(),
	}
}

func (s *Source) Fetch(ctx context.Context) (*entity.Message, error) {
	m, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("Source - Fetch - s.reader.FetchMessage: %w", err)
	}

	s.offsets.fetched(m)

	return &entity.Message{
		ID:         fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset),
		Payload:    m.Value,
		Attributes: fromHeaders(m.Headers),
		Receipt:    m,
	}, nil
}

// Ack marks msg handled. The group offset only moves past msg once every
// earlier message of its partition was acknowledged too.
func (s *Source) Ack(ctx context.Context, msg *entity.Message) error {
	m, ok := msg.Receipt.(kafka.Message)
	if !ok {
		return fmt.Errorf("Source - Ack: %w", errForeignReceipt)
	}

	err := s.offsets.ack(ctx, m, func(ctx context.Context, m kafka.Message) error {
		return s.reader.CommitMessages(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("Source - Ack - s.reader.CommitMessages: %w", err)
	}

	return nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	if err != nil {
		return fmt.Errorf("Source - Close: %w", err)
	}

	return nil
}
