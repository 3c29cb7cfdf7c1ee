package kafka

import (
	"context"
	"fmt"
	"sort"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

type Publisher struct {
	*producer.Producer
}

func NewPublisher(producer *producer.Producer) *Publisher {
	return &Publisher{producer}
}

// Publish writes one work item to topic. Attributes travel as headers.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte, attributes map[string]string) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(attributes[entity.AttrSubmissionID]),
		Value:   payload,
		Headers: toHeaders(attributes),
	}

	err := p.Writer.WriteMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("Publisher - Publish - p.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	err := p.Producer.Close()
	if err != nil {
		return fmt.Errorf("Publisher - Close: %w", err)
	}

	return nil
}

func toHeaders(attributes map[string]string) []kafka.Header {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(attributes[k])})
	}

	return headers
}

func fromHeaders(headers []kafka.Header) map[string]string {
	attributes := make(map[string]string, len(headers))
	for _, h := range headers {
		attributes[h.Key] = string(h.Value)
	}

	return attributes
}
