package sqs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/sqsclient"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const (
	_defaultBatchSize         = 10
	_defaultWaitTimeSeconds   = 20
	_defaultVisibilityTimeout = 60
)

var errForeignReceipt = errors.New("message was not received from sqs")

// Source long-polls one queue and hands out messages one at a time.
type Source struct {
	client api
	queues *queues
	queue  string

	batchSize         int32
	waitTimeSeconds   int32
	visibilityTimeout int32

	mu      sync.Mutex
	pending []types.Message
}

type SourceOption func(*Source)

// VisibilityTimeout is how long a received message stays hidden before redelivery.
func VisibilityTimeout(seconds int32) SourceOption {
	return func(s *Source) {
		s.visibilityTimeout = seconds
	}
}

func WaitTimeSeconds(seconds int32) SourceOption {
	return func(s *Source) {
		s.waitTimeSeconds = seconds
	}
}

func BatchSize(n int32) SourceOption {
	return func(s *Source) {
		s.batchSize = n
	}
}

func NewSource(c *sqsclient.SQSClient, queue string, autoCreate bool, opts ...SourceOption) *Source {
	return newSource(c.Client, queue, autoCreate, opts...)
}

func newSource(client api, queue string, autoCreate bool, opts ...SourceOption) *Source {
	s := &Source{
		client:            client,
		queues:            newQueues(client, autoCreate),
		queue:             queue,
		batchSize:         _defaultBatchSize,
		waitTimeSeconds:   _defaultWaitTimeSeconds,
		visibilityTimeout: _defaultVisibilityTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Fetch blocks until a message is available or ctx is done.
func (s *Source) Fetch(ctx context.Context) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		url, err := s.queues.url(ctx, s.queue)
		if err != nil {
			return nil, fmt.Errorf("Source - Fetch - s.queues.url: %w", err)
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(url),
			MaxNumberOfMessages:   s.batchSize,
			WaitTimeSeconds:       s.waitTimeSeconds,
			VisibilityTimeout:     s.visibilityTimeout,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			return nil, fmt.Errorf("Source - Fetch - s.client.ReceiveMessage: %w", err)
		}

		s.pending = out.Messages
	}

	m := s.pending[0]
	s.pending = s.pending[1:]

	return &entity.Message{
		ID:         aws.ToString(m.MessageId),
		Payload:    []byte(aws.ToString(m.Body)),
		Attributes: fromAttributes(m.MessageAttributes),
		Receipt:    m.ReceiptHandle,
	}, nil
}

// Ack deletes msg from the queue.
func (s *Source) Ack(ctx context.Context, msg *entity.Message) error {
	handle, ok := msg.Receipt.(*string)
	if !ok {
		return fmt.Errorf("Source - Ack: %w", errForeignReceipt)
	}

	url, err := s.queues.url(ctx, s.queue)
	if err != nil {
		return fmt.Errorf("Source - Ack - s.queues.url: %w", err)
	}

	_, err = s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(url),
		ReceiptHandle: handle,
	})
	if err != nil {
		return fmt.Errorf("Source - Ack - s.client.DeleteMessage: %w", err)
	}

	return nil
}

func (s *Source) Close() error {
	return nil
}
