package sqs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// api is the part of *sqs.Client the adapters use.
type api interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

var _ api = (*sqs.Client)(nil)

// queues resolves queue names to URLs once per name.
type queues struct {
	client     api
	autoCreate bool

	mu   sync.Mutex
	urls map[string]string
}

func newQueues(client api, autoCreate bool) *queues {
	return &queues{
		client:     client,
		autoCreate: autoCreate,
		urls:       make(map[string]string),
	}
}

func (q *queues) url(ctx context.Context, name string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if u, ok := q.urls[name]; ok {
		return u, nil
	}

	out, err := q.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		var missing *types.QueueDoesNotExist
		if !q.autoCreate || !errors.As(err, &missing) {
			return "", fmt.Errorf("queues - url - q.client.GetQueueUrl: %w", err)
		}

		created, cerr := q.client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(name)})
		if cerr != nil {
			return "", fmt.Errorf("queues - url - q.client.CreateQueue: %w", cerr)
		}

		q.urls[name] = aws.ToString(created.QueueUrl)

		return q.urls[name], nil
	}

	q.urls[name] = aws.ToString(out.QueueUrl)

	return q.urls[name], nil
}

func toAttributes(attributes map[string]string) map[string]types.MessageAttributeValue {
	out := make(map[string]types.MessageAttributeValue, len(attributes))
	for k, v := range attributes {
		out[k] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(v),
		}
	}

	return out
}

func fromAttributes(attributes map[string]types.MessageAttributeValue) map[string]string {
	out := make(map[string]string, len(attributes))
	for k, v := range attributes {
		if v.StringValue != nil {
			out[k] = *v.StringValue
		}
	}

	return out
}
