package sqs

import (
	"context"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/sqsclient"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Publisher sends work items to the queue named after the topic.
type Publisher struct {
	client api
	queues *queues
}

func NewPublisher(c *sqsclient.SQSClient, autoCreate bool) *Publisher {
	return newPublisher(c.Client, autoCreate)
}

func newPublisher(client api, autoCreate bool) *Publisher {
	return &Publisher{
		client: client,
		queues: newQueues(client, autoCreate),
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte, attributes map[string]string) error {
	url, err := p.queues.url(ctx, topic)
	if err != nil {
		return fmt.Errorf("Publisher - Publish - p.queues.url: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          aws.String(url),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: toAttributes(attributes),
	})
	if err != nil {
		return fmt.Errorf("Publisher - Publish - p.client.SendMessage: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return nil
}
