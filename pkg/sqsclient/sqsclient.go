package sqsclient

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultRegion       = "us-east-1"
)

type SQSClient struct {
	connAttempts int
	connTimeout  time.Duration

	endpoint  string
	region    string
	accessKey string
	secretKey string

	Client *sqs.Client
}

// New connects to SQS. An empty endpoint keeps the AWS default resolver and
// an empty access key the default credential chain.
func New(ctx context.Context, endpoint, accessKey, secretKey string, opts ...Option) (*SQSClient, error) {
	c := &SQSClient{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		region:       _defaultRegion,
		endpoint:     endpoint,
		accessKey:    accessKey,
		secretKey:    secretKey,
	}

	for _, opt := range opts {
		opt(c)
	}

	var err error
	for c.connAttempts > 0 {
		err = c.connect(ctx)
		if err == nil {
			break
		}

		log.Printf("SQS is trying to connect, attempts left: %d", c.connAttempts)

		time.Sleep(c.connTimeout)

		c.connAttempts--
	}

	if err != nil {
		return nil, fmt.Errorf("SQSClient - New - connAttempts == 0: %w", err)
	}

	return c, nil
}

func (c *SQSClient) connect(ctx context.Context) error {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(c.region)}
	if c.accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.accessKey, c.secretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("SQSClient - config.LoadDefaultConfig: %w", err)
	}

	c.Client = sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
		}
	})

	// check connection
	_, err = c.Client.ListQueues(ctx, &sqs.ListQueuesInput{MaxResults: aws.Int32(1)})
	if err != nil {
		return fmt.Errorf("SQSClient - c.Client.ListQueues: %w", err)
	}

	return nil
}
