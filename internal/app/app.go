package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RXLU5x/translate-image-text-cloud/config"
	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure"
	infrakafka "github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/kafka"
	infrasqs "github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/sqs"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/persistent"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/httpserver"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/kafka/consumer"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/kafka/producer"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/postgres"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/s3client"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/sqsclient"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/api/option"
)

// Broker opens publishers and subscription sources of the configured driver.
type Broker struct {
	cfg *config.Config
	sqs *sqsclient.SQSClient
}

func newBroker(ctx context.Context, cfg *config.Config) (*Broker, error) {
	b := &Broker{cfg: cfg}

	if cfg.Broker.Driver == "sqs" {
		sqsCtx, sqsCancel := context.WithTimeout(ctx, cfg.SQS.CfgLoadTimeout)
		defer sqsCancel()

		c, err := sqsclient.New(sqsCtx, cfg.SQS.Endpoint, cfg.SQS.AccessKey, cfg.SQS.SecretKey, sqsclient.Region(cfg.SQS.Region))
		if err != nil {
			return nil, fmt.Errorf("app - newBroker - sqsclient.New: %w", err)
		}
		b.sqs = c
	}

	return b, nil
}

func (b *Broker) Publisher(ctx context.Context) (infrastructure.Publisher, error) {
	if b.sqs != nil {
		return infrasqs.NewPublisher(b.sqs, b.cfg.Broker.AutoCreateTopic), nil
	}

	p, err := producer.New(ctx, b.cfg.Kafka.Brokers,
		producer.BatchTimeout(b.cfg.Kafka.BatchTimeout),
		producer.AllowAutoTopicCreation(b.cfg.Broker.AutoCreateTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("app - Broker - Publisher - producer.New: %w", err)
	}

	return infrakafka.NewPublisher(p), nil
}

// Source subscribes the worker pool of the tier to topic.
func (b *Broker) Source(ctx context.Context, topic string) (infrastructure.MessageSource, error) {
	if b.sqs != nil {
		return infrasqs.NewSource(b.sqs, topic, b.cfg.Broker.AutoCreateTopic,
			infrasqs.VisibilityTimeout(b.cfg.SQS.VisibilityTimeout),
			infrasqs.WaitTimeSeconds(b.cfg.SQS.WaitTimeSeconds),
		), nil
	}

	c, err := consumer.New(ctx, b.cfg.Kafka.Brokers, entity.Subscription(topic), topic,
		consumer.MaxWait(b.cfg.Kafka.MaxWait),
	)
	if err != nil {
		return nil, fmt.Errorf("app - Broker - Source - consumer.New: %w", err)
	}

	return infrakafka.NewSource(c), nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*postgres.Postgres, error) {
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		return nil, fmt.Errorf("app - openPostgres - postgres.New: %w", err)
	}

	if cfg.PG.AutoMigrate {
		if err := persistent.Migrate(ctx, pg); err != nil {
			pg.Close()

			return nil, fmt.Errorf("app - openPostgres - persistent.Migrate: %w", err)
		}
	}

	return pg, nil
}

func openObjects(ctx context.Context, cfg *config.Config) (*persistent.ObjectRepo, error) {
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()

	opts := []s3client.Option{
		s3client.Region(cfg.S3.Region),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
	}
	if cfg.S3.CreateBucket {
		opts = append(opts, s3client.EnsureBucket(cfg.S3.Bucket))
	}

	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("app - openObjects - s3client.New: %w", err)
	}

	return persistent.NewObjectRepo(s3c, cfg.S3.Bucket), nil
}

func httpOptions(cfg *config.Config, extra ...httpserver.Option) []httpserver.Option {
	return append([]httpserver.Option{
		httpserver.Name(cfg.App.Name),
		httpserver.Port(cfg.HTTP.Port),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	}, extra...)
}

func googleOptions(cfg *config.Config) []option.ClientOption {
	var opts []option.ClientOption

	if cfg.Google.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Google.CredentialsFile))
	}
	if cfg.Google.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Google.Endpoint), option.WithoutAuthentication())
	}

	return opts
}

func startTracing(ctx context.Context, cfg *config.Config, service string, l logger.Interface) *sdktrace.TracerProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}

	tp, err := tracing.New(ctx, service, cfg.Tracing.Endpoint)
	if err != nil {
		l.Error(fmt.Errorf("app - startTracing - tracing.New: %w", err))

		return nil
	}

	return tp
}

func stopTracing(ctx context.Context, tp *sdktrace.TracerProvider, l logger.Interface) {
	if tp == nil {
		return
	}

	if err := tp.Shutdown(ctx); err != nil {
		l.Error(fmt.Errorf("app - stopTracing - tp.Shutdown: %w", err))
	}
}

func waitSignal(l logger.Interface, notify <-chan error) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err := <-notify:
		l.Error(fmt.Errorf("app - Run - server notify: %w", err))
	}
}
