package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/internal/entity"
	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		App      App
		Log      Log
		GRPC     GRPC
		HTTP     HTTP
		PG       PG
		S3       S3
		Broker   Broker
		Kafka    Kafka
		SQS      SQS
		Stage    Stage
		Capacity Capacity
		Google   Google
		Tracing  Tracing
		Client   Client
	}

	App struct {
		Name            string        `env:"APP_NAME" envDefault:"cntext"`
		ServiceLevel    string        `env:"SERVICE_LEVEL" envDefault:"free"`
		CleanupOnStart  bool          `env:"APP_CLEANUP_ON_START" envDefault:"true"`
		ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	GRPC struct {
		Port              string        `env:"GRPC_PORT" envDefault:"8000"`
		ShutdownTimeout   time.Duration `env:"GRPC_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		ReadinessInterval time.Duration `env:"GRPC_READINESS_INTERVAL" envDefault:"5s"`
	}

	HTTP struct {
		Enabled         bool          `env:"HTTP_ENABLED" envDefault:"true"`
		Port            string        `env:"HTTP_PORT" envDefault:"8080"`
		UsePreforkMode  bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"5s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"3s"`
	}

	PG struct {
		PoolMax     int    `env:"PG_POOL_MAX" envDefault:"10"`
		URL         string `env:"PG_URL,required,notEmpty"`
		AutoMigrate bool   `env:"PG_AUTO_MIGRATE" envDefault:"true"`
	}

	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT"`
		Region         string        `env:"S3_REGION" envDefault:"us-east-1"`
		AccessKey      string        `env:"S3_ACCESS_KEY"`
		SecretKey      string        `env:"S3_SECRET_KEY"`
		Bucket         string        `env:"S3_BUCKET" envDefault:"cntext-images"`
		UsePathStyle   bool          `env:"S3_USE_PATH_STYLE" envDefault:"true"`
		CreateBucket   bool          `env:"S3_CREATE_BUCKET" envDefault:"false"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Broker struct {
		Driver          string `env:"BROKER_DRIVER" envDefault:"kafka"`
		AutoCreateTopic bool   `env:"BROKER_AUTO_CREATE" envDefault:"false"`
	}

	Kafka struct {
		Brokers      []string      `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
		BatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"10ms"`
		MaxWait      time.Duration `env:"KAFKA_MAX_WAIT" envDefault:"500ms"`
	}

	SQS struct {
		Endpoint          string        `env:"SQS_ENDPOINT"`
		Region            string        `env:"SQS_REGION" envDefault:"us-east-1"`
		AccessKey         string        `env:"SQS_ACCESS_KEY"`
		SecretKey         string        `env:"SQS_SECRET_KEY"`
		VisibilityTimeout int32         `env:"SQS_VISIBILITY_TIMEOUT" envDefault:"180"`
		WaitTimeSeconds   int32         `env:"SQS_WAIT_TIME_SECONDS" envDefault:"20"`
		CfgLoadTimeout    time.Duration `env:"SQS_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Stage struct {
		PremiumWorkers  int           `env:"STAGE_PREMIUM_WORKERS"`
		ProcessTimeout  time.Duration `env:"STAGE_PROCESS_TIMEOUT" envDefault:"2m"`
		AckTimeout      time.Duration `env:"STAGE_ACK_TIMEOUT" envDefault:"5s"`
		ShutdownTimeout time.Duration `env:"STAGE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
		MaxImageSide    int           `env:"STAGE_MAX_IMAGE_SIDE" envDefault:"4096"`
	}

	Capacity struct {
		Enabled          bool          `env:"CAPACITY_ENABLED" envDefault:"false"`
		Interval         time.Duration `env:"CAPACITY_INTERVAL" envDefault:"2m"`
		Headroom         int64         `env:"CAPACITY_HEADROOM" envDefault:"2"`
		InstanceGroups   []string      `env:"CAPACITY_INSTANCE_GROUPS" envDefault:"us-central1-a/instance-group-ocr-premium,us-central1-a/instance-group-translation-premium"`
		PollInterval     time.Duration `env:"CAPACITY_POLL_INTERVAL" envDefault:"1s"`
		PollAttempts     int           `env:"CAPACITY_POLL_ATTEMPTS" envDefault:"120"`
		PollTimeout      time.Duration `env:"CAPACITY_POLL_TIMEOUT" envDefault:"2m"`
		RebalanceTimeout time.Duration `env:"CAPACITY_REBALANCE_TIMEOUT" envDefault:"5m"`
	}

	Google struct {
		ProjectID       string `env:"GOOGLE_PROJECT_ID" envDefault:"cn2122-t1-g02"`
		CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
		Endpoint        string `env:"GOOGLE_ENDPOINT"`
	}

	Tracing struct {
		Enabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
		Endpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4317"`
	}

	Client struct {
		ServerAddr   string        `env:"CLIENT_SERVER_ADDR" envDefault:"localhost:8000"`
		PollInterval time.Duration `env:"CLIENT_POLL_INTERVAL" envDefault:"2s"`
		Timeout      time.Duration `env:"CLIENT_TIMEOUT" envDefault:"5m"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Stage.PremiumWorkers <= 0 {
		cfg.Stage.PremiumWorkers = runtime.NumCPU()
	}

	return cfg, nil
}

// NewClient reads only what cmd/client needs.
func NewClient() (*Client, error) {
	cfg := &Client{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, ok := entity.ParseServiceLevel(c.App.ServiceLevel); !ok {
		return fmt.Errorf("SERVICE_LEVEL %q is not free or premium", c.App.ServiceLevel)
	}

	switch c.Broker.Driver {
	case "kafka", "sqs":
	default:
		return fmt.Errorf("BROKER_DRIVER %q is not kafka or sqs", c.Broker.Driver)
	}

	for _, g := range c.Capacity.InstanceGroups {
		if _, err := entity.ParseInstanceGroup(g); err != nil {
			return fmt.Errorf("CAPACITY_INSTANCE_GROUPS: %w", err)
		}
	}

	return nil
}

// Level is the worker tier selected by SERVICE_LEVEL.
func (c *Config) Level() entity.ServiceLevel {
	l, _ := entity.ParseServiceLevel(c.App.ServiceLevel)
	return l
}

// Workers is the number of handler slots of a stage worker of the tier.
func (c *Config) Workers() int {
	if c.Level() == entity.Premium {
		return c.Stage.PremiumWorkers
	}
	return 1
}

func (c *Config) InstanceGroups() []entity.InstanceGroup {
	groups := make([]entity.InstanceGroup, 0, len(c.Capacity.InstanceGroups))
	for _, s := range c.Capacity.InstanceGroups {
		g, _ := entity.ParseInstanceGroup(s)
		groups = append(groups, g)
	}
	return groups
}
