package app

import (
	"context"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/config"
	grpcv1 "github.com/RXLU5x/translate-image-text-cloud/internal/controller/grpc/v1"
	"github.com/RXLU5x/translate-image-text-cloud/internal/controller/restapi"
	capacityworker "github.com/RXLU5x/translate-image-text-cloud/internal/controller/worker/capacity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/infrastructure/google"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/persistent"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/capacity"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/ingestion"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/session"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/submission"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/gauge"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/grpcserver"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/httpserver"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/api/compute/v1"
	"google.golang.org/grpc"
)

// RunServer runs the client-facing server: the RPC surface, the REST polling
// surface and the capacity controller.
func RunServer(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level, logger.Service(cfg.App.Name+"-server"))

	// Observability
	tp := startTracing(ctx, cfg, cfg.App.Name+"-server", l)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	premium := gauge.New()
	metrics.RegisterGauge(reg, "premium_sessions", "Premium submissions accepted since start.", premium.Value)

	// Repository
	pg, err := openPostgres(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunServer - openPostgres: %w", err))
	}
	defer pg.Close()

	objects, err := openObjects(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunServer - openObjects: %w", err))
	}

	users := persistent.NewUserRepo(pg)
	sessions := persistent.NewSessionRepo(pg)
	submissions := persistent.NewSubmissionRepo(pg)

	// Broker
	broker, err := newBroker(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunServer - newBroker: %w", err))
	}

	publisher, err := broker.Publisher(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunServer - broker.Publisher: %w", err))
	}
	defer closeOnExit(publisher, l)

	// Use-Case
	sessionUseCase := session.New(users, sessions, pg, l)
	submissionUseCase := submission.New(sessions, submissions, pg, m)
	ingestionUseCase := ingestion.New(submissionUseCase, objects, publisher, premium, m, l)

	// Submissions go first: they outlive their session once it is signed out.
	if cfg.App.CleanupOnStart {
		cleanup(ctx, l, submissionUseCase, sessionUseCase)
	}

	// Capacity Controller
	var capacityWorker *capacityworker.Worker
	if cfg.Capacity.Enabled {
		svc, err := compute.NewService(ctx, googleOptions(cfg)...)
		if err != nil {
			l.Fatal(fmt.Errorf("app - RunServer - compute.NewService: %w", err))
		}

		scaler := google.NewScaler(svc, cfg.Google.ProjectID,
			google.PollInterval(cfg.Capacity.PollInterval),
			google.PollAttempts(cfg.Capacity.PollAttempts),
			google.PollTimeout(cfg.Capacity.PollTimeout),
		)
		capacityUseCase := capacity.New(scaler, cfg.InstanceGroups(), premium, cfg.Capacity.Headroom, m, l)
		capacityWorker = capacityworker.New(capacityUseCase, clock.WallClock, l, cfg.Capacity.Interval, cfg.Capacity.RebalanceTimeout)
	}

	// gRPC Server
	grpcServer := grpcserver.New(l,
		grpcserver.Port(cfg.GRPC.Port),
		grpcserver.ShutdownTimeout(cfg.GRPC.ShutdownTimeout),
		grpcserver.ServerOptions(grpc.StatsHandler(otelgrpc.NewServerHandler())),
		grpcserver.Readiness(cfg.GRPC.ReadinessInterval, pg.Ping),
	)
	grpcv1.NewCNTextRoutes(grpcServer.App, sessionUseCase, submissionUseCase, ingestionUseCase, l)

	// HTTP Server
	var httpServer *httpserver.Server
	if cfg.HTTP.Enabled {
		httpServer = httpserver.New(l, httpOptions(cfg, httpserver.Prefork(cfg.HTTP.UsePreforkMode))...)
		restapi.NewRouter(httpServer.App, reg, pg, submissionUseCase, l)
	}

	// Start Components
	if capacityWorker != nil {
		err = capacityWorker.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - RunServer - capacityWorker.Start: %w", err))
		}
	}

	err = grpcServer.Start()
	if err != nil {
		l.Fatal(fmt.Errorf("app - RunServer - grpcServer.Start: %w", err))
	}

	notify := grpcServer.Notify()
	if httpServer != nil {
		httpServer.Start()
		notify = merge(grpcServer.Notify(), httpServer.Notify())
	}

	// Waiting Signal
	waitSignal(l, notify)

	// Shutdown
	err = grpcServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - RunServer - grpcServer.Shutdown: %w", err))
	}

	if httpServer != nil {
		err = httpServer.Shutdown()
		if err != nil {
			l.Error(fmt.Errorf("app - RunServer - httpServer.Shutdown: %w", err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if capacityWorker != nil {
		err = capacityWorker.Shutdown(shutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - RunServer - capacityWorker.Shutdown: %w", err))
		}
	}

	stopTracing(shutdownCtx, tp, l)
}

type deleter interface {
	DeleteAll(ctx context.Context) (int, error)
}

func cleanup(ctx context.Context, l logger.Interface, targets ...deleter) {
	for _, t := range targets {
		n, err := t.DeleteAll(ctx)
		if err != nil {
			l.Error(fmt.Errorf("app - cleanup - %T.DeleteAll: %w", t, err))

			continue
		}

		l.Info("app - cleanup - %T removed %d records", t, n)
	}
}

func merge(a, b <-chan error) <-chan error {
	out := make(chan error, 2)

	for _, c := range []<-chan error{a, b} {
		go func(c <-chan error) {
			if err, ok := <-c; ok {
				out <- err
			}
		}(c)
	}

	return out
}
