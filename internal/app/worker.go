package app

import (
	"context"
	"fmt"

	"github.com/RXLU5x/translate-image-text-cloud/config"
	"github.com/RXLU5x/translate-image-text-cloud/internal/controller/stage"
	"github.com/RXLU5x/translate-image-text-cloud/internal/repo/persistent"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase"
	"github.com/RXLU5x/translate-image-text-cloud/internal/usecase/submission"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/httpserver"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/metrics"
	"github.com/RXLU5x/translate-image-text-cloud/pkg/postgres"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// worker holds the dependencies every stage binary shares.
type worker struct {
	cfg *config.Config
	l   logger.Interface
	reg *prometheus.Registry
	m   *metrics.Metrics

	pg          *postgres.Postgres
	broker      *Broker
	submissions usecase.SubmissionUseCase
}

func newWorker(ctx context.Context, cfg *config.Config, name string) *worker {
	l := logger.New(cfg.Log.Level, logger.Service(cfg.App.Name+"-"+name+"-"+cfg.App.ServiceLevel))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	pg, err := openPostgres(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - newWorker - openPostgres: %w", err))
	}

	broker, err := newBroker(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - newWorker - newBroker: %w", err))
	}

	return &worker{
		cfg:         cfg,
		l:           l,
		reg:         reg,
		m:           m,
		pg:          pg,
		broker:      broker,
		submissions: submission.New(persistent.NewSessionRepo(pg), persistent.NewSubmissionRepo(pg), pg, m),
	}
}

// run consumes topic with handler until a signal arrives.
func (w *worker) run(ctx context.Context, name, topic string, handler usecase.StageHandler) {
	defer w.pg.Close()

	source, err := w.broker.Source(ctx, topic)
	if err != nil {
		w.l.Fatal(fmt.Errorf("app - run - w.broker.Source: %w", err))
	}

	controller := stage.New(name, source, handler, w.l,
		stage.Workers(w.cfg.Workers()),
		stage.ProcessTimeout(w.cfg.Stage.ProcessTimeout),
		stage.AckTimeout(w.cfg.Stage.AckTimeout),
	)

	// Metrics only; the worker answers no client requests.
	var httpServer *httpserver.Server
	if w.cfg.HTTP.Enabled {
		httpServer = httpserver.New(w.l, httpOptions(w.cfg)...)
		httpServer.App.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(w.reg, promhttp.HandlerOpts{})))
		httpServer.Start()
	}

	err = controller.Start(ctx)
	if err != nil {
		w.l.Fatal(fmt.Errorf("app - run - controller.Start: %w", err))
	}

	var notify <-chan error
	if httpServer != nil {
		notify = httpServer.Notify()
	}
	waitSignal(w.l, notify)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), w.cfg.Stage.ShutdownTimeout)
	defer shutdownCancel()

	err = controller.Shutdown(shutdownCtx)
	if err != nil {
		w.l.Error(fmt.Errorf("app - run - controller.Shutdown: %w", err))
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(); err != nil {
			w.l.Error(fmt.Errorf("app - run - httpServer.Shutdown: %w", err))
		}
	}
}

func closeOnExit(c interface{ Close() error }, l logger.Interface) {
	if err := c.Close(); err != nil {
		l.Error(fmt.Errorf("app - closeOnExit - %T.Close: %w", c, err))
	}
}
