package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/RXLU5x/translate-image-text-cloud/pkg/logger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	_defaultAddr              = ":50051"
	_defaultShutdownTimeout   = 3 * time.Second
	_defaultReadinessInterval = 5 * time.Second
	_defaultReadinessTimeout  = 500 * time.Millisecond
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	eg     *errgroup.Group

	App    *grpc.Server
	Health *health.Server
	notify chan error

	address           string
	listener          net.Listener
	serverOptions     []grpc.ServerOption
	shutdownTimeout   time.Duration
	checks            []ReadinessCheck
	readinessInterval time.Duration

	logger logger.Interface
}

func New(l logger.Interface, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	s := &Server{
		ctx:               ctx,
		cancel:            cancel,
		eg:                group,
		notify:            make(chan error, 1),
		address:           _defaultAddr,
		shutdownTimeout:   _defaultShutdownTimeout,
		readinessInterval: _defaultReadinessInterval,
		logger:            l,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.App = grpc.NewServer(s.serverOptions...)

	// Pessimistic until the first readiness round passes.
	s.Health = health.NewServer()
	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.App, s.Health)

	return s
}

func (s *Server) Start() error {
	lis := s.listener
	if lis == nil {
		var err error

		lis, err = net.Listen("tcp", s.address)
		if err != nil {
			return fmt.Errorf("grpc server - Server - Start - net.Listen: %w", err)
		}
	}

	s.eg.Go(func() error {
		err := s.App.Serve(lis)
		if err != nil {
			s.notify <- err
			close(s.notify)

			return err
		}
		return nil
	})

	s.eg.Go(func() error {
		s.readiness()

		return nil
	})

	s.logger.Info("grpc server - Server - Started on %s", lis.Addr())

	return nil
}

func (s *Server) readiness() {
	ticker := time.NewTicker(s.readinessInterval)
	defer ticker.Stop()

	for {
		s.Health.SetServingStatus("", s.probe())

		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) probe() healthpb.HealthCheckResponse_ServingStatus {
	for _, check := range s.checks {
		ctx, cancel := context.WithTimeout(s.ctx, _defaultReadinessTimeout)
		err := check(ctx)
		cancel()

		if err != nil {
			s.logger.Warn("grpc server - Server - readiness: %v", err)

			return healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	return healthpb.HealthCheckResponse_SERVING
}

func (s *Server) Notify() <-chan error {
	return s.notify
}

func (s *Server) Shutdown() error {
	var shutdownErrors []error

	s.Health.Shutdown()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.App.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.shutdownTimeout):
		s.App.Stop()
		shutdownErrors = append(shutdownErrors, errors.New("grpc server - graceful stop timed out"))
	}

	err := s.eg.Wait()
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		s.logger.Error(err, "grpc server - Server - Shutdown - s.eg.Wait")

		shutdownErrors = append(shutdownErrors, err)
	}

	s.logger.Info("grpc server - Server - Shutdown")

	return errors.Join(shutdownErrors...)
}
