package grpcserver

import (
	"net"
	"time"

	"google.golang.org/grpc"
)

type Option func(*Server)

func Port(port string) Option {
	return func(s *Server) {
		s.address = net.JoinHostPort("", port)
	}
}

// Listener serves on lis instead of listening on the configured port.
func Listener(lis net.Listener) Option {
	return func(s *Server) {
		s.listener = lis
	}
}

func ServerOptions(opts ...grpc.ServerOption) Option {
	return func(s *Server) {
		s.serverOptions = append(s.serverOptions, opts...)
	}
}

func ShutdownTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

func Readiness(interval time.Duration, checks ...ReadinessCheck) Option {
	return func(s *Server) {
		s.readinessInterval = interval
		s.checks = append(s.checks, checks...)
	}
}
