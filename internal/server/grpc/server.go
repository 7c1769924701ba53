// Package grpc serves the standard grpc.health.v1 service. Its status
// follows periodic database pings, so load balancers and orchestrators can
// probe the recipe book without going through the REST API.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/recipebook/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "recipebook"

// CheckFunc probes a dependency; a nil error means healthy.
type CheckFunc func(ctx context.Context) error

type HealthServer struct {
	address  string
	logger   logging.Logger
	check    CheckFunc
	interval time.Duration
	health   *health.Server
}

// defaultInterval is used when the configured interval is not positive.
const defaultInterval = 10 * time.Second

func NewHealthServer(a string, l logging.Logger, check CheckFunc, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = defaultInterval
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		check:    check,
		interval: interval,
		health:   hs,
	}
}

func (s *HealthServer) Run(ctx context.Context) error {
	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	// registers service
	healthpb.RegisterHealthServer(srv, s.health)

	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// watch probes immediately and then on every tick until ctx is done.
func (s *HealthServer) watch(ctx context.Context) {
	s.probe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.probe(ctx)
		}
	}
}

func (s *HealthServer) probe(ctx context.Context) {
	timeout := s.interval
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.check(pctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn(ctx, "health check failed", "err", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
