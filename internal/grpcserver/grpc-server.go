package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service entry that tracks the order store.
const ServiceName = "orders.OrderPlacement"

type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	addr     string
	pinger   Pinger
	interval time.Duration
	server   *grpc.Server
	health   *health.Server
}

func NewGRPCServer(addr string, pinger Pinger, interval time.Duration) *GRPCServer {
	hs := health.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &GRPCServer{
		addr:     addr,
		pinger:   pinger,
		interval: interval,
		server:   server,
		health:   hs,
	}
}

func (s *GRPCServer) Listen() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

func (s *GRPCServer) Serve(l net.Listener) error {
	logrus.WithFields(logrus.Fields{
		"addr":     l.Addr().String(),
		"services": len(s.server.GetServiceInfo()),
	}).Info("GRPC:LISTENING")
	if err := s.server.Serve(l); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// CheckNow pings the store once and publishes the result.
func (s *GRPCServer) CheckNow(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, time.Second*2)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		logrus.WithError(err).Warn("GRPC:STORE_UNHEALTHY")
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// WatchHealth re-checks the store every interval until ctx is done.
func (s *GRPCServer) WatchHealth(ctx context.Context) error {
	s.CheckNow(ctx)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.CheckNow(ctx)
		}
	}
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
