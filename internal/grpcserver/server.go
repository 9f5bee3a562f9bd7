// Package grpcserver exposes the standard gRPC health service so
// orchestrators can gate traffic on the metadata index being loaded.
package grpcserver

import (
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"sessionmeta/internal/meta"
	"sessionmeta/pkg/logger"
)

// ServiceName is the health-checked service; the empty name reports the
// server as a whole.
const ServiceName = "sessionmeta.MetaIndex"

type Server struct {
	Addr   string
	log    *logger.Logger
	grpc   *grpc.Server
	health *health.Server
}

func NewServer(addr string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{Addr: addr, log: log, grpc: gs, health: hs}
}

// SetIndex updates the service status from the index just published.
// It is registered as a store reload hook.
func (s *Server) SetIndex(ix *meta.Index) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ix != nil && ix.Loaded() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(ServiceName, st)
	s.log.Debug("grpc health updated", "service", ServiceName, "status", st.String())
}

func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("grpc health listening", "addr", ln.Addr().String())
	return s.grpc.Serve(ln)
}

// Run listens on Addr and serves until Stop, including a Stop that lands
// before the listener is up.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	if err := s.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop flips every service to NOT_SERVING, then drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
