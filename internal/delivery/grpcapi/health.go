package grpcapi

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "shvark.product.v1.ProductService"

// HealthHandler publishes readiness of the whole process under both the
// empty service name and ServiceName.
type HealthHandler struct {
	server *health.Server
}

func NewHealthHandler() *HealthHandler {
	h := &HealthHandler{server: health.NewServer()}
	h.SetServing(false)
	return h
}

func (h *HealthHandler) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}

// Shutdown marks everything NOT_SERVING and ignores later updates.
func (h *HealthHandler) Shutdown() {
	h.server.Shutdown()
}

func NewGRPCServer(h *HealthHandler, opts ...grpc.ServerOption) *grpc.Server {
	grpcServer := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(grpcServer, h.server)
	reflection.Register(grpcServer)
	return grpcServer
}
