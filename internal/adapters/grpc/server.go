package grpc

import (
	"context"

	"github.com/hackdao/governance-service/internal/application"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type GovernanceInternalServer struct {
	grpc_health_v1.UnimplementedHealthServer
	service *application.Service
}

func NewGovernanceInternalServer(service *application.Service) *GovernanceInternalServer {
	return &GovernanceInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc *GovernanceInternalServer) {
	grpc_health_v1.RegisterHealthServer(server, svc)
}

func (s *GovernanceInternalServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	_ = ctx
	_ = req
	return &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}, nil
}

func (s *GovernanceInternalServer) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	_ = req
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING})
}
