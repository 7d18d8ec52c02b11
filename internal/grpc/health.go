package grpc

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"chat-sidebar/internal/observability"
)

// ServiceName is the health service name reported for the sidebar.
const ServiceName = "chat.sidebar"

// NewServer builds the gRPC server with tracing, metrics and a health
// service registered. Both the overall and the ServiceName status start as
// SERVING.
func NewServer() (*gogrpc.Server, *health.Server) {
	server := gogrpc.NewServer(
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
		gogrpc.UnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return server, healthServer
}

// WatchDependency runs check every interval and mirrors the result in the
// ServiceName status until ctx ends.
func WatchDependency(ctx context.Context, healthServer *health.Server, interval time.Duration, check func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_SERVING
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			err := check(checkCtx)
			cancel()

			status := healthpb.HealthCheckResponse_SERVING
			if err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			if status != last {
				log.Printf("health status changed service=%s status=%s err=%v", ServiceName, status, err)
				last = status
			}
			healthServer.SetServingStatus(ServiceName, status)
		}
	}
}
