// Package grpc provides the gRPC controller for the resolver service.
package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/chrissnell/lunarmansion/internal/engine"
	"github.com/chrissnell/lunarmansion/internal/resolver"
	"github.com/chrissnell/lunarmansion/pkg/calendar"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Controller represents the gRPC controller
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	Server   *grpc.Server
	Health   *health.Server
	resolver *resolver.Resolver
	logger   *zap.SugaredLogger
}

// NewController creates a new gRPC controller instance
func NewController(ctx context.Context, wg *sync.WaitGroup, r *resolver.Resolver, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	ctrl := &Controller{
		ctx:      ctx,
		wg:       wg,
		resolver: r,
		logger:   logger,
	}

	ctrl.Server = grpc.NewServer(grpc.UnaryInterceptor(ctrl.loggingInterceptor))
	RegisterResolverServer(ctrl.Server, ctrl)

	ctrl.Health = health.NewServer()
	healthpb.RegisterHealthServer(ctrl.Server, ctrl.Health)
	ctrl.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	ctrl.Health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return ctrl, nil
}

// StartController serves gRPC on l until the controller's context is cancelled
func (c *Controller) StartController(l net.Listener) error {
	c.logger.Infof("Starting gRPC controller on %s...", l.Addr())
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()
		if err := c.Server.Serve(l); err != nil && err != grpc.ErrServerStopped && c.ctx.Err() == nil {
			c.logger.Errorf("gRPC controller serve error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.StopController()
	}()

	return nil
}

// StopController stops the gRPC controller
func (c *Controller) StopController() {
	c.logger.Info("Stopping gRPC controller...")
	c.Health.Shutdown()
	c.Server.GracefulStop()
}

// Resolve implements ResolverServer
func (c *Controller) Resolve(ctx context.Context, in *ResolveRequest) (*ResolveResponse, error) {
	res, err := c.resolver.Resolve(ctx, engine.RawRequest{
		RawDate: calendar.RawDate{
			Year:   in.Year,
			Month:  in.Month,
			Day:    in.Day,
			Hour:   in.Hour,
			Minute: in.Minute,
		},
		Timezone: in.Timezone,
	})
	if err == nil {
		return &ResolveResponse{Result: res}, nil
	}

	switch kind := engine.KindOf(err); {
	case engine.IsValidation(err):
		return nil, status.Errorf(codes.InvalidArgument, "%s: %v", kind, err)
	case kind == engine.KindInternal:
		return nil, status.Error(codes.Internal, err.Error())
	default:
		return &ResolveResponse{Result: res, Error: err.Error(), ErrorKind: kind}, nil
	}
}

func (c *Controller) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-request-id"); len(v) > 0 {
			id = v[0]
		}
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	grpc.SetHeader(ctx, metadata.Pairs("x-request-id", id))

	resp, err := handler(ctx, req)
	c.logger.Infow("grpc request",
		"request_id", id,
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, err
}
