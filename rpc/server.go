package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ssgreg/logf"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/yourusername/hostgate/pkg/hostgate"
)

// Gate is the part of the registry the gRPC service drives.
// *hostgate.Registry satisfies it.
type Gate interface {
	ConfigurePolicy(key string, policy hostgate.Policy) error
	Decide(key string) hostgate.Decision
	Status() hostgate.Status
	Defaults() hostgate.Policy
}

// ConfigureRecorder is told about every configure call.
type ConfigureRecorder interface {
	RecordConfigure(domain string, err error)
}

type serverOptions struct {
	logger         *logf.Logger
	tracerProvider trace.TracerProvider
	configures     ConfigureRecorder
	extra          []grpc.ServerOption
}

// Option configures NewServer.
type Option func(*serverOptions)

// WithLogger sets the logger of the logging and recovery interceptors.
func WithLogger(logger *logf.Logger) Option {
	return func(o *serverOptions) { o.logger = logger }
}

// WithTracerProvider enables a server span per call.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serverOptions) { o.tracerProvider = tp }
}

// WithConfigureRecorder sets a recorder told about every Configure call.
func WithConfigureRecorder(r ConfigureRecorder) Option {
	return func(o *serverOptions) { o.configures = r }
}

// WithServerOptions appends raw grpc.ServerOptions.
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(o *serverOptions) { o.extra = append(o.extra, opts...) }
}

// NewServer returns a gRPC server with hostgate.v1.Gate and the standard
// health service registered. hosts may be nil.
func NewServer(gate Gate, hosts *hostgate.HostCache, opts ...Option) *grpc.Server {
	o := serverOptions{logger: logf.NewDisabledLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	interceptors := []grpc.UnaryServerInterceptor{recoveryInterceptor(o.logger)}
	if o.tracerProvider != nil {
		interceptors = append(interceptors, tracingInterceptor(o.tracerProvider))
	}
	interceptors = append(interceptors, loggingInterceptor(o.logger))

	serverOpts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}, o.extra...)
	s := grpc.NewServer(serverOpts...)

	RegisterGateServer(s, &gateServer{gate: gate, hosts: hosts, configures: o.configures})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	return s
}

// gateServer implements GateServer on a registry.
type gateServer struct {
	gate       Gate
	hosts      *hostgate.HostCache
	configures ConfigureRecorder
}

func (s *gateServer) Configure(_ context.Context, req *ConfigureRequest) (*ConfigureResponse, error) {
	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if domain == "" {
		return nil, status.Error(codes.InvalidArgument, "domain is required")
	}

	policy := s.gate.Defaults()
	if req.Cap != nil {
		policy.Capacity = *req.Cap
	}
	var err error
	if req.PeriodMs != nil {
		policy.Period, err = hostgate.PeriodFromMillis(*req.PeriodMs)
	}
	if err == nil {
		err = s.gate.ConfigurePolicy(domain, policy)
	}
	if s.configures != nil {
		s.configures.RecordConfigure(domain, err)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &ConfigureResponse{OK: true}, nil
}

func (s *gateServer) Check(_ context.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.URL == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}
	host, err := s.hosts.Resolve(req.URL)
	if err != nil {
		return nil, toStatus(err)
	}

	decision := s.gate.Decide(host)
	return &CheckResponse{
		Allowed:      decision.Allowed,
		Domain:       host,
		Remaining:    decision.Remaining,
		RetryAfterMs: decision.RetryAfter.Milliseconds(),
	}, nil
}

func (s *gateServer) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	return &StatusResponse{Status: "ok", BucketCount: s.gate.Status().BucketCount}, nil
}

// toStatus maps registry errors to gRPC status errors.
func toStatus(err error) error {
	switch {
	case errors.Is(err, hostgate.ErrInvalidURL):
		return status.Error(codes.InvalidArgument, hostgate.ErrInvalidURL.Error())
	case errors.Is(err, hostgate.ErrInvalidConfig), errors.Is(err, hostgate.ErrInvalidKey):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func recoveryInterceptor(logger *logf.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					logf.String("method", info.FullMethod),
					logf.String("panic", fmt.Sprint(rec)),
				)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func loggingInterceptor(logger *logf.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []logf.Field{
			logf.String("method", info.FullMethod),
			logf.String("code", code.String()),
			logf.Duration("duration", time.Since(start)),
		}
		if err != nil && code != codes.InvalidArgument {
			logger.Warn("rpc finished", append(fields, logf.Error(err))...)
			return resp, err
		}
		logger.Info("rpc finished", fields...)
		return resp, err
	}
}
