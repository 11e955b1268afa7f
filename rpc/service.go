// Package rpc exposes the registry over gRPC as the hostgate.v1.Gate
// service. The service is registered from a hand-written grpc.ServiceDesc
// and its messages are plain Go structs encoded as JSON, so no protobuf
// code generation is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "hostgate.v1.Gate"

// Full method names.
const (
	ConfigureMethod = "/" + ServiceName + "/Configure"
	CheckMethod     = "/" + ServiceName + "/Check"
	StatusMethod    = "/" + ServiceName + "/Status"
)

// ConfigureRequest configures the bucket of one domain. Omitted fields take
// the registry defaults.
type ConfigureRequest struct {
	Domain   string   `json:"domain"`
	Cap      *float64 `json:"cap,omitempty"`
	PeriodMs *int64   `json:"periodMs,omitempty"`
}

// ConfigureResponse acknowledges a Configure call.
type ConfigureResponse struct {
	OK bool `json:"ok"`
}

// CheckRequest asks whether url may be fetched now.
type CheckRequest struct {
	URL string `json:"url"`
}

// CheckResponse carries the admission decision.
type CheckResponse struct {
	Allowed      bool    `json:"allowed"`
	Domain       string  `json:"domain,omitempty"`
	Remaining    float64 `json:"remaining"`
	RetryAfterMs int64   `json:"retryAfterMs,omitempty"`
}

// StatusRequest is empty.
type StatusRequest struct{}

// StatusResponse reports the registry size.
type StatusResponse struct {
	Status      string `json:"status"`
	BucketCount int    `json:"bucketCount"`
}

// gateMsg marks the messages encoded as JSON by the codec.
type gateMsg interface {
	isGateMsg()
}

func (*ConfigureRequest) isGateMsg()  {}
func (*ConfigureResponse) isGateMsg() {}
func (*CheckRequest) isGateMsg()      {}
func (*CheckResponse) isGateMsg()     {}
func (*StatusRequest) isGateMsg()     {}
func (*StatusResponse) isGateMsg()    {}

// GateServer is the server API of hostgate.v1.Gate.
type GateServer interface {
	Configure(ctx context.Context, req *ConfigureRequest) (*ConfigureResponse, error)
	Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error)
	Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error)
}

// ServiceDesc is the grpc.ServiceDesc for hostgate.v1.Gate.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GateServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Configure", Handler: configureHandler},
		{MethodName: "Check", Handler: checkHandler},
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hostgate/v1/gate.proto",
}

// RegisterGateServer registers srv on s.
func RegisterGateServer(s grpc.ServiceRegistrar, srv GateServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func configureHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ConfigureRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GateServer).Configure(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ConfigureMethod}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(GateServer).Configure(ctx, r.(*ConfigureRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func checkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CheckRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GateServer).Check(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CheckMethod}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(GateServer).Check(ctx, r.(*CheckRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(StatusRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GateServer).Status(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: StatusMethod}
	handler := func(ctx context.Context, r any) (any, error) {
		return srv.(GateServer).Status(ctx, r.(*StatusRequest))
	}
	return interceptor(ctx, req, info, handler)
}
