package rpc

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const tracerName = "github.com/yourusername/hostgate/rpc"

func tracingInterceptor(tp trace.TracerProvider) grpc.UnaryServerInterceptor {
	tracer := tp.Tracer(tracerName)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			md = metadata.MD{}
		}
		ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))

		ctx, span := tracer.Start(ctx, info.FullMethod, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		service, method := splitFullMethod(info.FullMethod)
		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
		)
		if check, ok := req.(*CheckRequest); ok {
			span.SetAttributes(attribute.String("hostgate.url", check.URL))
		}

		resp, err := handler(ctx, req)
		if check, ok := resp.(*CheckResponse); ok && err == nil {
			span.SetAttributes(
				attribute.String("hostgate.domain", check.Domain),
				attribute.Bool("hostgate.allowed", check.Allowed),
			)
		}
		recordStatus(span, err)
		return resp, err
	}
}

// metadataCarrier adapts gRPC metadata to propagation.TextMapCarrier.
type metadataCarrier metadata.MD

func (mc metadataCarrier) Get(key string) string {
	vals := metadata.MD(mc).Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func (mc metadataCarrier) Set(key, value string) {
	metadata.MD(mc).Set(key, value)
}

func (mc metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(mc))
	for k := range mc {
		keys = append(keys, k)
	}
	return keys
}

// splitFullMethod splits "/service/method" into ("service", "method").
func splitFullMethod(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	service, method, ok := strings.Cut(fullMethod, "/")
	if !ok {
		return fullMethod, ""
	}
	return service, method
}

func recordStatus(span trace.Span, err error) {
	st, _ := status.FromError(err)
	span.SetAttributes(attribute.String("rpc.grpc.status_code", st.Code().String()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, st.Message())
		return
	}
	span.SetStatus(otelcodes.Ok, "")
}
