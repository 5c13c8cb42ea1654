package middleware

import (
	"context"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/scrtch/internal/metrics"
)

// MetricsInterceptor records call counts and handler latency.
type MetricsInterceptor struct{}

var _ connect.Interceptor = MetricsInterceptor{}

// WrapUnary implements connect.Interceptor.
func (MetricsInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		observe(req.Spec().Procedure, start, err)
		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (MetricsInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (MetricsInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		observe(conn.Spec().Procedure, start, err)
		return err
	}
}

func observe(procedure string, start time.Time, err error) {
	code := "ok"
	if err != nil {
		code = connect.CodeOf(err).String()
	}
	metrics.RPCRequests.WithLabelValues(procedure, code).Inc()
	metrics.RPCDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
}
