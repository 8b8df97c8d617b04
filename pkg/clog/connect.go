package clog

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"
)

type connectConfig struct {
	filter func(spec connect.Spec) bool
}

type ConnectOption func(*connectConfig)

// WithConnectFilter logs only procedures for which filter returns true.
func WithConnectFilter(filter func(connect.Spec) bool) ConnectOption {
	return func(cfg *connectConfig) {
		cfg.filter = filter
	}
}

type slogConnectInterceptor struct {
	cfg connectConfig
}

// NewSlogConnectInterceptor logs connect calls the way SlogChiMiddleware logs
// plain HTTP requests.
func NewSlogConnectInterceptor(opts ...ConnectOption) connect.Interceptor {
	i := &slogConnectInterceptor{}
	for _, opt := range opts {
		opt(&i.cfg)
	}
	return i
}

func (i *slogConnectInterceptor) start(ctx context.Context, spec connect.Spec, method string) context.Context {
	ctx = ContextWithSlog(ctx)
	AddAttributes(ctx, map[string]any{
		"side":        "server",
		"procedure":   spec.Procedure,
		"stream_type": spec.StreamType.String(),
	})
	if method != "" {
		AddAttribute(ctx, "method", method)
	}
	return ctx
}

func (i *slogConnectInterceptor) finish(ctx context.Context, spec connect.Spec, startTime time.Time, err error) {
	if i.cfg.filter != nil && !i.cfg.filter(spec) {
		return
	}
	code := "ok"
	var cerr *connect.Error
	if err != nil {
		if !errors.As(err, &cerr) {
			cerr = connect.NewError(connect.CodeUnknown, err)
		}
		code = cerr.Code().String()
	}
	AddAttributes(ctx, map[string]any{
		"code":     code,
		"duration": time.Since(startTime),
	})
	if cerr == nil {
		logAt(ctx, LevelInfo, "Finished")
		return
	}
	if details := connectDetails(ctx, cerr); len(details) > 0 {
		AddAttribute(ctx, "err_details", details)
	}
	logAt(ctx, ConnectCodeToLevel(cerr.Code()), cerr.Message())
}

func (i *slogConnectInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		startTime := time.Now()
		ctx = i.start(ctx, req.Spec(), req.HTTPMethod())
		resp, err := next(ctx, req)
		i.finish(ctx, req.Spec(), startTime, err)
		return resp, err
	}
}

func (i *slogConnectInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *slogConnectInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		startTime := time.Now()
		ctx = i.start(ctx, conn.Spec(), "")
		err := next(ctx, conn)
		i.finish(ctx, conn.Spec(), startTime, err)
		return err
	}
}

func connectDetails(ctx context.Context, cerr *connect.Error) []proto.Message {
	var details []proto.Message
	for _, detail := range cerr.Details() {
		val, err := detail.Value()
		if err != nil {
			logAt(ctx, LevelError, "failed to convert detail value", ErrorAttributeKey, err)
			continue
		}
		details = append(details, val)
	}
	return details
}
