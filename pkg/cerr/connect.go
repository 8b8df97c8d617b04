package cerr

import (
	"context"
	"errors"

	"connectrpc.com/connect"
)

func (e *Error) ConnectError() *connect.Error {
	connectErr := connect.NewError(e.Code.ConnectCode(), errors.New(e.Msg))
	for _, msg := range e.Details {
		detail, err := connect.NewErrorDetail(msg)
		if err != nil {
			continue
		}
		connectErr.AddDetail(detail)
	}
	return connectErr
}

func ExtractConnectError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return resolve(ctx, err).ConnectError()
}

// NewConvertConnectErrorInterceptor rewrites errors returned by unary
// handlers into connect errors carrying the cerr code and details.
// Streaming calls pass through untouched.
func NewConvertConnectErrorInterceptor() connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			resp, err := next(ctx, req)
			return resp, ExtractConnectError(ctx, err)
		}
	})
}
