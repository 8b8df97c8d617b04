package cerr

import (
	"context"
	"net/http"

	"github.com/kazz187/crewdesk/pkg/panicerr"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	response any
	err      error
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	rr, _ := ctx.Value(responseReceiverKey{}).(*responseReceiver)
	return rr
}

// SetJSONResponse records the value the middleware encodes once the handler
// returns. A nil response is written as 204 No Content.
func SetJSONResponse(ctx context.Context, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// NewJSONResponseChiMiddleware writes whatever the handler recorded with
// SetJSONResponse or SetJSONError. Handlers must not write the body
// themselves. A handler panic becomes an Internal error response.
func NewJSONResponseChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			serve := panicerr.Safe(func() error {
				next.ServeHTTP(rw, r.WithContext(ctx))
				return nil
			})
			if err := serve(); err != nil {
				rr.err = NewError(Internal, "server error", err)
			}
			ExtractToHTTPResponse(ctx, rw, rr)
		})
	}
}
