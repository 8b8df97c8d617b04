package clog

import (
	"net/http"
	"time"
)

type slogRoundTripper struct {
	base http.RoundTripper
}

// NewSlogRoundTripper logs every outgoing request once its response (or
// transport error) is known. Successful calls are logged at debug level.
func NewSlogRoundTripper(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &slogRoundTripper{base: base}
}

func (t *slogRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	ctx := req.Context()
	attrs := []any{
		"side", "client",
		"method", req.Method,
		"path", req.URL.Path,
	}
	resp, err := t.base.RoundTrip(req)
	attrs = append(attrs, "duration", time.Since(startTime))
	if err != nil {
		logAt(ctx, LevelWarn, "request failed", append(attrs, ErrorAttributeKey, err)...)
		return nil, err
	}
	level := HTTPStatusToLevel(resp.StatusCode)
	if level == LevelInfo {
		level = LevelDebug
	}
	logAt(ctx, level, http.StatusText(resp.StatusCode), append(attrs, "status", resp.StatusCode)...)
	return resp, nil
}
