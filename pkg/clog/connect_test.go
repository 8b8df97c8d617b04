package clog

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkHealth(t *testing.T, opts ...ConnectOption) string {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(NewAttributesHandler(NewTextHandler(&buf, WithColor(false)))))
	t.Cleanup(func() { slog.SetDefault(prev) })

	mux := http.NewServeMux()
	mux.Handle(grpchealth.NewHandler(
		grpchealth.NewStaticChecker(),
		connect.WithInterceptors(NewSlogConnectInterceptor(opts...)),
	))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/grpc.health.v1.Health/Check", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return buf.String()
}

func TestSlogConnectInterceptor(t *testing.T) {
	out := checkHealth(t)
	assert.Contains(t, out, "INFO server POST /grpc.health.v1.Health/Check [ok] Finished\n")
	assert.Contains(t, out, "stream_type=Unary")
}

func TestSlogConnectInterceptor_Filter(t *testing.T) {
	out := checkHealth(t, WithConnectFilter(func(spec connect.Spec) bool {
		return spec.Procedure != "/grpc.health.v1.Health/Check"
	}))
	assert.Empty(t, out)
}
