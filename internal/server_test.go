package internal_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/crewdesk/internal/backendtest"
	"github.com/kazz187/crewdesk/internal/config"
)

func send(t *testing.T, method, url, body string, header map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var b bytes.Buffer
	_, err = b.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, b.String()
}

func TestServer_Health(t *testing.T) {
	b := backendtest.NewWithEnv(t, &config.ServerEnv{APIKey: "secret"})

	resp, _ := send(t, http.MethodGet, b.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := send(t, http.MethodPost, b.URL+"/grpc.health.v1.Health/Check", "{}",
		map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "SERVING")
}

func TestServer_APIKey(t *testing.T) {
	b := backendtest.NewWithEnv(t, &config.ServerEnv{APIKey: "secret"})

	resp, _ := send(t, http.MethodGet, b.URL+"/tasks/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = send(t, http.MethodGet, b.URL+"/tasks/", "", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = send(t, http.MethodGet, b.URL+"/agents/", "", map[string]string{"Authorization": "Bearer secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Fallbacks(t *testing.T) {
	b := backendtest.New(t)

	resp, body := send(t, http.MethodGet, b.URL+"/projects/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":"NotFound"`)

	resp, body = send(t, http.MethodPatch, b.URL+"/tasks/", "{}", nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Contains(t, body, `"code":"Unimplemented"`)

	resp, _ = send(t, http.MethodOptions, b.URL+"/tasks/", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": http.MethodPatch,
	})
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
