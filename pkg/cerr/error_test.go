package cerr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/crewdesk/pkg/storage"
)

func TestFromHTTPError(t *testing.T) {
	err := FromHTTPError(http.StatusBadRequest, &HTTPError{
		Code:    "InvalidArgument",
		Message: "missing required fields",
		Details: []HTTPErrorDetail{
			{Field: "name", Message: "must not be empty"},
			{Message: "check the payload"},
		},
	})
	assert.Equal(t, InvalidArgument, err.Code)
	assert.Equal(t, "missing required fields", err.Msg)
	assert.Equal(t, []string{"name"}, err.FieldViolations())
	assert.Len(t, err.Details, 2)
}

func TestFromHTTPError_UnknownBody(t *testing.T) {
	err := FromHTTPError(http.StatusNotFound, &HTTPError{Code: "Gone"})
	assert.Equal(t, NotFound, err.Code)
	assert.Equal(t, "Not Found", err.Msg)

	err = FromHTTPError(http.StatusServiceUnavailable, nil)
	assert.Equal(t, Unavailable, err.Code)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("failed to update task: %w", NewError(NotFound, "task not found", nil))
	assert.True(t, IsCode(err, NotFound))
	assert.False(t, IsCode(err, Internal))
	assert.False(t, IsCode(errors.New("plain"), NotFound))
}

func TestWrapStorageErrors(t *testing.T) {
	notFound := fmt.Errorf("tasks/1.yaml: %w", storage.ErrNotFound)
	assert.True(t, IsCode(WrapStorageReadError("task", notFound), NotFound))
	assert.True(t, IsCode(WrapStorageDeleteError("task", notFound), NotFound))
	assert.True(t, IsCode(WrapStorageReadError("task", errors.New("disk")), Internal))
	assert.True(t, IsCode(WrapStorageWriteError("task", errors.New("disk")), Internal))
}

func TestJSONResponseChiMiddleware(t *testing.T) {
	handler := NewJSONResponseChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			SetJSONResponse(r.Context(), map[string]int{"id": 1})
		case "/empty":
			SetJSONResponse(r.Context(), nil)
		default:
			e := NewError(InvalidArgument, "missing required fields", nil)
			_ = e.AddDetailMessageWithCode("must not be empty", "instructions")
			SetJSONError(r.Context(), e)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/empty", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InvalidArgument", body.Code)
	assert.Equal(t, []HTTPErrorDetail{{Field: "instructions", Message: "must not be empty"}}, body.Details)
}

func TestJSONResponseChiMiddleware_Panic(t *testing.T) {
	handler := NewJSONResponseChiMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":"Internal","message":"server error"}`, rec.Body.String())
}

func TestExtractConnectError(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ExtractConnectError(ctx, nil))

	var connectErr *connect.Error
	require.ErrorAs(t, ExtractConnectError(ctx, NewError(NotFound, "task not found", nil)), &connectErr)
	assert.Equal(t, connect.CodeNotFound, connectErr.Code())
	assert.Equal(t, "task not found", connectErr.Message())

	require.ErrorAs(t, ExtractConnectError(ctx, context.Canceled), &connectErr)
	assert.Equal(t, connect.CodeCanceled, connectErr.Code())

	require.ErrorAs(t, ExtractConnectError(ctx, errors.New("disk")), &connectErr)
	assert.Equal(t, connect.CodeUnknown, connectErr.Code())
}
