package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"

	"buf.build/gen/go/bufbuild/protovalidate/protocolbuffers/go/buf/validate"
	"google.golang.org/protobuf/proto"

	"github.com/kazz187/crewdesk/pkg/clog"
)

type Error struct {
	Code    Code
	Msg     string          // message returned to the user together with Code
	Err     error           // underlying error, logged only
	Stack   string          // stack trace for error-level codes
	Details []proto.Message // structured details returned to the user
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if clog.ConnectCodeToLevel(code.ConnectCode()) == clog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func NewErrorWithDetails(code Code, msg string, underlying error, details []proto.Message) *Error {
	err := NewError(code, msg, underlying)
	err.Details = details
	return err
}

func (e *Error) AddDetailError(err proto.Message) {
	e.Details = append(e.Details, err)
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) AddDetailMessage(msg string) error {
	protoMsg := validate.Violation{
		Message: &msg,
	}
	e.Details = append(e.Details, &protoMsg)
	return e
}

func (e *Error) AddDetailMessageWithCode(msg string, code string) error {
	protoMsg := validate.Violation{
		Message: &msg,
		RuleId:  &code,
	}
	e.Details = append(e.Details, &protoMsg)
	return e
}

// FieldViolations returns the field names carried by violation details, in
// the order they were added.
func (e *Error) FieldViolations() []string {
	var fields []string
	for _, d := range e.Details {
		if v, ok := d.(*validate.Violation); ok && v.GetRuleId() != "" {
			fields = append(fields, v.GetRuleId())
		}
	}
	return fields
}

// resolve turns any handler error into an *Error, recording it on the
// request log context. Client disconnects map to Canceled and are not
// recorded.
func resolve(ctx context.Context, err error) *Error {
	if clientGone(err) {
		return NewError(Canceled, "connection closed", err)
	}
	clog.AddError(ctx, err)
	var cErr *Error
	if errors.As(err, &cErr) {
		if cErr.Stack != "" {
			clog.AddStack(ctx, cErr.Stack)
		}
		return cErr
	}
	return NewError(Unknown, "unknown error", err)
}

func clientGone(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.Err == "operation was canceled"
}

// HTTPError is the JSON error body exchanged between the backend and the client.
type HTTPError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details []HTTPErrorDetail `json:"details,omitempty"`
}

type HTTPErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// FromHTTPError rebuilds an *Error from a decoded error body. status is used
// when the body carries no known code.
func FromHTTPError(status int, body *HTTPError) *Error {
	code := CodeFromHTTPStatus(status)
	msg := http.StatusText(status)
	if body != nil {
		if c, ok := ParseCode(body.Code); ok {
			code = c
		}
		if body.Message != "" {
			msg = body.Message
		}
	}
	err := &Error{Code: code, Msg: msg, Err: fmt.Errorf("http status %d", status)}
	if body != nil {
		for _, d := range body.Details {
			if d.Field != "" {
				_ = err.AddDetailMessageWithCode(d.Message, d.Field)
				continue
			}
			_ = err.AddDetailMessage(d.Message)
		}
	}
	return err
}

func ExtractToHTTPResponse(ctx context.Context, rw http.ResponseWriter, response *responseReceiver) {
	if response.err == nil {
		writeJSON(ctx, rw, response.response)
		return
	}
	writeJSONError(ctx, rw, resolve(ctx, response.err))
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, response any) {
	if response == nil {
		rw.WriteHeader(http.StatusNoContent)
		return
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(response); err != nil {
		writeJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	body := HTTPError{Code: origErr.Code.String(), Message: origErr.Msg}
	for _, d := range origErr.Details {
		if v, ok := d.(*validate.Violation); ok {
			body.Details = append(body.Details, HTTPErrorDetail{Field: v.GetRuleId(), Message: v.GetMessage()})
		}
	}
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(body); err != nil {
		buf = bytes.NewBufferString(`{"code":"Internal","message":"server error"}`)
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	if _, err := rw.Write(buf.Bytes()); err != nil {
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}
