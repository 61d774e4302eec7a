package errors

import (
	stderrors "errors"
	"net/http"
	"strings"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{NotFound("case"), http.StatusNotFound},
		{InvalidPosition(5, 3), http.StatusBadRequest},
		{InvalidReference("Ghost"), http.StatusBadRequest},
		{SetupFailure(stderrors.New("dial refused"), "backend init failed"), http.StatusServiceUnavailable},
		{NotImplemented("case deletion"), http.StatusNotImplemented},
		{Internal("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if tt.err.HTTPStatus != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.err.Code, tt.err.HTTPStatus, tt.status)
		}
		if got := GetHTTPStatus(tt.err); got != tt.status {
			t.Errorf("GetHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.status)
		}
	}
}

func TestGetHTTPStatusPlainError(t *testing.T) {
	if got := GetHTTPStatus(stderrors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("plain error status = %d, want 500", got)
	}
}

func TestIs(t *testing.T) {
	err := NotFound("case")
	if !Is(err, CodeNotFound) {
		t.Error("Is did not match NOT_FOUND")
	}
	if Is(err, CodeValidation) {
		t.Error("Is matched the wrong code")
	}
	if Is(stderrors.New("plain"), CodeNotFound) {
		t.Error("Is matched a plain error")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := SetupFailure(cause, "postgres storage initialization failed")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() = %q, missing cause", err.Error())
	}
}

func TestInvalidPositionDetails(t *testing.T) {
	err := InvalidPosition(7, 4)
	if err.Details["point"] != 7 || err.Details["max"] != 4 {
		t.Errorf("details = %v", err.Details)
	}
	if !strings.Contains(err.Message, "1-4") {
		t.Errorf("message = %q, missing range", err.Message)
	}
}

func TestToJSON(t *testing.T) {
	data := string(Validation("bad input").ToJSON())
	if !strings.Contains(data, `"code":"VALIDATION_ERROR"`) {
		t.Errorf("json = %s", data)
	}
	if strings.Contains(data, "HTTPStatus") {
		t.Errorf("json leaks internal fields: %s", data)
	}
}
