package remote

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusUnauthorized, Unauthorized},
		{http.StatusForbidden, Unauthorized},
		{http.StatusRequestTimeout, Transient},
		{http.StatusTooManyRequests, Transient},
		{http.StatusInternalServerError, Transient},
		{http.StatusBadGateway, Transient},
		{http.StatusServiceUnavailable, Transient},
		{http.StatusBadRequest, Permanent},
		{http.StatusNotFound, Permanent},
		{http.StatusConflict, Permanent},
		{http.StatusUnprocessableEntity, Permanent},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			got := classifyStatus(tt.status)
			if got != tt.want {
				t.Errorf("classifyStatus(%d) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassOf(t *testing.T) {
	permanent := &Error{Class: Permanent, Status: 400, Op: "upsert_task", Msg: "bad"}
	if got := ClassOf(permanent); got != Permanent {
		t.Errorf("ClassOf(permanent) = %v, want Permanent", got)
	}

	wrapped := fmt.Errorf("push failed: %w", &Error{Class: Unauthorized, Status: 401, Op: "login", Msg: "nope"})
	if got := ClassOf(wrapped); got != Unauthorized {
		t.Errorf("ClassOf(wrapped) = %v, want Unauthorized", got)
	}

	// Network-level errors with no HTTP status default to retryable.
	if got := ClassOf(errors.New("connection refused")); got != Transient {
		t.Errorf("ClassOf(plain error) = %v, want Transient", got)
	}
}

func TestError_message(t *testing.T) {
	err := &Error{Class: Transient, Status: 503, Op: "upsert_entry", Msg: "unavailable"}
	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() returned empty string")
	}
}
