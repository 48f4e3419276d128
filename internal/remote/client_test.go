package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daystreak/habitsync/internal/model"
)

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s, want /health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestPing_unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	err := c.Ping(context.Background())
	if err == nil {
		t.Fatal("Ping() error = nil, want failure")
	}
	if ClassOf(err) != Transient {
		t.Errorf("class = %v, want Transient", ClassOf(err))
	}
}

func TestDo_sendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q, want Bearer secret", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	if _, err := c.ListTasks(context.Background()); err != nil {
		t.Errorf("ListTasks() error = %v", err)
	}
}

func TestDo_classifiesResponses(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{http.StatusUnauthorized, Unauthorized},
		{http.StatusUnprocessableEntity, Permanent},
		{http.StatusInternalServerError, Transient},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope"})
		}))

		c := NewClient(srv.URL, "secret")
		err := c.UpsertTask(context.Background(), model.NewTask("t1", "u1", "Sport"))
		srv.Close()

		if err == nil {
			t.Errorf("status %d: error = nil, want classified error", tt.status)
			continue
		}
		if got := ClassOf(err); got != tt.want {
			t.Errorf("status %d: class = %v, want %v", tt.status, got, tt.want)
		}
		re, ok := err.(*Error)
		if !ok {
			t.Errorf("status %d: error type = %T, want *Error", tt.status, err)
			continue
		}
		if re.Msg != "nope" {
			t.Errorf("status %d: Msg = %q, want server message", tt.status, re.Msg)
		}
	}
}

func TestLogin_storesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/login" {
			t.Errorf("path = %s, want /api/v1/login", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["pin"] != "0205" {
			t.Errorf("pin = %q, want 0205", req["pin"])
		}
		json.NewEncoder(w).Encode(AuthResult{Token: "tok123", UserID: "u1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	result, err := c.Login(context.Background(), "0205")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token != "tok123" || result.UserID != "u1" {
		t.Errorf("result = %+v, want token tok123 for u1", result)
	}
	if c.token != "tok123" {
		t.Errorf("client token = %q, want tok123", c.token)
	}
}

func TestGetSettings_notFoundMeansUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "settings not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	settings, err := c.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v, want nil on 404", err)
	}
	if settings != nil {
		t.Errorf("settings = %+v, want nil", settings)
	}
}

func TestListEntries_rangeQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") != "2026-08-01" || q.Get("end") != "2026-08-27" {
			t.Errorf("query = %v, want start/end bounds", q)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	if _, err := c.ListEntries(context.Background(), "2026-08-01", "2026-08-27"); err != nil {
		t.Errorf("ListEntries() error = %v", err)
	}
}
