package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/model"
)

// Client is the HTTP implementation of Gateway, talking to a
// habitsync-server instance.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given server.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the session token after login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do performs one JSON request. A non-2xx response is returned as a
// classified *Error; out may be nil when no body is expected.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Class: Permanent, Op: op, Msg: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Class: Permanent, Op: op, Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Debug("Remote request failed",
			logger.F("op", op), logger.F("error", err))
		return &Error{Class: Transient, Op: op, Msg: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		msg := string(respBody)
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &Error{
			Class:  classifyStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Op:     op,
			Msg:    msg,
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Class: Transient, Op: op, Msg: fmt.Sprintf("decode response: %v", err)}
		}
	}

	return nil
}

// Ping probes server reachability; used as the connectivity check.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/health", nil, nil)
}

// AuthResult is returned by login, register and magic-link verify.
type AuthResult struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

// Register creates a new account identified by a PIN.
func (c *Client) Register(ctx context.Context, pin, email string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, "register", http.MethodPost, "/api/v1/register",
		map[string]string{"pin": pin, "email": email}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// Login authenticates with a PIN.
func (c *Client) Login(ctx context.Context, pin string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, "login", http.MethodPost, "/api/v1/login",
		map[string]string{"pin": pin}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// RequestMagicLink asks the server to issue a passwordless login
// link. In development the server echoes the token back; it is
// returned so the CLI can surface it.
func (c *Client) RequestMagicLink(ctx context.Context, email string) (string, error) {
	var result struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	err := c.do(ctx, "magic-link", http.MethodPost, "/api/v1/magic-link",
		map[string]string{"email": email}, &result)
	if err != nil {
		return "", err
	}
	return result.Token, nil
}

// VerifyMagicLink exchanges a magic-link token for a session.
func (c *Client) VerifyMagicLink(ctx context.Context, token string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, "magic-link-verify", http.MethodGet,
		"/api/v1/magic-link/"+url.PathEscape(token), nil, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// UpsertTask implements Gateway.
func (c *Client) UpsertTask(ctx context.Context, task model.Task) error {
	return c.do(ctx, "upsert-task", http.MethodPut, "/api/v1/tasks", task, nil)
}

// DeleteTask implements Gateway.
func (c *Client) DeleteTask(ctx context.Context, userID, taskID string) error {
	return c.do(ctx, "delete-task", http.MethodDelete,
		"/api/v1/tasks/"+url.PathEscape(taskID), nil, nil)
}

// UpsertEntry implements Gateway.
func (c *Client) UpsertEntry(ctx context.Context, entry model.Entry) error {
	return c.do(ctx, "upsert-entry", http.MethodPut, "/api/v1/entries", entry, nil)
}

// UpsertDayNote implements Gateway.
func (c *Client) UpsertDayNote(ctx context.Context, note model.DayNote) error {
	return c.do(ctx, "upsert-day-note", http.MethodPut, "/api/v1/notes", note, nil)
}

// UpdateSettings implements Gateway.
func (c *Client) UpdateSettings(ctx context.Context, settings model.UserSettings) error {
	return c.do(ctx, "update-settings", http.MethodPut, "/api/v1/settings", settings, nil)
}

// ListTasks implements Gateway.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, "list-tasks", http.MethodGet, "/api/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListEntries implements Gateway.
func (c *Client) ListEntries(ctx context.Context, start, end string) ([]model.Entry, error) {
	var entries []model.Entry
	path := "/api/v1/entries" + rangeQuery(start, end)
	if err := c.do(ctx, "list-entries", http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListDayNotes implements Gateway.
func (c *Client) ListDayNotes(ctx context.Context, start, end string) ([]model.DayNote, error) {
	var notes []model.DayNote
	path := "/api/v1/notes" + rangeQuery(start, end)
	if err := c.do(ctx, "list-day-notes", http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetSettings implements Gateway.
func (c *Client) GetSettings(ctx context.Context) (*model.UserSettings, error) {
	var settings model.UserSettings
	err := c.do(ctx, "get-settings", http.MethodGet, "/api/v1/settings", nil, &settings)
	if err != nil {
		var re *Error
		if errors.As(err, &re) && re.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func rangeQuery(start, end string) string {
	q := url.Values{}
	if start != "" {
		q.Set("start", start)
	}
	if end != "" {
		q.Set("end", end)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
