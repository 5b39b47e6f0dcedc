package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is where the bridge listens by default.
const DefaultBaseURL = "http://localhost:3000"

// Response mirrors one backend result line, plus the error code the gateway
// adds on failure.
type Response struct {
	OK          bool     `json:"ok"`
	Stdout      string   `json:"stdout"`
	Stderr      string   `json:"stderr"`
	Cwd         string   `json:"cwd,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Error is a non-2xx gateway response.
type Error struct {
	Status     int
	Code       string
	Diagnostic string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("bridge: HTTP %d: %s", e.Status, e.Diagnostic)
	}
	return fmt.Sprintf("bridge: %s (HTTP %d): %s", e.Code, e.Status, e.Diagnostic)
}

// IsCode reports whether err is a gateway error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

type executeRequest struct {
	Command string `json:"command"`
}

// Client talks to one bridge.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	mu      sync.RWMutex
}

// New creates a client for the bridge at baseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(60*time.Second).
		SetHeader("User-Agent", "cterm/1.0").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(3).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(rejectedBeforeBackend)

	return &Client{
		Resty:   r,
		Limiter: rate.NewLimiter(rate.Inf, 0),
	}
}

// rejectedBeforeBackend retries only responses the gateway produced without
// writing the command to the backend.
func rejectedBeforeBackend(resp *resty.Response, err error) bool {
	if err != nil || resp == nil {
		return false
	}
	switch resp.StatusCode() {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// SetTimeout configures the overall request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetTimeout(d)
}

// SetRetry configures retries for rejected requests. Zero disables them.
func (c *Client) SetRetry(count int, minWait, maxWait time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resty.SetRetryCount(count).
		SetRetryWaitTime(minWait).
		SetRetryMaxWaitTime(maxWait)
}

// SetRateLimit caps this client's request rate. Zero or less removes the cap.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Execute runs one command. A backend result with ok=false is returned as a
// Response, not an error; only gateway failures are errors.
func (c *Client) Execute(ctx context.Context, command string) (*Response, error) {
	c.mu.RLock()
	limiter, r := c.Limiter, c.Resty
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var out Response
	resp, err := r.R().
		SetContext(ctx).
		SetBody(executeRequest{Command: command}).
		SetResult(&out).
		SetError(&out).
		Post("/execute")
	if err != nil {
		return nil, fmt.Errorf("bridge request failed: %w", err)
	}

	if resp.IsError() {
		diag := out.Stderr
		if diag == "" {
			diag = strings.TrimSpace(resp.String())
		}
		return nil, &Error{Status: resp.StatusCode(), Code: out.Error, Diagnostic: diag}
	}
	return &out, nil
}

// Complete asks the backend for completions of prefix.
func (c *Client) Complete(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	res, err := c.Execute(ctx, "complete "+prefix)
	if err != nil {
		return nil, err
	}
	return res.Suggestions, nil
}

// HistoryPrev steps the backend's history cursor back and returns that entry.
func (c *Client) HistoryPrev(ctx context.Context) (string, error) {
	return c.history(ctx, "history_prev")
}

// HistoryNext steps the backend's history cursor forward and returns that
// entry, or "" past the newest.
func (c *Client) HistoryNext(ctx context.Context) (string, error) {
	return c.history(ctx, "history_next")
}

func (c *Client) history(ctx context.Context, command string) (string, error) {
	res, err := c.Execute(ctx, command)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
