package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBridge answers like the gateway, keeping a history cursor for the
// history pseudo-commands.
func fakeBridge(t *testing.T) *httptest.Server {
	t.Helper()
	history := []string{"pwd", "ls"}
	cursor := len(history)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/execute" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
			return
		}

		var req executeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		res := Response{OK: true, Cwd: "/"}
		switch req.Command {
		case "":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(Response{Stderr: "empty command", Error: "empty_command"})
			return
		case "pwd":
			res.Stdout = "/\n"
		case "cat missing":
			res.OK = false
			res.Stderr = "cat: missing: not found"
		case "complete ca":
			res.Suggestions = []string{"cat", "cd"}
		case "history_prev":
			if cursor > 0 {
				cursor--
			}
			res.Stdout = history[cursor] + "\n"
		case "history_next":
			if cursor < len(history) {
				cursor++
			}
			if cursor < len(history) {
				res.Stdout = history[cursor] + "\n"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
}

func TestExecute(t *testing.T) {
	srv := fakeBridge(t)
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res, err := c.Execute(ctx, "pwd")
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, "/\n", res.Stdout)
		assert.Equal(t, "/", res.Cwd)
	})

	t.Run("command failure is not an error", func(t *testing.T) {
		res, err := c.Execute(ctx, "cat missing")
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, "cat: missing: not found", res.Stderr)
	})

	t.Run("gateway rejection", func(t *testing.T) {
		_, err := c.Execute(ctx, "")
		require.Error(t, err)
		assert.True(t, IsCode(err, "empty_command"))

		var gwErr *Error
		require.ErrorAs(t, err, &gwErr)
		assert.Equal(t, http.StatusBadRequest, gwErr.Status)
		assert.Equal(t, "empty command", gwErr.Diagnostic)
	})
}

func TestNotFound(t *testing.T) {
	srv := fakeBridge(t)
	defer srv.Close()

	c := New(srv.URL + "/nope")
	_, err := c.Execute(context.Background(), "pwd")

	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusNotFound, gwErr.Status)
	assert.Equal(t, "not found", gwErr.Diagnostic)
}

func TestComplete(t *testing.T) {
	srv := fakeBridge(t)
	defer srv.Close()
	c := New(srv.URL)

	words, err := c.Complete(context.Background(), " ca ")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "cd"}, words)

	words, err = c.Complete(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, words)
}

func TestHistory(t *testing.T) {
	srv := fakeBridge(t)
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	steps := []struct {
		prev bool
		want string
	}{
		{true, "ls"},
		{true, "pwd"},
		{true, "pwd"},
		{false, "ls"},
		{false, ""},
	}

	for _, step := range steps {
		var got string
		var err error
		if step.prev {
			got, err = c.HistoryPrev(ctx)
		} else {
			got, err = c.HistoryNext(ctx)
		}
		require.NoError(t, err)
		assert.Equal(t, step.want, got)
	}
}

func TestRetriesRejectedRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"ok":false,"stdout":"","stderr":"too many pending commands","error":"queue_full"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"stdout":"done","stderr":"","cwd":"/","suggestions":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetRetry(3, time.Millisecond, 5*time.Millisecond)

	res, err := c.Execute(context.Background(), "ls")
	require.NoError(t, err)
	assert.Equal(t, "done", res.Stdout)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryBackendFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte(`{"ok":false,"stdout":"","stderr":"timed out waiting for backend","error":"timeout"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetRetry(3, time.Millisecond, 5*time.Millisecond)

	_, err := c.Execute(context.Background(), "sleep")
	assert.True(t, IsCode(err, "timeout"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRateLimitHonorsContext(t *testing.T) {
	srv := fakeBridge(t)
	defer srv.Close()

	c := New(srv.URL)
	c.SetRateLimit(1)
	ctx := context.Background()

	_, err := c.Execute(ctx, "pwd")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = c.Execute(ctx, "pwd")
	assert.Error(t, err)
}
