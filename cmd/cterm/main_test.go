package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/client"
)

func TestCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"stdout":"","stderr":"","cwd":"/","suggestions":["cat","cd"]}`))
	}))
	defer srv.Close()

	c := &completer{ctx: context.Background(), client: client.New(srv.URL)}

	tests := []struct {
		name   string
		line   string
		want   []string
		length int
	}{
		{"first word", "c", []string{"at ", "d "}, 1},
		{"empty", "", nil, 0},
		{"argument", "cat fi", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := []rune(tt.line)
			got, length := c.Do(line, len(line))

			var words []string
			for _, g := range got {
				words = append(words, string(g))
			}
			assert.Equal(t, tt.want, words)
			assert.Equal(t, tt.length, length)
		})
	}
}

func TestPrintResult(t *testing.T) {
	var stdout, stderr bytes.Buffer
	printResult(&stdout, &stderr, &client.Response{Stdout: "a\nb", Stderr: "warn\n"})

	assert.Equal(t, "a\nb\n", stdout.String())
	assert.Equal(t, "warn\n", stderr.String())
}

// historyGateway answers the history commands from a cursor over entries,
// the way the backend does, and records every command it receives.
func historyGateway(t *testing.T, entries []string) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu       sync.Mutex
		received []string
		cursor   = len(entries)
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Command string `json:"command"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		mu.Lock()
		defer mu.Unlock()
		received = append(received, req.Command)

		res := client.Response{OK: true, Cwd: "/", Suggestions: []string{}}
		switch req.Command {
		case "history_prev":
			if cursor > 0 {
				cursor--
			}
			if cursor < len(entries) {
				res.Stdout = entries[cursor] + "\n"
			}
		case "history_next":
			if cursor < len(entries) {
				cursor++
			}
			if cursor < len(entries) {
				res.Stdout = entries[cursor] + "\n"
			}
		default:
			res.OK = false
			res.Stderr = req.Command + ": command not found"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), received...)
	}
}

func TestBackendHistory(t *testing.T) {
	srv, received := historyGateway(t, []string{"pwd", "cd /home", "ls"})
	h := &backendHistory{ctx: context.Background(), client: client.New(srv.URL)}

	// press mirrors readline: the filter sees the key, then the listener runs
	// with the buffer readline produced.
	press := func(key rune, line string) (string, int, bool) {
		r, ok := h.FilterInputRune(key)
		require.True(t, ok)
		if key == readline.CharPrev || key == readline.CharNext {
			assert.Equal(t, rune(readline.CharLineStart), r)
		} else {
			assert.Equal(t, key, r)
		}
		out, pos, changed := h.OnChange([]rune(line), 0, r)
		return string(out), pos, changed
	}

	steps := []struct {
		name    string
		key     rune
		line    string
		want    string
		changed bool
	}{
		{"newest entry", readline.CharPrev, "", "ls", true},
		{"older entry", readline.CharPrev, "ls", "cd /home", true},
		{"oldest entry", readline.CharPrev, "cd /home", "pwd", true},
		{"stays at oldest", readline.CharPrev, "pwd", "pwd", true},
		{"forward", readline.CharNext, "pwd", "cd /home", true},
		{"typing is left alone", 'x', "cd /homex", "", false},
		{"forward again", readline.CharNext, "cd /homex", "ls", true},
		{"past newest clears the line", readline.CharNext, "ls", "", true},
	}

	for _, st := range steps {
		got, pos, changed := press(st.key, st.line)
		assert.Equal(t, st.changed, changed, st.name)
		if st.changed {
			assert.Equal(t, st.want, got, st.name)
			assert.Equal(t, len([]rune(st.want)), pos, st.name)
		}
	}

	assert.Equal(t, []string{
		"history_prev", "history_prev", "history_prev", "history_prev",
		"history_next", "history_next", "history_next",
	}, received())
}

func TestBackendHistoryIgnoresInitialCall(t *testing.T) {
	srv, received := historyGateway(t, []string{"pwd"})
	h := &backendHistory{ctx: context.Background(), client: client.New(srv.URL)}

	_, _, changed := h.OnChange(nil, 0, 0)
	assert.False(t, changed)
	assert.Empty(t, received())
}

func TestBackendHistoryKeepsLineOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false,"stdout":"","stderr":"backend exited","error":"backend_exited"}`))
	}))
	defer srv.Close()

	h := &backendHistory{ctx: context.Background(), client: client.New(srv.URL)}

	_, ok := h.FilterInputRune(readline.CharPrev)
	require.True(t, ok)
	_, _, changed := h.OnChange([]rune("ls"), 2, readline.CharLineStart)
	assert.False(t, changed)
}
