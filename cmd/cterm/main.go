// Command cterm is an interactive shell for a running CTerminal bridge.
//
// Tab completes the first word through the backend's complete command. The
// up and down arrows step through the backend's command history, so every
// client of the same bridge sees one shared history. Type exit or press
// Ctrl+D to leave without stopping the backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/client"
)

func main() {
	app := &cli.App{
		Name:  "cterm",
		Usage: "interactive client for the CTerminal bridge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Bridge base URL",
				Value:   client.DefaultBaseURL,
				EnvVars: []string{"CTERM_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-command timeout",
				Value: 35 * time.Second,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Retries for requests the gateway rejected before running them (429, 503)",
				Value: 3,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Maximum commands per second sent by this client (0 for no limit)",
			},
			&cli.StringFlag{
				Name:  "c",
				Usage: "Run one command, print its output and exit",
			},
		},
		Action: func(c *cli.Context) error {
			cl := client.New(c.String("url"))
			cl.SetTimeout(c.Duration("timeout"))
			cl.SetRetry(c.Int("retries"), 100*time.Millisecond, 2*time.Second)
			cl.SetRateLimit(c.Float64("rate"))

			if cmd := c.String("c"); cmd != "" {
				return runOnce(c.Context, cl, cmd)
			}
			return interactive(c.Context, cl)
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, cl *client.Client, cmd string) error {
	res, err := cl.Execute(ctx, cmd)
	if err != nil {
		return err
	}
	printResult(os.Stdout, os.Stderr, res)
	if !res.OK {
		return cli.Exit("", 1)
	}
	return nil
}

func interactive(ctx context.Context, cl *client.Client) error {
	cwd := "/"
	if res, err := cl.Execute(ctx, "pwd"); err == nil && res.Cwd != "" {
		cwd = res.Cwd
	}

	history := &backendHistory{ctx: ctx, client: cl}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 prompt(cwd),
		AutoComplete:           &completer{ctx: ctx, client: cl},
		DisableAutoSaveHistory: true,
		FuncFilterInputRune:    history.FilterInputRune,
		Listener:               history,
		InterruptPrompt:        "^C",
		EOFPrompt:              "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "exit", "quit":
			// Sending exit would stop the shared backend for every client.
			return nil
		case "clear":
			readline.ClearScreen(rl.Stdout())
			continue
		}

		res, err := cl.Execute(ctx, input)
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			continue
		}
		printResult(rl.Stdout(), rl.Stderr(), res)
		if res.Cwd != "" && res.Cwd != cwd {
			cwd = res.Cwd
			rl.SetPrompt(prompt(cwd))
		}
	}
}

func prompt(cwd string) string {
	return fmt.Sprintf("\033[36m%s\033[0m $ ", cwd)
}

func printResult(stdout, stderr io.Writer, res *client.Response) {
	if res.Stdout != "" {
		fmt.Fprint(stdout, withNewline(res.Stdout))
	}
	if res.Stderr != "" {
		fmt.Fprint(stderr, withNewline(res.Stderr))
	}
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// completer asks the backend to complete the first word of the line.
type completer struct {
	ctx    context.Context
	client *client.Client
}

// Do implements readline.AutoCompleter.
func (c *completer) Do(line []rune, pos int) ([][]rune, int) {
	head := string(line[:pos])
	if strings.ContainsAny(head, " \t") {
		return nil, 0
	}
	prefix := strings.TrimSpace(head)
	if prefix == "" {
		return nil, 0
	}

	ctx, cancel := context.WithTimeout(c.ctx, 2*time.Second)
	defer cancel()

	words, err := c.client.Complete(ctx, prefix)
	if err != nil {
		return nil, 0
	}

	out := make([][]rune, 0, len(words))
	for _, w := range words {
		if !strings.HasPrefix(w, prefix) {
			continue
		}
		out = append(out, []rune(w[len(prefix):]+" "))
	}
	return out, len([]rune(prefix))
}

// backendHistory replaces readline's local history with the backend's
// history_prev and history_next commands. FilterInputRune swallows the arrow
// key before readline's own history sees it; OnChange, which readline calls
// right after, swaps in the backend's entry.
type backendHistory struct {
	ctx    context.Context
	client *client.Client

	// pending is CharPrev or CharNext between the two callbacks.
	pending rune
}

// FilterInputRune implements readline.Config.FuncFilterInputRune.
func (h *backendHistory) FilterInputRune(r rune) (rune, bool) {
	if r == readline.CharPrev || r == readline.CharNext {
		h.pending = r
		return readline.CharLineStart, true
	}
	return r, true
}

// OnChange implements readline.Listener.
func (h *backendHistory) OnChange(line []rune, pos int, key rune) ([]rune, int, bool) {
	dir := h.pending
	h.pending = 0
	if dir == 0 {
		return nil, 0, false
	}

	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()

	var (
		entry string
		err   error
	)
	if dir == readline.CharPrev {
		entry, err = h.client.HistoryPrev(ctx)
	} else {
		entry, err = h.client.HistoryNext(ctx)
	}
	if err != nil {
		return nil, 0, false
	}

	out := []rune(entry)
	return out, len(out), true
}
