package bridge

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by the bridge. Callers classify failures with errors.Is.
var (
	// ErrEmptyCommand indicates the command was empty after trimming whitespace.
	ErrEmptyCommand = errors.New("empty command")

	// ErrMultilineCommand indicates the command contains a line break, which would
	// desynchronize the line protocol.
	ErrMultilineCommand = errors.New("command must be a single line")

	// ErrSpawnFailed indicates the backend process could not be started.
	ErrSpawnFailed = errors.New("backend spawn failed")

	// ErrBackendExited indicates the backend process terminated.
	ErrBackendExited = errors.New("backend exited")

	// ErrMalformedOutput indicates a backend output line could not be decoded.
	ErrMalformedOutput = errors.New("malformed backend output")

	// ErrLineTooLong indicates a backend output line exceeded the framing limit.
	ErrLineTooLong = fmt.Errorf("%w: line exceeds limit", ErrMalformedOutput)

	// ErrQueueFull indicates too many commands are awaiting a result.
	ErrQueueFull = errors.New("too many pending commands")

	// ErrNotStarted indicates Execute was called before Start.
	ErrNotStarted = errors.New("backend not started")

	// ErrAlreadyStarted indicates Start was called more than once.
	ErrAlreadyStarted = errors.New("backend already started")
)

// Error codes reported to callers and used as metric labels.
const (
	CodeOK              = "ok"
	CodeEmptyCommand    = "empty_command"
	CodeInvalidCommand  = "invalid_command"
	CodeSpawnFailed     = "spawn_failed"
	CodeBackendExited   = "backend_exited"
	CodeMalformedOutput = "malformed_output"
	CodeQueueFull       = "queue_full"
	CodeTimeout         = "timeout"
	CodeCanceled        = "canceled"
	CodeInternal        = "internal"
)

// Classify maps an Execute error to its code.
func Classify(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrEmptyCommand):
		return CodeEmptyCommand
	case errors.Is(err, ErrMultilineCommand):
		return CodeInvalidCommand
	case errors.Is(err, ErrSpawnFailed):
		return CodeSpawnFailed
	case errors.Is(err, ErrBackendExited):
		return CodeBackendExited
	case errors.Is(err, ErrMalformedOutput):
		return CodeMalformedOutput
	case errors.Is(err, ErrQueueFull):
		return CodeQueueFull
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case errors.Is(err, context.Canceled):
		return CodeCanceled
	default:
		return CodeInternal
	}
}
