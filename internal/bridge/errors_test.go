package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{nil, CodeOK},
		{ErrEmptyCommand, CodeEmptyCommand},
		{ErrMultilineCommand, CodeInvalidCommand},
		{fmt.Errorf("%w: exec: not found", ErrSpawnFailed), CodeSpawnFailed},
		{fmt.Errorf("%w: exit status 1", ErrBackendExited), CodeBackendExited},
		{ErrLineTooLong, CodeMalformedOutput},
		{fmt.Errorf("%w: bad json", ErrMalformedOutput), CodeMalformedOutput},
		{ErrQueueFull, CodeQueueFull},
		{context.DeadlineExceeded, CodeTimeout},
		{context.Canceled, CodeCanceled},
		{ErrNotStarted, CodeInternal},
		{errors.New("other"), CodeInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, Classify(tt.err), "%v", tt.err)
	}
}

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		err  error
	}{
		{"ls", "ls", nil},
		{"  cd /home \t", "cd /home", nil},
		{"echo a  b", "echo a  b", nil},
		{"", "", ErrEmptyCommand},
		{" \r\n ", "", ErrEmptyCommand},
		{"ls\n", "ls", nil},
		{"ls\npwd", "", ErrMultilineCommand},
	}

	for _, tt := range tests {
		got, err := NormalizeCommand(tt.raw)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "%q", tt.raw)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
