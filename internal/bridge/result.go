package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Result is one backend response. Raw holds the JSON object exactly as the
// backend wrote it; the payload shape belongs to the backend, so only the
// fields the bridge logs are extracted.
type Result struct {
	Raw []byte
	OK  bool
	Cwd string
}

// MarshalJSON returns the backend payload verbatim.
func (r Result) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// DecodeResult parses one output line. The line must hold a single JSON object
// in valid UTF-8, since Raw is served as-is with a UTF-8 content type.
func DecodeResult(line []byte) (Result, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Result{}, fmt.Errorf("%w: expected a JSON object, got %q", ErrMalformedOutput, preview(trimmed))
	}

	if !utf8.Valid(trimmed) {
		return Result{}, fmt.Errorf("%w: invalid UTF-8 in %q", ErrMalformedOutput, preview(trimmed))
	}

	var fields map[string]json.RawMessage
	if err := sonic.Unmarshal(trimmed, &fields); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	res := Result{Raw: append([]byte(nil), trimmed...)}
	if v, ok := fields["ok"]; ok {
		_ = sonic.Unmarshal(v, &res.OK)
	}
	if v, ok := fields["cwd"]; ok {
		_ = sonic.Unmarshal(v, &res.Cwd)
	}
	return res, nil
}

// preview shortens a line for diagnostics.
func preview(b []byte) string {
	const max = 64
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
