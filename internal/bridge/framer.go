package bridge

import (
	"bytes"
)

// DefaultMaxLineBytes bounds a single backend output line.
const DefaultMaxLineBytes = 1 << 20

// EmitFunc receives one framed message or a framing error. line is only valid
// for the duration of the call.
type EmitFunc func(line []byte, err error)

// Framer splits a byte stream into newline-terminated messages. Bytes after the
// last newline are carried until more input arrives.
//
// A Framer is not safe for concurrent use; it is driven by the single goroutine
// that reads backend output, which keeps message order intact.
type Framer struct {
	buf        []byte
	maxLine    int
	discarding bool
	emit       EmitFunc
}

// NewFramer creates a framer that hands each message to emit. A maxLine of zero
// disables the line limit.
func NewFramer(maxLine int, emit EmitFunc) *Framer {
	return &Framer{
		maxLine: maxLine,
		emit:    emit,
	}
}

// Feed appends a chunk of output and emits every complete message it finishes.
//
// A line longer than the limit is reported once as ErrLineTooLong, so exactly
// one waiting request fails, and the rest of that line is skipped.
func (f *Framer) Feed(chunk []byte) {
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')

		if f.discarding {
			if i < 0 {
				return
			}
			f.discarding = false
			chunk = chunk[i+1:]
			continue
		}

		if i < 0 {
			f.buf = append(f.buf, chunk...)
			if f.overLimit(len(f.buf)) {
				f.buf = f.buf[:0]
				f.discarding = true
				f.emit(nil, ErrLineTooLong)
			}
			return
		}

		line := chunk[:i]
		if len(f.buf) > 0 {
			f.buf = append(f.buf, line...)
			line = f.buf
		}
		chunk = chunk[i+1:]

		if f.overLimit(len(line)) {
			f.emit(nil, ErrLineTooLong)
		} else {
			f.emit(line, nil)
		}
		f.buf = f.buf[:0]
	}
}

// Buffered returns the size of the carried partial line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Flush returns and clears the carried partial line.
func (f *Framer) Flush() []byte {
	if len(f.buf) == 0 {
		f.discarding = false
		return nil
	}
	rest := append([]byte(nil), f.buf...)
	f.buf = f.buf[:0]
	f.discarding = false
	return rest
}

func (f *Framer) overLimit(n int) bool {
	return f.maxLine > 0 && n > f.maxLine
}
