package bridge

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

const readChunkSize = 32 * 1024

// monitor pumps backend output through the framer until EOF, then reaps the
// process and fails every request still queued. It is the only goroutine that
// feeds the framer, so lines reach the correlator in the order they were read.
func (b *Bridge) monitor() {
	defer close(b.done)

	stdout := b.proc.Stdout()
	buf := make([]byte, readChunkSize)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			b.framer.Feed(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				b.logger.Warn("Backend output read failed", zap.Error(err))
			}
			break
		}
	}

	if rest := b.framer.Flush(); len(rest) > 0 {
		b.logger.Warn("Dropping partial output line at exit", zap.Int("bytes", len(rest)))
	}

	exitErr := ErrBackendExited
	if waitErr := b.proc.Wait(); waitErr != nil {
		exitErr = fmt.Errorf("%w: %v", ErrBackendExited, waitErr)
	}

	// Taking sendMu waits out any sender between its state check and its
	// Register, so FailAll below sees every slot that will ever exist.
	b.sendMu.Lock()
	b.setState(StateExited, exitErr)
	b.sendMu.Unlock()

	failed := b.correlator.FailAll(exitErr)
	b.observePending()
	b.setStateMetric(StateExited)

	fields := []zap.Field{
		zap.Int("pid", b.proc.Pid()),
		zap.Int("failed_pending", failed),
		zap.Error(exitErr),
	}
	if b.closing.Load() {
		b.logger.Info("Backend stopped", fields...)
		return
	}
	b.logger.Error("Backend exited", fields...)
}
