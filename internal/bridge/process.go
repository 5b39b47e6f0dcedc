package bridge

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// ProcessConfig describes the backend executable.
type ProcessConfig struct {
	Path string
	Dir  string
	Args []string
	Env  []string

	// Stderr receives the backend's diagnostics. Defaults to os.Stderr.
	Stderr io.Writer
}

// Process owns the single backend child process and its stdio pipes.
type Process struct {
	cfg ProcessConfig

	mu          sync.Mutex
	cmd         *exec.Cmd
	stdin       io.WriteCloser
	stdout      io.ReadCloser
	started     bool
	inputClosed bool
}

// NewProcess creates a handle for the configured executable. Nothing is
// spawned until Start.
func NewProcess(cfg ProcessConfig) *Process {
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Process{cfg: cfg}
}

// Start spawns the backend. It may be called once; a failed spawn is permanent.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	cmd := exec.Command(p.cfg.Path, p.cfg.Args...)
	cmd.Dir = p.cfg.Dir
	cmd.Env = append(os.Environ(), p.cfg.Env...)
	cmd.Stderr = p.cfg.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrSpawnFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("%w: stdout pipe: %v", ErrSpawnFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = stdout
	return nil
}

// Write sends one line to the backend's stdin with a trailing newline. The
// handle's lock is not held during the write, so a backend that stops reading
// cannot block Kill or Pid.
func (p *Process) Write(line string) error {
	p.mu.Lock()
	stdin, closed := p.stdin, p.inputClosed
	p.mu.Unlock()

	if stdin == nil {
		return ErrNotStarted
	}
	if closed {
		return os.ErrClosed
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := stdin.Write(buf)
	return err
}

// Stdout returns the backend's output stream.
func (p *Process) Stdout() io.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout
}

// CloseInput closes stdin so the backend sees end of input.
func (p *Process) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stdin == nil || p.inputClosed {
		return nil
	}
	p.inputClosed = true
	return p.stdin.Close()
}

// Wait reaps the process. It must only be called after Stdout reached EOF.
func (p *Process) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil {
		return ErrNotStarted
	}
	return cmd.Wait()
}

// Kill terminates the process immediately.
func (p *Process) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Pid returns the backend's process ID, or 0 if it never started.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
