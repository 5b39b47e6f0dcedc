package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/infrastructure/monitoring"
)

// State is the lifecycle state of the backend as seen by the bridge.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateFailed
	StateExited
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Config configures a Bridge.
type Config struct {
	Process      ProcessConfig
	MaxLineBytes int
	MaxPending   int
}

// Stats is a point-in-time view of the bridge.
type Stats struct {
	State   string        `json:"state"`
	Pid     int           `json:"pid"`
	Pending int           `json:"pending"`
	Uptime  time.Duration `json:"uptime_ns"`
	Error   string        `json:"error,omitempty"`
}

// Bridge serializes commands into the backend's stdin and hands each output
// line back to the request that produced it.
type Bridge struct {
	proc       *Process
	correlator *Correlator
	framer     *Framer
	logger     *zap.Logger
	metrics    *monitoring.Metrics

	// sendMu makes register+write one step relative to other senders.
	// State transitions hold sendMu and then mu; readers only take mu.
	sendMu sync.Mutex

	mu        sync.RWMutex
	state     State
	failure   error
	startedAt time.Time

	closing atomic.Bool

	done chan struct{}
}

// New creates a bridge for the configured backend. Call Start to spawn it.
func New(cfg Config, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		proc:       NewProcess(cfg.Process),
		correlator: NewCorrelator(cfg.MaxPending),
		logger:     logger.Named("bridge"),
		done:       make(chan struct{}),
	}
	b.framer = NewFramer(cfg.MaxLineBytes, b.deliver)
	return b
}

// WithMetrics attaches a metrics collector.
func (b *Bridge) WithMetrics(metrics *monitoring.Metrics) *Bridge {
	b.metrics = metrics
	return b
}

// Start spawns the backend. A spawn failure is recorded permanently: every
// later Execute fails fast with the same error.
func (b *Bridge) Start() error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	if b.State() != StateStarting {
		return ErrAlreadyStarted
	}

	if err := b.proc.Start(); err != nil {
		b.setState(StateFailed, err)
		close(b.done)
		b.logger.Error("Backend failed to start",
			zap.String("path", b.proc.cfg.Path),
			zap.String("dir", b.proc.cfg.Dir),
			zap.Error(err),
		)
		b.setStateMetric(StateFailed)
		return err
	}

	b.mu.Lock()
	b.state = StateRunning
	b.startedAt = time.Now()
	b.mu.Unlock()
	b.logger.Info("Backend started",
		zap.String("path", b.proc.cfg.Path),
		zap.Int("pid", b.proc.Pid()),
	)
	b.setStateMetric(StateRunning)

	go b.monitor()
	return nil
}

// NormalizeCommand trims a raw command and checks it fits the line protocol.
func NormalizeCommand(raw string) (string, error) {
	cmd := strings.TrimSpace(raw)
	if cmd == "" {
		return "", ErrEmptyCommand
	}
	if strings.ContainsAny(cmd, "\r\n") {
		return "", ErrMultilineCommand
	}
	return cmd, nil
}

// Execute sends one command and waits for its result. If ctx ends first the
// request stays queued so later responses keep their order.
func (b *Bridge) Execute(ctx context.Context, command string) (Result, error) {
	start := time.Now()
	res, err := b.execute(ctx, command)
	if b.metrics != nil {
		b.metrics.RecordCommand(Classify(err), time.Since(start))
	}
	return res, err
}

func (b *Bridge) execute(ctx context.Context, command string) (Result, error) {
	cmd, err := NormalizeCommand(command)
	if err != nil {
		return Result{}, err
	}

	p, err := b.submit(cmd)
	if err != nil {
		return Result{}, err
	}
	b.observePending()

	res, err := p.Wait(ctx)
	if err != nil {
		b.logger.Debug("Command failed",
			zap.String("request_id", p.ID.String()),
			zap.Uint64("seq", p.Seq),
			zap.Error(err),
		)
		return Result{}, err
	}
	return res, nil
}

func (b *Bridge) submit(cmd string) (*Pending, error) {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	switch state, failure := b.status(); state {
	case StateStarting:
		return nil, ErrNotStarted
	case StateFailed, StateExited:
		return nil, failure
	}

	p, err := b.correlator.Register()
	if err != nil {
		return nil, err
	}

	if err := b.proc.Write(cmd); err != nil {
		b.correlator.Cancel(p)
		return nil, fmt.Errorf("%w: write: %v", ErrBackendExited, err)
	}

	b.logger.Debug("Command sent",
		zap.String("request_id", p.ID.String()),
		zap.Uint64("seq", p.Seq),
	)
	return p, nil
}

// deliver runs on the monitor goroutine for every framed line.
func (b *Bridge) deliver(line []byte, ferr error) {
	res, err := Result{}, ferr
	if err == nil {
		res, err = DecodeResult(line)
	}

	p := b.correlator.ResolveNext(res, err)
	b.observePending()

	if p == nil {
		b.logger.Debug("Dropping output line with no pending command", zap.Int("bytes", len(line)))
		if b.metrics != nil {
			b.metrics.IncOrphanLines()
		}
		return
	}

	if err != nil {
		b.logger.Warn("Malformed backend output",
			zap.String("request_id", p.ID.String()),
			zap.Uint64("seq", p.Seq),
			zap.Error(err),
		)
		if b.metrics != nil {
			b.metrics.IncMalformedLines()
		}
	}
	if p.Abandoned() {
		b.logger.Debug("Discarding result for abandoned command",
			zap.String("request_id", p.ID.String()),
			zap.Uint64("seq", p.Seq),
		)
	}
}

// State returns the current backend state.
func (b *Bridge) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Err returns the spawn or exit error once the backend is unusable.
func (b *Bridge) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.failure
}

func (b *Bridge) status() (State, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state, b.failure
}

// setState records a terminal state. The caller holds sendMu.
func (b *Bridge) setState(s State, failure error) {
	b.mu.Lock()
	b.state = s
	b.failure = failure
	b.mu.Unlock()
}

// Done is closed once the backend has failed to start or has exited.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Stats returns a snapshot for health reporting.
func (b *Bridge) Stats() Stats {
	b.mu.RLock()
	state, failure, startedAt := b.state, b.failure, b.startedAt
	b.mu.RUnlock()

	s := Stats{
		State:   state.String(),
		Pid:     b.proc.Pid(),
		Pending: b.correlator.Len(),
	}
	if state == StateRunning {
		s.Uptime = time.Since(startedAt)
	}
	if failure != nil {
		s.Error = failure.Error()
	}
	return s
}

// Close ends the backend's input and waits for it to exit, killing it if ctx
// ends first.
func (b *Bridge) Close(ctx context.Context) error {
	if b.State() != StateRunning {
		return nil
	}
	b.closing.Store(true)

	if err := b.proc.CloseInput(); err != nil {
		b.logger.Warn("Failed to close backend input", zap.Error(err))
	}

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		b.logger.Warn("Backend did not exit in time, killing", zap.Int("pid", b.proc.Pid()))
		if err := b.proc.Kill(); err != nil {
			b.logger.Error("Failed to kill backend", zap.Error(err))
		}
		<-b.done
		return ctx.Err()
	}
}

func (b *Bridge) observePending() {
	if b.metrics != nil {
		b.metrics.SetPending(b.correlator.Len())
	}
}

func (b *Bridge) setStateMetric(s State) {
	if b.metrics != nil {
		b.metrics.SetBackendState(s.String())
	}
}
