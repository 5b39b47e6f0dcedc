package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/CTerminal/bridge/internal/shared/id"
)

// DefaultMaxPending bounds the number of commands awaiting a result.
const DefaultMaxPending = 64

type outcome struct {
	result Result
	err    error
}

// Pending is one command awaiting its backend response.
type Pending struct {
	Seq       uint64
	ID        id.CommandID
	Submitted time.Time

	done      chan outcome
	abandoned atomic.Bool
}

// Wait blocks until the request is resolved or ctx is done. When ctx ends
// first the slot stays queued and is drained when its line arrives.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case o := <-p.done:
		return o.result, o.err
	case <-ctx.Done():
		p.abandoned.Store(true)
		return Result{}, ctx.Err()
	}
}

// Abandoned reports whether the caller stopped waiting.
func (p *Pending) Abandoned() bool {
	return p.abandoned.Load()
}

func (p *Pending) complete(res Result, err error) {
	// done has capacity 1 and each slot is completed once.
	p.done <- outcome{result: res, err: err}
}

// Correlator matches backend output lines to commands by arrival order.
// The nth line resolves the nth outstanding request.
type Correlator struct {
	mu      sync.Mutex
	queue   []*Pending
	nextSeq uint64
	max     int
}

// NewCorrelator creates a correlator holding at most max outstanding requests.
// A max of zero leaves the queue unbounded.
func NewCorrelator(max int) *Correlator {
	return &Correlator{max: max}
}

// Register appends a new slot to the tail of the queue.
func (c *Correlator) Register() (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.max > 0 && len(c.queue) >= c.max {
		return nil, ErrQueueFull
	}

	c.nextSeq++
	p := &Pending{
		Seq:       c.nextSeq,
		ID:        id.NewCommandID(),
		Submitted: time.Now(),
		done:      make(chan outcome, 1),
	}
	c.queue = append(c.queue, p)
	return p, nil
}

// ResolveNext completes the oldest slot with res or err. It returns the slot,
// or nil when nothing was waiting and the line is dropped.
func (c *Correlator) ResolveNext(res Result, err error) *Pending {
	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		return nil
	}
	p := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	c.mu.Unlock()

	p.complete(res, err)
	return p
}

// FailAll fails every queued slot with err and returns how many were failed.
func (c *Correlator) FailAll(err error) int {
	c.mu.Lock()
	queued := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, p := range queued {
		p.complete(Result{}, err)
	}
	return len(queued)
}

// Cancel removes p if it is still the newest slot. It is used when the
// command for p never reached the backend, so no line can belong to it.
func (c *Correlator) Cancel(p *Pending) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.queue)
	if n == 0 || c.queue[n-1] != p {
		return false
	}
	c.queue[n-1] = nil
	c.queue = c.queue[:n-1]
	return true
}

// Len returns the number of outstanding slots.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
