// Package poller keeps the currently viewed job in sync with the backend.
//
// One job is watched at a time. Watching a job schedules a first fetch after
// an initial delay, then one fetch per interval measured from the end of the
// previous fetch, until the job reaches a terminal status or the watch is
// stopped or superseded. Fetch failures never end a watch.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kiranshivaraju/clarus/pkg/models"
)

const (
	DefaultInitialDelay = 400 * time.Millisecond
	DefaultInterval     = 1200 * time.Millisecond
)

var errNoResult = errors.New("empty job response")

// State is the lifecycle position of the current watch.
type State string

const (
	StateIdle      State = "idle"
	StateScheduled State = "scheduled"
	StateFetching  State = "fetching"
	StateSettled   State = "settled"
)

// Fetcher returns the latest snapshot for a job.
type Fetcher interface {
	GetJob(ctx context.Context, jobID string) (*models.JobResult, error)
}

// Sink receives the outcome of each fetch for the job being watched.
// Calls are serialized and are never made for a superseded watch. The poller
// holds its lock during the call, so a Sink must not call back into the
// Poller.
type Sink interface {
	JobFetched(result models.JobResult)
	FetchFailed(jobID string, err error)
}

type Config struct {
	InitialDelay time.Duration
	Interval     time.Duration
}

// Poller runs at most one watch at a time.
type Poller struct {
	fetcher Fetcher
	sink    Sink
	cfg     Config

	mu     sync.Mutex
	gen    uint64
	jobID  string
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Poller. Zero durations in cfg fall back to the defaults.
func New(fetcher Fetcher, sink Sink, cfg Config) *Poller {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	closed := make(chan struct{})
	close(closed)
	return &Poller{
		fetcher: fetcher,
		sink:    sink,
		cfg:     cfg,
		state:   StateIdle,
		done:    closed,
	}
}

// Watch starts polling jobID, superseding any previous watch. The pending
// timer of the previous watch is cancelled and any result it still has in
// flight is discarded.
func (p *Poller) Watch(ctx context.Context, jobID string) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.supersedeLocked()
	p.gen++
	gen := p.gen
	p.jobID = jobID
	p.state = StateScheduled
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.run(ctx, gen, jobID, done)
}

// Stop ends the current watch, if any, and returns the poller to idle.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supersedeLocked()
	p.gen++
	p.jobID = ""
	p.state = StateIdle
}

// Current returns the watched job ID and the watch state. The job ID is
// empty when idle.
func (p *Poller) Current() (string, State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobID, p.state
}

// Done returns a channel closed when the current watch ends, whether it
// settled, was stopped, or was superseded. When idle the channel is closed.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Poller) supersedeLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) run(ctx context.Context, gen uint64, jobID string, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(p.cfg.InitialDelay)
	defer timer.Stop()

	idle := func() State { return StateIdle }

	for {
		select {
		case <-ctx.Done():
			p.apply(gen, idle)
			return
		case <-timer.C:
		}

		if !p.apply(gen, func() State { return StateFetching }) {
			return
		}

		result, err := p.fetcher.GetJob(ctx, jobID)
		if ctx.Err() != nil {
			p.apply(gen, idle)
			return
		}
		if err == nil && result == nil {
			err = errNoResult
		}

		next := StateScheduled
		applied := p.apply(gen, func() State {
			if err != nil {
				p.sink.FetchFailed(jobID, err)
				return StateScheduled
			}
			p.sink.JobFetched(*result)
			if result.Job.IsTerminal() {
				next = StateSettled
			}
			return next
		})
		if !applied || next == StateSettled {
			return
		}

		timer.Reset(p.cfg.Interval)
	}
}

// apply runs fn and stores the state it returns, but only while gen is still
// the current watch. It reports whether fn ran.
func (p *Poller) apply(gen uint64, fn func() State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return false
	}
	p.state = fn()
	if p.state == StateSettled {
		p.supersedeLocked()
	}
	return true
}
