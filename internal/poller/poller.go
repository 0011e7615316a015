// Package poller runs a long-running backend job while polling its log
// endpoint at a fixed interval.
//
// The log list is replaced only when a fetched list differs in length from the
// last one seen. When the job request resolves, polling stops and one final
// unconditional fetch captures anything written after the last tick.
package poller

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// DefaultInterval is the poll interval used when none is configured.
const DefaultInterval = 2 * time.Second

// State is the lifecycle state of the poller.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSettled State = "settled"
)

// JobStatus is the status of the job being observed.
type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// FetchFunc returns the full log list of the job.
type FetchFunc func(ctx context.Context) ([]models.LogEntry, error)

// JobFunc issues the one-shot request that runs the job.
type JobFunc func(ctx context.Context) error

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
	// OnChange is called after every state change with a fresh snapshot. It is
	// called without the poller lock held and may be called from any goroutine.
	OnChange func(Snapshot)
}

// Snapshot is a copy of the observable poller state.
type Snapshot struct {
	State    State
	Job      JobStatus
	Open     bool
	Entries  []models.LogEntry
	Expanded int64 // id of the expanded entry, 0 when none
	FetchErr error // last fetch failure; entries are kept when set
	JobErr   error
}

// Poller observes one job at a time. All methods are safe for concurrent use.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   *slog.Logger
	onChange func(Snapshot)

	mu        sync.Mutex
	state     State
	job       JobStatus
	open      bool
	entries   []models.LogEntry
	lastCount int
	expanded  int64
	fetchErr  error
	jobErr    error

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a poller that reads logs with fetch.
func New(fetch FetchFunc, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		onChange: opts.OnChange,
		state:    StateIdle,
		job:      JobIdle,
	}
}

// Start clears the log list, opens the dialog and begins polling. A poll loop
// that is already active is stopped first.
func (p *Poller) Start(ctx context.Context) {
	p.Stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.entries = nil
	p.lastCount = 0
	p.expanded = 0
	p.fetchErr = nil
	p.open = true
	p.state = StateRunning
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.notify()
	go p.loop(loopCtx, done)
}

// Stop halts the poll loop and waits for it to exit. It is safe to call when
// polling is not active.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run starts polling, issues the job request and blocks until it resolves.
// Polling then stops, the log is fetched one final time and the job settles.
// The returned error is the job request's error.
func (p *Poller) Run(ctx context.Context, job JobFunc) error {
	p.mu.Lock()
	p.job = JobRunning
	p.jobErr = nil
	p.mu.Unlock()

	p.Start(ctx)

	err := job(ctx)

	p.Stop()
	p.refresh(ctx, true)

	p.mu.Lock()
	p.state = StateSettled
	p.jobErr = err
	if err != nil {
		p.job = JobFailed
	} else {
		p.job = JobSucceeded
	}
	p.mu.Unlock()

	if err != nil {
		p.logger.Warn("job failed", "error", err)
	}
	p.notify()
	return err
}

// Close closes the log dialog. While a job is running this only stops
// polling; the backend job keeps running and Run still settles it. Otherwise
// the poller is reset to idle.
func (p *Poller) Close() {
	p.Stop()

	p.mu.Lock()
	p.open = false
	if p.job != JobRunning {
		p.state = StateIdle
		p.job = JobIdle
		p.entries = nil
		p.lastCount = 0
		p.expanded = 0
		p.fetchErr = nil
		p.jobErr = nil
	}
	p.mu.Unlock()

	p.notify()
}

// Expand marks the entry with the given id as expanded.
func (p *Poller) Expand(id int64) {
	p.mu.Lock()
	p.expanded = id
	p.mu.Unlock()
	p.notify()
}

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Poller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    p.state,
		Job:      p.job,
		Open:     p.open,
		Entries:  slices.Clone(p.entries),
		Expanded: p.expanded,
		FetchErr: p.fetchErr,
		JobErr:   p.jobErr,
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx, false)
		}
	}
}

// refresh fetches the log list. Without force the list is only replaced when
// its length changed. Successful fetches expand the latest entry.
func (p *Poller) refresh(ctx context.Context, force bool) {
	entries, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil && !force {
			return
		}
		p.logger.Debug("fetch job log failed", "error", err)
		p.mu.Lock()
		p.fetchErr = err
		p.mu.Unlock()
		p.notify()
		return
	}

	p.mu.Lock()
	p.fetchErr = nil
	if force || len(entries) != p.lastCount {
		p.entries = slices.Clone(entries)
		p.lastCount = len(entries)
	}
	if latest := models.LatestID(p.entries); latest != 0 {
		p.expanded = latest
	}
	p.mu.Unlock()

	p.notify()
}

func (p *Poller) notify() {
	if p.onChange == nil {
		return
	}
	p.onChange(p.Snapshot())
}
