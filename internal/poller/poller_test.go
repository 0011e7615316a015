package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/visadesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLog is a job log the test can grow while the poller reads it.
type fakeLog struct {
	mu      sync.Mutex
	entries []models.LogEntry
	err     error
	calls   atomic.Int64
}

func (f *fakeLog) set(entries []models.LogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func (f *fakeLog) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeLog) fetch(ctx context.Context) ([]models.LogEntry, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.LogEntry(nil), f.entries...), nil
}

func entries(n int) []models.LogEntry {
	out := make([]models.LogEntry, n)
	for i := range out {
		out[i] = models.LogEntry{ID: int64(i + 1), ActionLabel: "step", Status: models.LogSuccess}
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	p := New((&fakeLog{}).fetch, Options{})
	assert.Equal(t, DefaultInterval, p.interval)

	snap := p.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, JobIdle, snap.Job)
	assert.False(t, snap.Open)
}

func TestRefreshReplacesOnlyOnLengthChange(t *testing.T) {
	log := &fakeLog{}
	p := New(log.fetch, Options{})
	ctx := context.Background()

	log.set(entries(2))
	p.refresh(ctx, false)
	first := p.Snapshot().Entries
	require.Len(t, first, 2)

	// Same length, different content: invisible until a forced fetch.
	changed := entries(2)
	changed[1].ResponseText = "rewritten"
	log.set(changed)
	p.refresh(ctx, false)
	assert.Equal(t, first, p.Snapshot().Entries)

	log.set(entries(4))
	p.refresh(ctx, false)
	assert.Equal(t, entries(4), p.Snapshot().Entries)

	log.set(changed)
	p.refresh(ctx, true)
	assert.Equal(t, changed, p.Snapshot().Entries, "forced fetch always replaces")
}

func TestRefreshExpandsLatest(t *testing.T) {
	log := &fakeLog{}
	p := New(log.fetch, Options{})

	log.set([]models.LogEntry{{ID: 7}, {ID: 12}, {ID: 9}})
	p.refresh(context.Background(), false)
	assert.Equal(t, int64(12), p.Snapshot().Expanded)

	p.Expand(7)
	assert.Equal(t, int64(7), p.Snapshot().Expanded)
}

func TestRefreshFailureKeepsEntries(t *testing.T) {
	log := &fakeLog{}
	p := New(log.fetch, Options{})
	ctx := context.Background()

	log.set(entries(3))
	p.refresh(ctx, false)

	boom := errors.New("connection reset")
	log.fail(boom)
	p.refresh(ctx, false)

	snap := p.Snapshot()
	assert.Len(t, snap.Entries, 3)
	assert.ErrorIs(t, snap.FetchErr, boom)
}

func TestStopIsIdempotent(t *testing.T) {
	log := &fakeLog{}
	p := New(log.fetch, Options{Interval: 5 * time.Millisecond})

	p.Stop()
	p.Start(context.Background())
	p.Stop()
	p.Stop()

	calls := log.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, log.calls.Load(), "no fetches after Stop")
}

func TestStartResetsState(t *testing.T) {
	log := &fakeLog{}
	p := New(log.fetch, Options{Interval: time.Hour})

	log.set(entries(3))
	p.refresh(context.Background(), false)

	p.Start(context.Background())
	defer p.Stop()

	snap := p.Snapshot()
	assert.Empty(t, snap.Entries)
	assert.True(t, snap.Open)
	assert.Equal(t, StateRunning, snap.State)
	assert.Zero(t, p.lastCount)
}

func TestRunJobLifecycle(t *testing.T) {
	log := &fakeLog{}
	sawThree := make(chan struct{})
	var once sync.Once

	p := New(log.fetch, Options{
		Interval: 10 * time.Millisecond,
		OnChange: func(s Snapshot) {
			if s.State == StateRunning && len(s.Entries) == 3 && s.Expanded == 3 {
				once.Do(func() { close(sawThree) })
			}
		},
	})

	err := p.Run(context.Background(), func(ctx context.Context) error {
		log.set(entries(3))
		select {
		case <-sawThree:
		case <-time.After(5 * time.Second):
			return errors.New("poll tick never observed 3 entries")
		}
		// Written between the last tick and completion.
		log.set(entries(5))
		return nil
	})
	require.NoError(t, err)

	snap := p.Snapshot()
	assert.Equal(t, StateSettled, snap.State)
	assert.Equal(t, JobSucceeded, snap.Job)
	assert.True(t, snap.Open, "dialog stays open after the job settles")
	assert.Len(t, snap.Entries, 5)
	assert.Equal(t, int64(5), snap.Expanded)

	calls := log.calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, calls, log.calls.Load(), "polling stopped")
}

func TestRunJobFailureKeepsLog(t *testing.T) {
	log := &fakeLog{}
	log.set(entries(2))
	p := New(log.fetch, Options{Interval: time.Hour})

	boom := errors.New("LLM quota exceeded")
	err := p.Run(context.Background(), func(ctx context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	snap := p.Snapshot()
	assert.Equal(t, JobFailed, snap.Job)
	assert.ErrorIs(t, snap.JobErr, boom)
	assert.Len(t, snap.Entries, 2, "final fetch runs on failure too")
}

func TestCloseWhileRunningStopsPollingOnly(t *testing.T) {
	log := &fakeLog{}
	p := New(log.fetch, Options{Interval: 5 * time.Millisecond})

	release := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		result <- p.Run(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()

	require.Eventually(t, func() bool { return log.calls.Load() >= 2 }, time.Second, time.Millisecond)

	p.Close()
	snap := p.Snapshot()
	assert.False(t, snap.Open)
	assert.Equal(t, JobRunning, snap.Job, "backend job keeps running")

	calls := log.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, log.calls.Load(), "no polling after close")

	log.set(entries(4))
	close(release)
	require.NoError(t, <-result)

	snap = p.Snapshot()
	assert.Equal(t, JobSucceeded, snap.Job)
	assert.Len(t, snap.Entries, 4)
}

func TestCloseWhenSettledResets(t *testing.T) {
	log := &fakeLog{}
	log.set(entries(1))
	p := New(log.fetch, Options{Interval: time.Hour})

	require.NoError(t, p.Run(context.Background(), func(ctx context.Context) error { return nil }))
	p.Close()

	snap := p.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, JobIdle, snap.Job)
	assert.Empty(t, snap.Entries)
}
