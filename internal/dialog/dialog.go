// Package dialog provides the form shell shared by every entity screen:
// confirm prompts for destructive actions, draft buffers for create/edit
// forms, and a self-clearing error banner.
package dialog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// Confirmer asks yes/no questions. With Force set every question is answered
// yes without prompting.
type Confirmer struct {
	In    io.Reader
	Out   io.Writer
	Force bool

	reader *bufio.Reader
}

// Confirm prints prompt and reads an answer. Only "y" and "yes" confirm.
func (c *Confirmer) Confirm(prompt string) (bool, error) {
	if c.Force {
		return true, nil
	}
	if c.reader == nil {
		c.reader = bufio.NewReader(c.In)
	}

	fmt.Fprintf(c.Out, "%s [y/N]: ", prompt)
	response, err := c.reader.ReadString('\n')
	// EOF without an answer counts as no.
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read input: %w", err)
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// Require is Confirm that turns a "no" into ErrCancelled.
func (c *Confirmer) Require(prompt string) error {
	ok, err := c.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// Draft is an edit buffer for a form. Changes live only in the buffer until
// Commit succeeds; Cancel discards them.
type Draft[T any] struct {
	original T
	value    T
	open     bool
}

// Begin opens the draft with initial as both the original and working value.
func (d *Draft[T]) Begin(initial T) {
	d.original = initial
	d.value = initial
	d.open = true
}

// Open reports whether the draft is being edited.
func (d *Draft[T]) Open() bool { return d.open }

// Value returns the working value.
func (d *Draft[T]) Value() T { return d.value }

// Original returns the value the draft started from.
func (d *Draft[T]) Original() T { return d.original }

// Edit applies fn to the working value.
func (d *Draft[T]) Edit(fn func(*T)) {
	if !d.open {
		return
	}
	fn(&d.value)
}

// Commit hands the working value to save. The draft closes only when save
// succeeds, so a failed save can be retried with the edits intact.
func (d *Draft[T]) Commit(save func(T) error) error {
	if !d.open {
		return errors.New("no draft open")
	}
	if err := save(d.value); err != nil {
		return err
	}
	d.Cancel()
	return nil
}

// Cancel discards the draft.
func (d *Draft[T]) Cancel() {
	var zero T
	d.original, d.value, d.open = zero, zero, false
}

// DefaultBannerTTL is how long an error stays on screen.
const DefaultBannerTTL = 5 * time.Second

// Banner holds the current error message of a screen. A message clears itself
// after TTL, or when the next action calls Reset.
type Banner struct {
	TTL time.Duration

	mu    sync.Mutex
	msg   string
	seq   uint64
	timer *time.Timer
}

// Show displays err's message. A nil err clears the banner.
func (b *Banner) Show(err error) {
	if err == nil {
		b.Reset()
		return
	}
	ttl := b.TTL
	if ttl <= 0 {
		ttl = DefaultBannerTTL
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.seq++
	seq := b.seq
	b.msg = err.Error()
	b.timer = time.AfterFunc(ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		// A newer message owns the banner now.
		if b.seq == seq {
			b.msg = ""
		}
	})
}

// Reset clears the banner at the start of a new action.
func (b *Banner) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.seq++
	b.msg = ""
}

// Message returns the current message, or "" when nothing is shown.
func (b *Banner) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg
}
