package dialog

import (
	"context"
	"errors"
	"sync"
)

// Request describes one confirmation: the prompt shown to the user and the
// action to run once they accept.
type Request struct {
	Description string
	OnConfirm   func(ctx context.Context) error
}

// Confirmation gates a destructive action behind an explicit yes. Only one
// request is live at a time; a second Confirm replaces the first. A failed
// action keeps the prompt open so the user can retry, a cancel drops the
// action without running it.
type Confirmation struct {
	mu          sync.Mutex
	description string
	onConfirm   func(ctx context.Context) error
	open        bool
	loading     bool
	seq         uint64
}

// Confirm arms the flow with a new request, replacing any pending one.
func (c *Confirmation) Confirm(req Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.description = req.Description
	c.onConfirm = req.OnConfirm
	c.open = true
	c.loading = false
	c.seq++
}

// Accept runs the armed action. On success the prompt closes; on failure it
// stays open with the loading flag cleared so the same action can be
// retried. The failure itself has already been reported where it happened,
// so Accept only returns it as a signal.
func (c *Confirmation) Accept(ctx context.Context) error {
	c.mu.Lock()
	if !c.open || c.onConfirm == nil {
		c.mu.Unlock()
		return errors.New("dialog: no confirmation pending")
	}
	action := c.onConfirm
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	err := action(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		// Cancelled or replaced while the action ran; the outcome no
		// longer has a prompt to act on.
		return err
	}
	c.loading = false
	if err != nil {
		return err
	}
	c.open = false
	c.description = ""
	c.onConfirm = nil
	return nil
}

// Cancel dismisses the prompt without running the action. An action already
// in flight is left to finish; its result is ignored.
func (c *Confirmation) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.loading = false
	c.description = ""
	c.onConfirm = nil
	c.seq++
}

// IsOpen reports whether a confirmation is pending or running.
func (c *Confirmation) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// IsLoading reports whether the accepted action is still running.
func (c *Confirmation) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Description returns the prompt text for rendering.
func (c *Confirmation) Description() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.description
}
