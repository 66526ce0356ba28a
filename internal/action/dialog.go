package action

import (
	"context"
	"errors"
	"sync"

	"lending_go/internal/domain"
)

// ErrDialogClosed is returned when submitting without an open dialog.
var ErrDialogClosed = errors.New("no action dialog is open")

// Dialog holds the transient PendingAction of one open action dialog.
// It is cleared on success or cancel and kept intact on failure so the user can resubmit.
type Dialog struct {
	mu      sync.Mutex
	open    bool
	pending domain.PendingAction
}

// Open replaces any current dialog.
func (d *Dialog) Open(pa domain.PendingAction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.pending = pa
}

// SetAmount updates the typed amount of the open dialog.
func (d *Dialog) SetAmount(raw string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return false
	}
	d.pending.RawDecimalAmount = raw
	return true
}

// Pending returns the open dialog's state.
func (d *Dialog) Pending() (domain.PendingAction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.open
}

// Cancel discards the dialog.
func (d *Dialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.pending = domain.PendingAction{}
}

// Submit sends the open dialog through c and closes it on success.
func (d *Dialog) Submit(ctx context.Context, c *Controller) (*Result, error) {
	pa, ok := d.Pending()
	if !ok {
		return nil, ErrDialogClosed
	}
	res, err := c.Submit(ctx, pa)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	// Only clear if the user did not reopen the dialog meanwhile
	if d.open && d.pending == pa {
		d.open = false
		d.pending = domain.PendingAction{}
	}
	d.mu.Unlock()
	return res, nil
}

// CanSubmit reports whether the submit control should be enabled.
func CanSubmit(c *Controller, pa domain.PendingAction, markets []domain.Market) bool {
	if c.State(pa.Kind).Status == StatusPending {
		return false
	}
	req, err := Build("", pa, markets)
	if err != nil {
		return false
	}
	return req.Market.Allows(pa.Kind)
}
