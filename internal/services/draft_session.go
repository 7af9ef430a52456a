package services

import (
	"fmt"

	"pesanan/internal/models"
)

// DraftState is the validation state of an in-progress draft.
type DraftState int

const (
	// StateEditing: the draft has pending edits not yet validated.
	StateEditing DraftState = iota
	// StateValidating: structural rules passed, the rate-limit check for the
	// current email has not resolved yet.
	StateValidating
	// StateSubmittable: every rule passed; TrySubmit may finalize.
	StateSubmittable
	// StateRejected: at least one rule failed; the failures are attached.
	StateRejected
)

func (s DraftState) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateSubmittable:
		return "submittable"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// DraftSession is one order being composed. It owns the draft exclusively
// (single editing session, no concurrent access) and re-runs the rule set
// after every mutation: structural rules synchronously, the rate limit
// asynchronously with a discard-stale policy. A rate-limit result only
// counts if it belongs to the most recently entered email value.
type DraftSession struct {
	svc   *OrderService
	draft models.OrderDraft

	state    DraftState
	failures []error

	// Rate-limit bookkeeping for the current email value. rate holds the
	// accepted result, pending the channel of the most recently started
	// check. Results for superseded checks are dropped in ApplyRateLimit.
	rate    *RateLimitResult
	pending <-chan RateLimitResult
}

// NewDraft opens a fresh editing session.
func (s *OrderService) NewDraft() *DraftSession {
	return &DraftSession{svc: s, state: StateEditing}
}

// Draft returns a copy of the current draft value.
func (d *DraftSession) Draft() models.OrderDraft {
	return d.draft
}

// State returns the current validation state.
func (d *DraftSession) State() DraftState {
	return d.state
}

// Failures returns the rules the last validation failed on.
func (d *DraftSession) Failures() []error {
	return d.failures
}

// Totals prices the current line set. Safe to call at any time; the result
// is unrounded while editing.
func (d *DraftSession) Totals() Totals {
	return ComputeTotal(d.draft.Lines)
}

// SetCustomerName updates the customer name and re-validates.
func (d *DraftSession) SetCustomerName(name string) {
	d.draft.CustomerName = name
	d.edited()
}

// SetEmail updates the email and starts a fresh asynchronous rate-limit
// check for it. Any check still in flight for a previous value is
// superseded: its result will be discarded when it arrives.
func (d *DraftSession) SetEmail(email string) <-chan RateLimitResult {
	d.draft.Email = email
	d.rate = nil
	d.pending = d.svc.limiter.Check(email)
	d.edited()
	return d.pending
}

// AddLine attaches a product to the draft, snapshotting its current price
// and stock for quantity checking.
func (d *DraftSession) AddLine(productID string, quantity int) error {
	product, err := d.svc.productRepo.GetByID(productID)
	if err != nil {
		return fmt.Errorf("cannot add product to order: %w", err)
	}
	d.draft.Lines = append(d.draft.Lines, models.OrderLine{
		ProductID: product.ID,
		Quantity:  quantity,
		Price:     product.Price,
		Stock:     product.Stock,
	})
	d.edited()
	return nil
}

// SetLineQuantity changes the quantity of the line at index.
func (d *DraftSession) SetLineQuantity(index, quantity int) error {
	if index < 0 || index >= len(d.draft.Lines) {
		return fmt.Errorf("no order line at index %d", index)
	}
	d.draft.Lines[index].Quantity = quantity
	d.edited()
	return nil
}

// SetLineProduct swaps the product of the line at index, refreshing the
// price and stock snapshots.
func (d *DraftSession) SetLineProduct(index int, productID string) error {
	if index < 0 || index >= len(d.draft.Lines) {
		return fmt.Errorf("no order line at index %d", index)
	}
	product, err := d.svc.productRepo.GetByID(productID)
	if err != nil {
		return fmt.Errorf("cannot change order line product: %w", err)
	}
	line := &d.draft.Lines[index]
	line.ProductID = product.ID
	line.Price = product.Price
	line.Stock = product.Stock
	d.edited()
	return nil
}

// RemoveLine removes the line at index.
func (d *DraftSession) RemoveLine(index int) error {
	if index < 0 || index >= len(d.draft.Lines) {
		return fmt.Errorf("no order line at index %d", index)
	}
	d.draft.Lines = append(d.draft.Lines[:index], d.draft.Lines[index+1:]...)
	d.edited()
	return nil
}

// ApplyRateLimit feeds a resolved rate-limit result back into the session.
// Stale results and results for an email the draft no longer holds are
// discarded, so an in-flight check can never clobber the validity of a
// fresher input (last writer wins by initiation order).
func (d *DraftSession) ApplyRateLimit(res RateLimitResult) {
	if res.Stale || res.Email != d.draft.Email {
		return
	}
	if d.rate != nil && res.Seq < d.rate.Seq {
		return
	}
	d.rate = &res
	d.revalidate()
}

// AwaitValidation blocks until the pending rate-limit check (if any)
// resolves, applies it, and returns the settled state.
func (d *DraftSession) AwaitValidation() DraftState {
	if d.pending != nil {
		res := <-d.pending
		d.pending = nil
		d.ApplyRateLimit(res)
	}
	return d.state
}

// TrySubmit finalizes the draft if and only if it is submittable. It waits
// for an unresolved rate-limit check, then either returns the finalized,
// persisted order or a *ValidationError listing every failed rule. An
// invalid draft never reaches the order store.
func (d *DraftSession) TrySubmit() (*models.Order, error) {
	if d.state == StateEditing {
		d.revalidate()
	}
	if d.state == StateValidating {
		d.AwaitValidation()
	}
	if d.state != StateSubmittable {
		if len(d.failures) > 0 {
			return nil, &ValidationError{Failures: d.failures}
		}
		return nil, ErrNotSubmittable
	}

	order, err := d.svc.finalize(d.draft)
	if err != nil {
		// Submission failure: nothing was persisted, the draft stays
		// editable and may be retried.
		d.state = StateEditing
		return nil, err
	}
	return order, nil
}

// edited marks the draft dirty and schedules re-validation. In this
// single-threaded model scheduling is immediate: the structural rules run
// now, the rate limit settles whenever its result is applied.
func (d *DraftSession) edited() {
	d.state = StateEditing
	d.revalidate()
}

// revalidate recomputes the aggregate decision from the current draft state:
// field and line rules synchronously, plus whatever rate-limit verdict has
// been accepted for the current email. With structural rules passing and the
// rate check still unresolved, the draft parks in StateValidating.
func (d *DraftSession) revalidate() {
	d.state = StateValidating
	d.failures = d.svc.CheckDraft(d.draft)

	if d.rate != nil && !d.rate.Allowed {
		d.failures = append(d.failures, d.rate.Err)
	}

	if len(d.failures) > 0 {
		d.state = StateRejected
		return
	}
	if d.draft.Email != "" && d.rate == nil {
		// Rate-limit check still in flight; not submittable yet.
		return
	}
	d.state = StateSubmittable
}
