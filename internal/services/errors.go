package services

import (
	"errors"
	"fmt"
	"strings"
)

// Structural rule violations. All of them are recoverable by re-editing the
// draft; none aborts the session.
var (
	// ErrTooFewOrTooManyProducts signals a draft with fewer than one or more
	// than three lines.
	ErrTooFewOrTooManyProducts = errors.New("an order must contain between 1 and 3 products")

	// ErrDuplicateProduct signals two lines sharing the same product.
	ErrDuplicateProduct = errors.New("an order cannot contain the same product twice")

	// ErrCustomerNameInvalid signals a missing or too-short customer name.
	ErrCustomerNameInvalid = errors.New("customer name is required and must be at least 3 characters")

	// ErrEmailInvalid signals a missing or malformed email address.
	ErrEmailInvalid = errors.New("a valid email address is required")

	// ErrOrderLimitExceeded signals the rate limiter denying an email that
	// placed 3 or more orders inside the trailing 24-hour window.
	ErrOrderLimitExceeded = errors.New("order limit reached for this email, try again later")

	// ErrNotSubmittable is returned by TrySubmit when the draft has not
	// passed validation.
	ErrNotSubmittable = errors.New("draft is not submittable")
)

// QuantityError reports a line whose quantity falls outside 1..stock
// snapshot. Index is the position of the offending line in the draft.
type QuantityError struct {
	Index    int
	Quantity int
	Stock    int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("line %d: quantity %d out of range (must be between 1 and %d)", e.Index, e.Quantity, e.Stock)
}

// ValidationError aggregates every rule a draft failed, for display. It is
// returned by TrySubmit and SubmitDraft instead of the first failure found so
// the caller can surface all of them at once.
type ValidationError struct {
	Failures []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return "order validation failed: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is match a ValidationError against any of its failures.
func (e *ValidationError) Is(target error) bool {
	for _, f := range e.Failures {
		if errors.Is(f, target) {
			return true
		}
	}
	return false
}
