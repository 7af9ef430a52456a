package services

import (
	"pesanan/internal/models"
)

// Cardinality bounds for a draft's line set.
const (
	minOrderLines = 1
	maxOrderLines = 3
)

// CheckLines runs the structural rules over a draft's line set and returns
// every violation found. The three rules are independent and all of them are
// evaluated on every call:
//
//  1. the set holds between 1 and 3 lines,
//  2. no two lines share a product,
//  3. each line's quantity is between 1 and its stock snapshot.
//
// An empty result means the line set is structurally valid. Callers re-run
// this on every structural change (add, remove, quantity or product edit).
func CheckLines(lines []models.OrderLine) []error {
	var failures []error

	if len(lines) < minOrderLines || len(lines) > maxOrderLines {
		failures = append(failures, ErrTooFewOrTooManyProducts)
	}

	seen := make(map[string]bool, len(lines))
	duplicate := false
	for _, line := range lines {
		if seen[line.ProductID] {
			duplicate = true
		}
		seen[line.ProductID] = true
	}
	if duplicate {
		failures = append(failures, ErrDuplicateProduct)
	}

	for i, line := range lines {
		if line.Quantity < 1 || line.Quantity > line.Stock {
			failures = append(failures, &QuantityError{Index: i, Quantity: line.Quantity, Stock: line.Stock})
		}
	}

	return failures
}

// LinesValid reports whether the structural rules all hold.
func LinesValid(lines []models.OrderLine) bool {
	return len(CheckLines(lines)) == 0
}
