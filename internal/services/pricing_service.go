package services

import (
	"math"

	"pesanan/internal/models"
)

// Discount policy: 10% off once the subtotal goes strictly above the
// threshold. Currency-unit agnostic.
const (
	discountThreshold = 1000.0
	discountRate      = 0.9
)

// Totals is the result of pricing a line set.
type Totals struct {
	Subtotal   float64 `json:"subtotal"`
	Total      float64 `json:"total"`
	Discounted bool    `json:"discounted"`
}

// ComputeTotal prices a line set: subtotal is the sum of price*quantity over
// all lines, and the discount applies when the subtotal exceeds the
// threshold. Pure and idempotent; it never fails, zero-value lines simply
// contribute nothing. The total is NOT rounded here: rounding happens once,
// at finalize time, so repeated recomputation while the draft is edited does
// not compound rounding error.
func ComputeTotal(lines []models.OrderLine) Totals {
	var subtotal float64
	for _, line := range lines {
		if line.Quantity <= 0 || line.Price <= 0 {
			continue
		}
		subtotal += line.Price * float64(line.Quantity)
	}

	t := Totals{Subtotal: subtotal, Total: subtotal}
	if subtotal > discountThreshold {
		t.Discounted = true
		t.Total = subtotal * discountRate
	}
	return t
}

// RoundCurrency rounds to 2 decimal places, half away from zero. Applied to
// the total exactly once, when the order is finalized.
func RoundCurrency(v float64) float64 {
	return math.Round(v*100) / 100
}
