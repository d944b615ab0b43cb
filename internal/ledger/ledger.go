// Package ledger holds the financial reconciliation rules of the
// factoring back office: operation lifecycle, due-date status, receipt
// allocation and reversal, derived views and the interest calculator.
//
// Every function is pure. It takes a domain.State snapshot and returns a
// new one; the input snapshot and its slices are never modified, so a
// rejected or unsaved mutation leaves the caller's snapshot intact.
package ledger

import (
	"strings"

	"github.com/caribe/factoring-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	// PartitionTolerance bounds |principal + juros - total| on a receipt.
	PartitionTolerance = 0.005
	// CapTolerance absorbs cent rounding when cumulative allocations are
	// compared with an operation's principal and interest totals.
	CapTolerance = 0.01
)

// nextID returns max(highWater, max id in items) + 1.
func nextID[T any](highWater int, items []T, id func(T) int) int {
	max := highWater
	for _, it := range items {
		if v := id(it); v > max {
			max = v
		}
	}
	return max + 1
}

func prepend[T any](items []T, v T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, v)
	return append(out, items...)
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// cents rounds a currency amount to two decimal places.
func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// sum adds amounts exactly, without rounding any of them.
func sum(values ...float64) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

// Round2 rounds v to cents.
func Round2(v float64) float64 {
	f, _ := cents(v).Float64()
	return f
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func invalid(field, msg string) error {
	return &domain.ErrValidation{Field: field, Message: msg}
}
