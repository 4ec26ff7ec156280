package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a single venue's answer to "how much of Quote do I get for
// AmountIn of Base". Amounts are venue-normalized decimals, not raw wei.
type Quote struct {
	Venue       Venue
	Pair        Pair
	AmountIn    decimal.Decimal
	AmountOut   decimal.Decimal
	GasEstimate uint64
	Timestamp   time.Time
}

// Price returns the effective unit price (AmountOut / AmountIn).
func (q Quote) Price() decimal.Decimal {
	if q.AmountIn.IsZero() {
		return decimal.Zero
	}
	return q.AmountOut.Div(q.AmountIn)
}

// ScanError records a venue that failed to quote during a scan sweep.
// Transient errors are recorded and skipped, never fatal to the sweep.
type ScanError struct {
	Venue Venue
	Err   error
}

// QuoteSet is the outcome of sweeping one pair across all venues on a network.
type QuoteSet struct {
	Network   string
	Pair      Pair
	Quotes    []Quote
	Errors    []ScanError
	Timestamp time.Time
}

// Best returns the quote with the highest AmountOut, or false if empty.
func (s QuoteSet) Best() (Quote, bool) {
	if len(s.Quotes) == 0 {
		return Quote{}, false
	}
	best := s.Quotes[0]
	for _, q := range s.Quotes[1:] {
		if q.AmountOut.GreaterThan(best.AmountOut) {
			best = q
		}
	}
	return best, true
}

// Comparable reports whether the set has at least two usable quotes,
// the minimum needed to look for a spread.
func (s QuoteSet) Comparable() bool {
	return len(s.Quotes) >= 2
}
