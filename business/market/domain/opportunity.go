package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is a detected cross-venue spread on a single network:
// buy Base on BuyVenue, sell it on SellVenue.
type Opportunity struct {
	ID          string
	Network     string
	Priority    decimal.Decimal
	Pair        Pair
	BuyVenue    Venue
	SellVenue   Venue
	BuyQuote    Quote
	SellQuote   Quote
	SpreadPct   decimal.Decimal // round-trip return as percentage of amount in
	TradeAmount decimal.Decimal // flash-loan notional in quote-asset units
	Timestamp   time.Time
}

// NewOpportunityID builds a deterministic identifier for logging and dedup.
func NewOpportunityID(network string, pair Pair, buy, sell Venue, ts time.Time) string {
	return fmt.Sprintf("%s:%s:%s>%s:%d", network, pair, buy.Name, sell.Name, ts.UnixNano())
}

// ProfitEstimate is the full cost breakdown for an opportunity at a
// given trade size. All monetary fields are USD.
type ProfitEstimate struct {
	GrossUSD        decimal.Decimal
	FlashLoanFeeUSD decimal.Decimal
	GasUSD          decimal.Decimal
	NetUSD          decimal.Decimal
	NetPct          decimal.Decimal // net profit as percentage of trade notional
	Profitable      bool
}

// EvaluatedOpportunity pairs an opportunity with its profit estimate.
type EvaluatedOpportunity struct {
	Opportunity Opportunity
	Estimate    ProfitEstimate
	Confidence  decimal.Decimal // set by the predictor, zero until scored
}
