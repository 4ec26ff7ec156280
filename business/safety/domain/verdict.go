// Package domain contains the core domain types for the safety context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Source records which path produced a verdict.
type Source string

const (
	SourceWhitelist Source = "whitelist"
	SourceCache     Source = "cache"
	SourceLive      Source = "live"
)

// Verdict is the outcome of assessing one token on one chain.
type Verdict struct {
	ChainID   uint64
	Token     common.Address
	Safe      bool
	Reasons   []string // rejection reasons, empty when safe
	Warnings  []string // advisory findings that did not reject
	Source    Source
	CheckedAt time.Time
}

// Reject marks the verdict unsafe with a reason.
func (v *Verdict) Reject(reason string) {
	v.Safe = false
	v.Reasons = append(v.Reasons, reason)
}

// Warn attaches an advisory finding without rejecting.
func (v *Verdict) Warn(warning string) {
	v.Warnings = append(v.Warnings, warning)
}

// HoneypotReport is the result of a honeypot simulation check.
type HoneypotReport struct {
	IsHoneypot bool
	BuyTaxPct  decimal.Decimal
	SellTaxPct decimal.Decimal
	Flags      []string
}

// LiquidityReport aggregates DEX liquidity and trading volume for a
// token.
type LiquidityReport struct {
	TotalLiquidityUSD decimal.Decimal
	Volume24hUSD      decimal.Decimal
	PairCount         int
}

// ContractReport is the result of on-chain contract inspection.
type ContractReport struct {
	HasBytecode     bool
	ImplementsERC20 bool
	OwnerRenounced  bool
}
