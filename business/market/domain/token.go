// Package domain contains the core domain types for the market context.
package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token represents an ERC20 token on a specific chain.
type Token struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
	ChainID  uint64
}

// Equals compares two tokens by chain and address.
func (t Token) Equals(other Token) bool {
	return t.ChainID == other.ChainID && t.Address == other.Address
}

// String returns a human-readable representation.
func (t Token) String() string {
	return t.Symbol
}

// Pair is an ordered trading pair: Base is the asset being traded,
// Quote is the asset it is priced in.
type Pair struct {
	Base  Token
	Quote Token
}

// String returns the pair in "BASE-QUOTE" form.
func (p Pair) String() string {
	return fmt.Sprintf("%s-%s", p.Base.Symbol, p.Quote.Symbol)
}

// ParsePairSymbols splits a "BASE-QUOTE" string into its symbols.
func ParsePairSymbols(s string) (base, quote string, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid pair format: %q (expected BASE-QUOTE)", s)
	}
	return parts[0], parts[1], nil
}

// Venue is a DEX router on a specific network where the pair can be traded.
type Venue struct {
	Name       string
	Network    string
	Router     common.Address
	FeeTierBps int
}

// String returns a human-readable representation.
func (v Venue) String() string {
	return fmt.Sprintf("%s@%s", v.Name, v.Network)
}
