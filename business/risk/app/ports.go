// Package app contains application services and port definitions for the risk context.
package app

import (
	"context"

	"github.com/dpolo-eth/flasharb/business/risk/domain"
)

// StateStore persists the risk state across restarts. Load returns
// (nil, nil) when no state has been persisted yet.
type StateStore interface {
	Load(ctx context.Context) (*domain.RiskState, error)
	Save(ctx context.Context, state *domain.RiskState) error
}
