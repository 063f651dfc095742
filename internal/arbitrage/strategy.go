// Package arbitrage provides the pluggable detection strategies that scan
// the market snapshot cache for risk-free pricing inconsistencies.
package arbitrage

import (
	"context"

	"github.com/CadeYu/polymarketArb/internal/domain"
)

// Strategy detects arbitrage opportunities from the current snapshot cache
// contents. Detect is a pure function of cache state at call time: it must
// recompute fully on every run, never rely on prior invocations, and must
// skip (not fail on) a single malformed market.
type Strategy interface {
	Name() string
	Detect(ctx context.Context) ([]domain.Opportunity, error)
}
