package arbitrage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CadeYu/polymarketArb/internal/cache"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

// MirrorConfig holds the tunables of the mirror strategy.
type MirrorConfig struct {
	// MinProfit is the emission threshold on profit per unit.
	MinProfit decimal.Decimal
}

// Mirror detects synthetic arbitrage inside a single binary market: a YES
// token can be bought either directly off the YES ask or synthetically by
// shorting NO into its bid, and likewise for the NO token. When the two
// cheapest routes together cost less than 1.0 the combined position pays out
// 1.0 at resolution regardless of outcome.
//
// The strategy is detection-only. It emits opportunities without order legs
// so they surface in logs and notifications without being executed.
type Mirror struct {
	cache  *cache.Snapshot
	cfg    MirrorConfig
	logger *slog.Logger
}

// NewMirror creates the strategy over the given snapshot cache.
func NewMirror(c *cache.Snapshot, cfg MirrorConfig, logger *slog.Logger) *Mirror {
	return &Mirror{
		cache:  c,
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "mirror")),
	}
}

// Name returns the strategy identifier.
func (s *Mirror) Name() string { return "mirror" }

// Detect scans non-neg-risk binary markets for a cross-route price gap.
func (s *Mirror) Detect(ctx context.Context) ([]domain.Opportunity, error) {
	var opportunities []domain.Opportunity
	for _, m := range s.cache.All() {
		if err := ctx.Err(); err != nil {
			return opportunities, err
		}
		if m.NegRisk || !m.Binary() || !hasBooks(&m) {
			continue
		}
		if opp, ok := s.evaluateMarket(&m); ok {
			opportunities = append(opportunities, opp)
		}
	}
	return opportunities, nil
}

func (s *Mirror) evaluateMarket(m *domain.Market) (domain.Opportunity, bool) {
	yesAsk, okYA := bestLevel(m.YesBook, false)
	yesBid, okYB := bestLevel(m.YesBook, true)
	noAsk, okNA := bestLevel(m.NoBook, false)
	noBid, okNB := bestLevel(m.NoBook, true)
	if !okYA || !okYB || !okNA || !okNB {
		return domain.Opportunity{}, false
	}

	// Buying YES directly costs the YES ask; buying it synthetically means
	// selling NO into its bid, which costs 1 - NO bid.
	effBuyYes := decimal.Min(yesAsk.Price, one.Sub(noBid.Price))
	effBuyNo := decimal.Min(noAsk.Price, one.Sub(yesBid.Price))

	totalCost := effBuyYes.Add(effBuyNo)
	if !totalCost.LessThan(one) {
		return domain.Opportunity{}, false
	}

	profit := one.Sub(totalCost)
	if !profit.GreaterThan(s.cfg.MinProfit) {
		return domain.Opportunity{}, false
	}

	s.logger.Info("synthetic arbitrage detected",
		slog.String("market", m.ID),
		slog.String("total_cost", totalCost.String()),
		slog.String("profit", profit.String()),
	)

	return domain.Opportunity{
		ID:              uuid.New().String(),
		MarketID:        m.ID,
		ConditionID:     m.ConditionID,
		OutcomeCount:    2,
		Type:            domain.OppSynthetic,
		TotalCost:       totalCost,
		EstimatedProfit: profit,
		DetectedAt:      time.Now().UTC(),
	}, true
}
