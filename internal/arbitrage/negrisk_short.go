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

// NegRiskShortConfig holds the tunables of the neg-risk short strategy.
type NegRiskShortConfig struct {
	// TargetSize is the per-leg size every effective price is computed for.
	TargetSize decimal.Decimal
	// ExecutionBuffer is subtracted from gross profit to cover fees and
	// slippage.
	ExecutionBuffer decimal.Decimal
	// MinProfit is the emission threshold on net profit per unit.
	MinProfit decimal.Decimal
}

// NegRiskShort detects short arbitrage across the member markets of a
// neg-risk event: when the depth-aware effective YES sell prices across the
// whole event sum above 1.0, minting one full outcome set for 1.0 and
// selling every YES leg locks in the difference.
type NegRiskShort struct {
	cache  *cache.Snapshot
	cfg    NegRiskShortConfig
	logger *slog.Logger
}

// NewNegRiskShort creates the strategy over the given snapshot cache.
func NewNegRiskShort(c *cache.Snapshot, cfg NegRiskShortConfig, logger *slog.Logger) *NegRiskShort {
	return &NegRiskShort{
		cache:  c,
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", "negrisk_short")),
	}
}

// Name returns the strategy identifier.
func (s *NegRiskShort) Name() string { return "negrisk_short" }

// Detect groups cached neg-risk markets by event and emits one opportunity
// per event whose effective YES bids sum high enough above 1.0. A group is
// abandoned whole when any member is unhealthy or lacks the depth to fill
// the target size: a partial hedge is not executable.
func (s *NegRiskShort) Detect(ctx context.Context) ([]domain.Opportunity, error) {
	groups := make(map[string][]domain.Market)
	for _, m := range s.cache.All() {
		if !m.NegRisk || m.EventID == "" {
			continue
		}
		groups[m.EventID] = append(groups[m.EventID], m)
	}

	var opportunities []domain.Opportunity
	for eventID, markets := range groups {
		if err := ctx.Err(); err != nil {
			return opportunities, err
		}
		if opp, ok := s.evaluateEvent(eventID, markets); ok {
			opportunities = append(opportunities, opp)
		}
	}
	return opportunities, nil
}

func (s *NegRiskShort) evaluateEvent(eventID string, markets []domain.Market) (domain.Opportunity, bool) {
	totalEffectiveBid := decimal.Zero
	requests := make([]domain.OrderRequest, 0, len(markets))

	for i := range markets {
		m := &markets[i]
		if !m.Active || m.Closed || !m.AcceptingOrders {
			return domain.Opportunity{}, false
		}
		if !m.Binary() {
			return domain.Opportunity{}, false
		}

		effectiveBid, ok := effectivePrice(m.YesBook, s.cfg.TargetSize, true)
		if !ok || effectiveBid.IsZero() {
			return domain.Opportunity{}, false
		}
		totalEffectiveBid = totalEffectiveBid.Add(effectiveBid)

		requests = append(requests, domain.OrderRequest{
			TokenID: m.TokenIDs[0],
			Price:   effectiveBid,
			Size:    s.cfg.TargetSize,
			Side:    domain.SideSell,
		})
	}

	if !totalEffectiveBid.GreaterThan(one) {
		return domain.Opportunity{}, false
	}

	grossProfit := totalEffectiveBid.Sub(one)
	netProfit := grossProfit.Sub(s.cfg.ExecutionBuffer)

	s.logger.Info("pre-flight report",
		slog.String("event", eventID),
		slog.String("sum_effective_bid", totalEffectiveBid.String()),
		slog.String("buffer", s.cfg.ExecutionBuffer.String()),
		slog.String("net_profit", netProfit.String()),
	)

	if !netProfit.GreaterThan(s.cfg.MinProfit) {
		return domain.Opportunity{}, false
	}

	s.logger.Info("neg-risk short arbitrage detected",
		slog.String("event", eventID),
		slog.String("profit", netProfit.String()),
		slog.Int("legs", len(requests)),
	)

	return domain.Opportunity{
		ID:           uuid.New().String(),
		MarketID:     eventID,
		ConditionID:  markets[0].ConditionID,
		OutcomeCount: len(markets),
		Type:         domain.OppNegRiskShort,
		RequiredOrders: requests,
		// Minting one full outcome set costs exactly 1 unit of collateral.
		TotalCost:       one,
		EstimatedProfit: netProfit,
		DetectedAt:      time.Now().UTC(),
	}, true
}
