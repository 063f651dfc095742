package arbitrage

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CadeYu/polymarketArb/internal/cache"
	"github.com/CadeYu/polymarketArb/internal/chain"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

// Splitter mints full outcome sets against on-chain collateral. The amount
// is denominated in the collateral token's smallest unit.
type Splitter interface {
	Split(ctx context.Context, conditionID string, amount *big.Int, outcomeCount int) (string, error)
}

// OrderSubmitter places a single signed order on the exchange.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req domain.OrderRequest) error
}

// NegRiskSweepConfig holds the tunables of the sweep strategy.
type NegRiskSweepConfig struct {
	// MinProfit is the threshold the best-bid sum must exceed 1.0 by.
	MinProfit decimal.Decimal
	// MaxSize caps the per-sweep set size.
	MaxSize decimal.Decimal
	// MinSize skips sweeps too small to be worth the gas.
	MinSize decimal.Decimal
}

// NegRiskSweep is the inline-executing variant of the neg-risk short: it
// groups markets by condition, sums the best YES bids, and on an edge above
// the threshold immediately splits collateral on chain and sweeps every bid.
// The set size is clamped to the thinnest best-bid level so no leg walks the
// book. Opportunities it returns are records of sweeps already fired, not
// candidates for the execution engine.
type NegRiskSweep struct {
	cache     *cache.Snapshot
	splitter  Splitter
	submitter OrderSubmitter
	cfg       NegRiskSweepConfig
	logger    *slog.Logger
}

// NewNegRiskSweep creates the strategy.
func NewNegRiskSweep(c *cache.Snapshot, splitter Splitter, submitter OrderSubmitter, cfg NegRiskSweepConfig, logger *slog.Logger) *NegRiskSweep {
	return &NegRiskSweep{
		cache:     c,
		splitter:  splitter,
		submitter: submitter,
		cfg:       cfg,
		logger:    logger.With(slog.String("strategy", "negrisk_sweep")),
	}
}

// Name returns the strategy identifier.
func (s *NegRiskSweep) Name() string { return "negrisk_sweep" }

// Detect evaluates every condition group and executes profitable sweeps.
func (s *NegRiskSweep) Detect(ctx context.Context) ([]domain.Opportunity, error) {
	groups := make(map[string][]domain.Market)
	for _, m := range s.cache.All() {
		if !m.NegRisk || m.ConditionID == "" {
			continue
		}
		if !m.Active || m.Closed || !m.AcceptingOrders || !m.Binary() {
			continue
		}
		groups[m.ConditionID] = append(groups[m.ConditionID], m)
	}

	var sweeps []domain.Opportunity
	for conditionID, markets := range groups {
		if err := ctx.Err(); err != nil {
			return sweeps, err
		}
		if opp, ok := s.sweepCondition(ctx, conditionID, markets); ok {
			sweeps = append(sweeps, opp)
		}
	}
	return sweeps, nil
}

func (s *NegRiskSweep) sweepCondition(ctx context.Context, conditionID string, markets []domain.Market) (domain.Opportunity, bool) {
	bidSum := decimal.Zero
	thinnest := s.cfg.MaxSize
	for i := range markets {
		bid, ok := bestLevel(markets[i].YesBook, true)
		if !ok {
			// A leg without a bid has zero sellable depth. Splitting would
			// mint a token nothing can absorb, so the whole condition caps
			// at size zero.
			thinnest = decimal.Zero
			continue
		}
		bidSum = bidSum.Add(bid.Price)
		if bid.Size.LessThan(thinnest) {
			thinnest = bid.Size
		}
	}

	if !bidSum.GreaterThan(one.Add(s.cfg.MinProfit)) {
		return domain.Opportunity{}, false
	}

	safeSize := thinnest
	if !safeSize.IsPositive() || safeSize.LessThan(s.cfg.MinSize) {
		s.logger.Debug("sweep skipped, sellable size below minimum",
			slog.String("condition", conditionID),
			slog.String("size", safeSize.String()),
		)
		return domain.Opportunity{}, false
	}

	s.logger.Info("sweeping neg-risk condition",
		slog.String("condition", conditionID),
		slog.String("bid_sum", bidSum.String()),
		slog.String("size", safeSize.String()),
		slog.Int("legs", len(markets)),
	)

	txHash, err := s.splitter.Split(ctx, conditionID, chain.CollateralUnits(safeSize), len(markets))
	if err != nil {
		s.logger.Error("split failed, sweep aborted",
			slog.String("condition", conditionID),
			slog.Any("error", err),
		)
		return domain.Opportunity{}, false
	}
	if txHash != "" {
		s.logger.Info("collateral split",
			slog.String("condition", conditionID),
			slog.String("tx", txHash),
		)
	}

	for i := range markets {
		m := &markets[i]
		bid, ok := bestLevel(m.YesBook, true)
		if !ok {
			continue
		}
		req := domain.OrderRequest{
			TokenID: m.TokenIDs[0],
			Price:   bid.Price,
			Size:    safeSize,
			Side:    domain.SideSell,
		}
		if err := s.submitter.SubmitOrder(ctx, req); err != nil {
			s.logger.Error("sweep leg failed",
				slog.String("condition", conditionID),
				slog.String("token", m.TokenIDs[0]),
				slog.Any("error", err),
			)
		}
	}

	profit := bidSum.Sub(one).Mul(safeSize)
	return domain.Opportunity{
		ID:              uuid.New().String(),
		MarketID:        conditionID,
		ConditionID:     conditionID,
		OutcomeCount:    len(markets),
		Type:            domain.OppNegRiskShort,
		TotalCost:       safeSize,
		EstimatedProfit: profit,
		DetectedAt:      time.Now().UTC(),
	}, true
}
