package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CadeYu/polymarketArb/internal/chain"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

// State is the lifecycle stage of a single execution.
type State string

const (
	StatePreFlight      State = "PRE_FLIGHT"
	StateOnChainSplit   State = "ON_CHAIN_SPLIT"
	StateMultiTokenSell State = "MULTI_TOKEN_SELL"
	StateCompleted      State = "COMPLETED"
	StateFailed         State = "FAILED"
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

// Notifier receives execution outcomes. May be nil.
type Notifier interface {
	ExecutionResult(opp domain.Opportunity, state string, unhedged int)
}

// Record is the retained outcome of one execution attempt.
type Record struct {
	Opportunity domain.Opportunity
	State       State
	// Unhedged lists the legs that failed to sell after the split landed,
	// leaving exposure that the unwind pass re-offered at a discount.
	Unhedged   []domain.OrderRequest
	SplitTx    string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// discountFactor prices unwind re-offers 1% under the originally detected
// level to cross whatever is left of the bid.
var discountFactor = decimal.RequireFromString("0.99")

// Engine walks a detected opportunity through its execution lifecycle:
// pre-flight, on-chain split when the opportunity mints an outcome set, then
// selling every leg. A leg failure after the split leaves real exposure, so
// the engine never aborts mid-sell; it finishes the pass, then unwinds what
// failed.
type Engine struct {
	splitter  Splitter
	submitter OrderSubmitter
	notifier  Notifier
	logger    *slog.Logger

	mu      sync.Mutex
	records map[string]*Record
}

// New creates an engine. notifier may be nil.
func New(splitter Splitter, submitter OrderSubmitter, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		splitter:  splitter,
		submitter: submitter,
		notifier:  notifier,
		logger:    logger.With(slog.String("component", "engine")),
		records:   make(map[string]*Record),
	}
}

// Get returns a copy of the record for an opportunity ID, if one exists.
func (e *Engine) Get(oppID string) (Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[oppID]
	if !ok {
		return Record{}, false
	}
	out := *rec
	out.Unhedged = append([]domain.OrderRequest(nil), rec.Unhedged...)
	return out, true
}

// OpenPositions returns the exposure left behind by failed executions: one
// position per unhedged leg across every record. Sizes reflect the original
// leg, not whatever the unwind re-offer later filled.
func (e *Engine) OpenPositions() []domain.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	var positions []domain.Position
	for _, rec := range e.records {
		for _, leg := range rec.Unhedged {
			positions = append(positions, domain.Position{
				MarketID:     rec.Opportunity.MarketID,
				TokenID:      leg.TokenID,
				Side:         domain.PositionYes,
				Balance:      leg.Size,
				AveragePrice: leg.Price,
			})
		}
	}
	return positions
}

// Execute runs the opportunity to a terminal state and returns it. A panic
// anywhere in the lifecycle is contained and recorded as FAILED so one bad
// opportunity cannot take down the cycle that submitted it.
func (e *Engine) Execute(ctx context.Context, opp domain.Opportunity) (state State) {
	rec := &Record{
		Opportunity: opp,
		State:       StatePreFlight,
		StartedAt:   time.Now().UTC(),
	}
	e.mu.Lock()
	e.records[opp.ID] = rec
	e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("execution panicked",
				slog.String("opportunity", opp.ID),
				slog.Any("panic", r),
			)
			e.finish(rec, StateFailed, fmt.Errorf("engine: execute %s: panic: %v", opp.ID, r))
			state = StateFailed
		}
	}()

	e.logger.Info("executing opportunity",
		slog.String("opportunity", opp.ID),
		slog.String("type", string(opp.Type)),
		slog.String("market", opp.MarketID),
		slog.Int("legs", len(opp.RequiredOrders)),
		slog.String("estimated_profit", opp.EstimatedProfit.String()),
	)

	if len(opp.RequiredOrders) == 0 {
		e.finish(rec, StateFailed, fmt.Errorf("engine: execute %s: no order legs", opp.ID))
		return StateFailed
	}

	// Detection already priced the legs against the cached books; prices may
	// have moved since. The unwind path below is what bounds that risk.

	if opp.Type == domain.OppNegRiskShort {
		e.setState(rec, StateOnChainSplit)
		txHash, err := e.splitter.Split(ctx, opp.ConditionID, chain.CollateralUnits(opp.TotalCost), opp.OutcomeCount)
		if err != nil {
			e.finish(rec, StateFailed, fmt.Errorf("engine: execute %s: split: %w", opp.ID, err))
			return StateFailed
		}
		e.mu.Lock()
		rec.SplitTx = txHash
		e.mu.Unlock()
		if txHash != "" {
			e.logger.Info("collateral split confirmed",
				slog.String("opportunity", opp.ID),
				slog.String("tx", txHash),
			)
		}
	}

	e.setState(rec, StateMultiTokenSell)
	var failed []domain.OrderRequest
	for _, req := range opp.RequiredOrders {
		if err := e.submitter.SubmitOrder(ctx, req); err != nil {
			e.logger.Error("sell leg failed",
				slog.String("opportunity", opp.ID),
				slog.String("token", req.TokenID),
				slog.Any("error", err),
			)
			failed = append(failed, req)
		}
	}

	if len(failed) > 0 {
		e.mu.Lock()
		rec.Unhedged = failed
		e.mu.Unlock()
		e.unwind(ctx, opp, failed)
		e.finish(rec, StateFailed, fmt.Errorf("engine: execute %s: %d of %d legs unfilled", opp.ID, len(failed), len(opp.RequiredOrders)))
		return StateFailed
	}

	e.finish(rec, StateCompleted, nil)
	return StateCompleted
}

func (e *Engine) setState(rec *Record, state State) {
	e.mu.Lock()
	rec.State = state
	e.mu.Unlock()
}

// unwind re-offers each unhedged leg once at a 1% discount. A best-effort
// single pass: a leg that fails again stays open and is surfaced through the
// record and logs for manual intervention.
func (e *Engine) unwind(ctx context.Context, opp domain.Opportunity, failed []domain.OrderRequest) {
	for _, req := range failed {
		discounted := req
		discounted.Price = req.Price.Mul(discountFactor)
		e.logger.Warn("unwinding unhedged leg",
			slog.String("opportunity", opp.ID),
			slog.String("token", req.TokenID),
			slog.String("original_price", req.Price.String()),
			slog.String("reoffer_price", discounted.Price.String()),
		)
		if err := e.submitter.SubmitOrder(ctx, discounted); err != nil {
			e.logger.Error("unwind re-offer failed, position remains open",
				slog.String("opportunity", opp.ID),
				slog.String("token", req.TokenID),
				slog.Any("error", err),
			)
		}
	}
}

func (e *Engine) finish(rec *Record, state State, err error) {
	e.mu.Lock()
	rec.State = state
	rec.Err = err
	rec.FinishedAt = time.Now().UTC()
	unhedged := len(rec.Unhedged)
	e.mu.Unlock()

	switch state {
	case StateCompleted:
		e.logger.Info("execution completed",
			slog.String("opportunity", rec.Opportunity.ID),
			slog.String("estimated_profit", rec.Opportunity.EstimatedProfit.String()),
		)
	case StateFailed:
		e.logger.Error("execution failed",
			slog.String("opportunity", rec.Opportunity.ID),
			slog.Int("unhedged", unhedged),
			slog.Any("error", err),
		)
	}

	if e.notifier != nil {
		e.notifier.ExecutionResult(rec.Opportunity, string(state), unhedged)
	}
}
