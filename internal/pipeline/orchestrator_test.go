package pipeline

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeYu/polymarketArb/internal/arbitrage"
	"github.com/CadeYu/polymarketArb/internal/domain"
	"github.com/CadeYu/polymarketArb/internal/engine"
)

type stubStrategy struct {
	name string
	opps []domain.Opportunity
	err  error
	boom bool
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Detect(context.Context) ([]domain.Opportunity, error) {
	if s.boom {
		panic("detector exploded")
	}
	return s.opps, s.err
}

type noopSplitter struct{}

func (noopSplitter) Split(context.Context, string, *big.Int, int) (string, error) {
	return "0xtx", nil
}

type countingSubmitter struct {
	orders int
}

func (c *countingSubmitter) SubmitOrder(context.Context, domain.OrderRequest) error {
	c.orders++
	return nil
}

func executableOpportunity(id string) domain.Opportunity {
	return domain.Opportunity{
		ID:           id,
		MarketID:     "ev1",
		ConditionID:  "c1",
		OutcomeCount: 1,
		Type:         domain.OppNegRiskShort,
		RequiredOrders: []domain.OrderRequest{{
			TokenID: "t1",
			Price:   decimal.RequireFromString("0.55"),
			Size:    decimal.NewFromInt(10),
			Side:    domain.SideSell,
		}},
		TotalCost:       decimal.NewFromInt(1),
		EstimatedProfit: decimal.RequireFromString("0.05"),
		DetectedAt:      time.Now().UTC(),
	}
}

func newTestOrchestrator(eng *engine.Engine, strategies ...arbitrage.Strategy) *Orchestrator {
	return NewOrchestrator(nil, strategies, eng, nil, time.Second, discardLogger())
}

func TestOrchestrator_ExecutesDetectedOpportunities(t *testing.T) {
	submitter := &countingSubmitter{}
	eng := engine.New(noopSplitter{}, submitter, nil, discardLogger())

	strategy := &stubStrategy{name: "s1", opps: []domain.Opportunity{executableOpportunity("opp-1")}}
	o := newTestOrchestrator(eng, strategy)

	o.Cycle(context.Background())

	rec, ok := eng.Get("opp-1")
	require.True(t, ok)
	assert.Equal(t, engine.StateCompleted, rec.State)
	assert.Equal(t, 1, submitter.orders)
}

func TestOrchestrator_SkipsReportOnlyOpportunities(t *testing.T) {
	submitter := &countingSubmitter{}
	eng := engine.New(noopSplitter{}, submitter, nil, discardLogger())

	report := executableOpportunity("opp-1")
	report.Type = domain.OppSynthetic
	report.RequiredOrders = nil
	o := newTestOrchestrator(eng, &stubStrategy{name: "s1", opps: []domain.Opportunity{report}})

	o.Cycle(context.Background())

	_, ok := eng.Get("opp-1")
	assert.False(t, ok, "opportunities without legs never reach the engine")
	assert.Equal(t, 0, submitter.orders)
}

func TestOrchestrator_IsolatesStrategyFailures(t *testing.T) {
	submitter := &countingSubmitter{}
	eng := engine.New(noopSplitter{}, submitter, nil, discardLogger())

	failing := &stubStrategy{name: "bad", err: errors.New("detector broke")}
	panicking := &stubStrategy{name: "worse", boom: true}
	healthy := &stubStrategy{name: "good", opps: []domain.Opportunity{executableOpportunity("opp-1")}}

	o := newTestOrchestrator(eng, failing, panicking, healthy)

	require.NotPanics(t, func() {
		o.Cycle(context.Background())
	})

	rec, ok := eng.Get("opp-1")
	require.True(t, ok)
	assert.Equal(t, engine.StateCompleted, rec.State)
}

type recordingOppNotifier struct {
	seen []string
}

func (r *recordingOppNotifier) OpportunityDetected(opp domain.Opportunity) {
	r.seen = append(r.seen, opp.ID)
}

func TestOrchestrator_NotifiesEveryOpportunity(t *testing.T) {
	eng := engine.New(noopSplitter{}, &countingSubmitter{}, nil, discardLogger())
	notifier := &recordingOppNotifier{}

	report := executableOpportunity("report-1")
	report.RequiredOrders = nil
	strategy := &stubStrategy{name: "s1", opps: []domain.Opportunity{
		report,
		executableOpportunity("opp-2"),
	}}

	o := NewOrchestrator(nil, []arbitrage.Strategy{strategy}, eng, notifier, time.Second, discardLogger())
	o.Cycle(context.Background())

	assert.Equal(t, []string{"report-1", "opp-2"}, notifier.seen)
}
