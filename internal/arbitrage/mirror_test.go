package arbitrage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CadeYu/polymarketArb/internal/cache"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

func binaryMarket(id, yesBid, yesAsk, noBid, noAsk string) domain.Market {
	return domain.Market{
		ID:              id,
		ConditionID:     "cond-" + id,
		TokenIDs:        []string{"yes-" + id, "no-" + id},
		Active:          true,
		AcceptingOrders: true,
		YesBook: makeBook("yes-"+id,
			[]domain.PriceLevel{level(yesBid, "100")},
			[]domain.PriceLevel{level(yesAsk, "100")},
		),
		NoBook: makeBook("no-"+id,
			[]domain.PriceLevel{level(noBid, "100")},
			[]domain.PriceLevel{level(noAsk, "100")},
		),
	}
}

func TestMirror_DetectsCrossRouteGap(t *testing.T) {
	// Direct YES buy at 0.40 beats the synthetic 1 - 0.49 = 0.51 route;
	// direct NO buy at 0.50 beats 1 - 0.39 = 0.61. Total 0.90 pays out 1.
	c := cache.NewSnapshot()
	c.Put(binaryMarket("m1", "0.39", "0.40", "0.49", "0.50"))

	s := NewMirror(c, MirrorConfig{MinProfit: dec("0.0001")}, discardLogger())
	opps, err := s.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.Equal(t, domain.OppSynthetic, opp.Type)
	assert.Equal(t, "m1", opp.MarketID)
	assert.Equal(t, 2, opp.OutcomeCount)
	assert.True(t, dec("0.90").Equal(opp.TotalCost), "got %s", opp.TotalCost)
	assert.True(t, dec("0.10").Equal(opp.EstimatedProfit), "got %s", opp.EstimatedProfit)
	assert.Empty(t, opp.RequiredOrders, "mirror opportunities are reports, not trades")
}

func TestMirror_UsesSyntheticRouteWhenCheaper(t *testing.T) {
	// YES ask 0.55 loses to the synthetic 1 - 0.48 = 0.52 route.
	c := cache.NewSnapshot()
	c.Put(binaryMarket("m1", "0.39", "0.55", "0.48", "0.45"))

	s := NewMirror(c, MirrorConfig{MinProfit: dec("0.0001")}, discardLogger())
	opps, err := s.Detect(context.Background())
	require.NoError(t, err)
	require.Len(t, opps, 1)

	// 0.52 + min(0.45, 0.61) = 0.97.
	assert.True(t, dec("0.97").Equal(opps[0].TotalCost), "got %s", opps[0].TotalCost)
}

func TestMirror_NoEmissionAtFairPrice(t *testing.T) {
	c := cache.NewSnapshot()
	c.Put(binaryMarket("m1", "0.49", "0.51", "0.49", "0.51"))

	s := NewMirror(c, MirrorConfig{MinProfit: dec("0.0001")}, discardLogger())
	opps, err := s.Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, opps)
}

func TestMirror_SkipsIncompleteMarkets(t *testing.T) {
	c := cache.NewSnapshot()

	negRisk := binaryMarket("m1", "0.30", "0.40", "0.30", "0.50")
	negRisk.NegRisk = true
	c.Put(negRisk)

	missingBook := binaryMarket("m2", "0.30", "0.40", "0.30", "0.50")
	missingBook.NoBook = nil
	c.Put(missingBook)

	emptySide := binaryMarket("m3", "0.30", "0.40", "0.30", "0.50")
	emptySide.YesBook = makeBook("yes-m3", nil, []domain.PriceLevel{level("0.40", "100")})
	c.Put(emptySide)

	s := NewMirror(c, MirrorConfig{MinProfit: dec("0.0001")}, discardLogger())
	opps, err := s.Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, opps)
}
