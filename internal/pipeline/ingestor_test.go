package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/CadeYu/polymarketArb/internal/cache"
	"github.com/CadeYu/polymarketArb/internal/domain"
	"github.com/CadeYu/polymarketArb/internal/platform/polymarket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakeLister struct {
	pages [][]polymarket.APIMarket
	err   error
	calls int
}

func (f *fakeLister) ActiveMarkets(_ context.Context, _, _ int) ([]polymarket.APIMarket, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

type fakeBooks struct {
	mu      sync.Mutex
	fetched []string
	failAll bool
}

func (f *fakeBooks) OrderBook(_ context.Context, tokenID string) (domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return domain.OrderBook{}, errors.New("book unavailable")
	}
	f.fetched = append(f.fetched, tokenID)
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    []domain.PriceLevel{{Price: decimal.RequireFromString("0.5"), Size: decimal.NewFromInt(10)}},
	}, nil
}

func (f *fakeBooks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func apiMarket(id, prices, tokens string) polymarket.APIMarket {
	return polymarket.APIMarket{
		ID:              id,
		ConditionID:     "cond-" + id,
		Active:          true,
		AcceptingOrders: true,
		OutcomePrices:   prices,
		ClobTokenIDs:    tokens,
	}
}

func testConfig() IngestorConfig {
	return IngestorConfig{
		PageSize:      100,
		MaxMarkets:    1000,
		PriceSumFloor: decimal.RequireFromString("0.90"),
		Interval:      time.Second,
	}
}

func unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func TestIngestor_CachesHealthyBinaryMarkets(t *testing.T) {
	lister := &fakeLister{pages: [][]polymarket.APIMarket{{
		apiMarket("m1", `["0.55","0.45"]`, `["111","222"]`),
	}}}
	books := &fakeBooks{}
	snap := cache.NewSnapshot()

	in := NewIngestor(lister, books, snap, unlimited(), testConfig(), discardLogger())
	require.NoError(t, in.Sweep(context.Background()))

	assert.Equal(t, 1, snap.Len())
	m, ok := snap.Get("m1")
	require.True(t, ok)
	assert.Equal(t, []string{"111", "222"}, m.TokenIDs)
	require.NotNil(t, m.YesBook)
	require.NotNil(t, m.NoBook)
	assert.ElementsMatch(t, []string{"111", "222"}, books.fetched)
}

func TestIngestor_PreFilterSkipsBookFetches(t *testing.T) {
	// Listed prices sum to 0.60: no short-side edge is possible, so the
	// books must never be requested.
	lister := &fakeLister{pages: [][]polymarket.APIMarket{{
		apiMarket("cheap", `["0.30","0.30"]`, `["111","222"]`),
	}}}
	books := &fakeBooks{}
	snap := cache.NewSnapshot()

	in := NewIngestor(lister, books, snap, unlimited(), testConfig(), discardLogger())
	require.NoError(t, in.Sweep(context.Background()))

	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, 0, books.count())
}

func TestIngestor_SkipsNonBinaryMarkets(t *testing.T) {
	lister := &fakeLister{pages: [][]polymarket.APIMarket{{
		apiMarket("multi", `["0.40","0.40","0.40"]`, `["1","2","3"]`),
		apiMarket("broken", `["0.95","0.05"]`, `not json`),
	}}}
	books := &fakeBooks{}
	snap := cache.NewSnapshot()

	in := NewIngestor(lister, books, snap, unlimited(), testConfig(), discardLogger())
	require.NoError(t, in.Sweep(context.Background()))

	assert.Equal(t, 0, snap.Len())
	assert.Equal(t, 0, books.count())
}

func TestIngestor_BookFailureSkipsMarketOnly(t *testing.T) {
	lister := &fakeLister{pages: [][]polymarket.APIMarket{{
		apiMarket("m1", `["0.55","0.45"]`, `["111","222"]`),
	}}}
	books := &fakeBooks{failAll: true}
	snap := cache.NewSnapshot()

	in := NewIngestor(lister, books, snap, unlimited(), testConfig(), discardLogger())
	require.NoError(t, in.Sweep(context.Background()))

	assert.Equal(t, 0, snap.Len())
}

func TestIngestor_PageErrorKeepsLastGoodCache(t *testing.T) {
	snap := cache.NewSnapshot()
	snap.Put(domain.Market{ID: "stale", Active: true})

	lister := &fakeLister{err: errors.New("gamma down")}
	in := NewIngestor(lister, &fakeBooks{}, snap, unlimited(), testConfig(), discardLogger())

	err := in.Sweep(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, snap.Len(), "failed sweep must not clear the cache")
}

func TestIngestor_PaginatesUntilShortPage(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 2

	fullPage := []polymarket.APIMarket{
		apiMarket("a1", `["0.55","0.45"]`, `["1","2"]`),
		apiMarket("a2", `["0.55","0.45"]`, `["3","4"]`),
	}
	shortPage := []polymarket.APIMarket{
		apiMarket("b1", `["0.55","0.45"]`, `["5","6"]`),
	}
	lister := &fakeLister{pages: [][]polymarket.APIMarket{fullPage, shortPage}}
	snap := cache.NewSnapshot()

	in := NewIngestor(lister, &fakeBooks{}, snap, unlimited(), cfg, discardLogger())
	require.NoError(t, in.Sweep(context.Background()))

	assert.Equal(t, 2, lister.calls)
	assert.Equal(t, 3, snap.Len())
}

func TestIngestor_RespectsSweepCap(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 2
	cfg.MaxMarkets = 3

	page := func(ids ...string) []polymarket.APIMarket {
		out := make([]polymarket.APIMarket, 0, len(ids))
		for _, id := range ids {
			tokens := `["` + id + `-y","` + id + `-n"]`
			out = append(out, apiMarket(id, `["0.55","0.45"]`, tokens))
		}
		return out
	}
	lister := &fakeLister{pages: [][]polymarket.APIMarket{
		page("a1", "a2"),
		page("b1", "b2"),
		page("c1", "c2"),
	}}
	snap := cache.NewSnapshot()

	in := NewIngestor(lister, &fakeBooks{}, snap, unlimited(), cfg, discardLogger())
	require.NoError(t, in.Sweep(context.Background()))

	assert.Equal(t, 3, snap.Len(), "cap bounds the number of examined markets")
}
