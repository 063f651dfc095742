package polymarket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/CadeYu/polymarketArb/internal/crypto"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

func testLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func TestGammaClient_ActiveMarketsQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "100", q.Get("limit"))
		assert.Equal(t, "200", q.Get("offset"))
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "false", q.Get("closed"))
		w.Write([]byte(`[{"id": "m1"}, {"id": "m2"}]`))
	}))
	defer server.Close()

	g := NewGammaClient(server.URL, testLimiter(), slog.New(slog.DiscardHandler))
	markets, err := g.ActiveMarkets(context.Background(), 100, 200)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "m1", markets[0].ID)
}

func TestClobClient_OrderBook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "111", r.URL.Query().Get("token_id"))
		w.Write([]byte(`{"bids": [{"price": "0.55", "size": "10"}], "asks": []}`))
	}))
	defer server.Close()

	c := NewClobClient(server.URL, testLimiter(), slog.New(slog.DiscardHandler))
	book, err := c.OrderBook(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, "111", book.TokenID)
	require.Len(t, book.Bids, 1)
	assert.True(t, decimal.RequireFromString("0.55").Equal(book.Bids[0].Price))
}

func TestRestClient_RetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := NewGammaClient(server.URL, testLimiter(), slog.New(slog.DiscardHandler))
	_, err := g.ActiveMarkets(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestRestClient_MapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such book", http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClobClient(server.URL, testLimiter(), slog.New(slog.DiscardHandler))
	_, err := c.OrderBook(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "got %v", err)
}

func TestClobClient_PostOrderRejection(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"success": false, "errorMsg": "not enough balance"}`))
	}))
	defer server.Close()

	c := NewClobClient(server.URL, testLimiter(), slog.New(slog.DiscardHandler))
	err := c.PostOrder(context.Background(), crypto.OrderPayload{Side: 1}, "0xsig", "0xowner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough balance")
	assert.Equal(t, int32(1), hits.Load(), "order submission is never retried")
}
