package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/CadeYu/polymarketArb/internal/cache"
	"github.com/CadeYu/polymarketArb/internal/domain"
	"github.com/CadeYu/polymarketArb/internal/platform/polymarket"
)

// MarketLister pages through the active markets of the Gamma API.
type MarketLister interface {
	ActiveMarkets(ctx context.Context, limit, offset int) ([]polymarket.APIMarket, error)
}

// BookFetcher retrieves the order book for a single token.
type BookFetcher interface {
	OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error)
}

// IngestorConfig holds the sweep tunables.
type IngestorConfig struct {
	// PageSize is the Gamma page size.
	PageSize int
	// MaxMarkets caps how many markets one sweep examines.
	MaxMarkets int
	// PriceSumFloor pre-filters markets whose listed outcome prices sum
	// below it. Book fetches are the expensive part of a sweep; a market
	// priced far under 1.0 cannot carry a short-side edge, so its books are
	// never requested.
	PriceSumFloor decimal.Decimal
	// Interval is the fixed delay between sweeps.
	Interval time.Duration
}

// Ingestor sweeps the Gamma market listing and hydrates the snapshot cache
// with order books for every binary market that survives the price-sum
// pre-filter. Book hydration fans out one goroutine per market, all throttled
// through a shared limiter so a burst of markets cannot flood the CLOB API.
type Ingestor struct {
	gamma  MarketLister
	clob   BookFetcher
	cache  *cache.Snapshot
	units  *rate.Limiter
	cfg    IngestorConfig
	logger *slog.Logger
}

// NewIngestor creates an ingestor. units governs how many markets per second
// may start their book fetches.
func NewIngestor(gamma MarketLister, clob BookFetcher, c *cache.Snapshot, units *rate.Limiter, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		gamma:  gamma,
		clob:   clob,
		cache:  c,
		units:  units,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "ingestor")),
	}
}

// Sweep executes a single ingestion pass. A page fetch error aborts the
// sweep and leaves the cache on its last complete view; per-market failures
// only skip that market.
func (in *Ingestor) Sweep(ctx context.Context) error {
	started := time.Now()
	offset := 0
	examined := 0
	var wg sync.WaitGroup
	var cached, skipped atomic.Int64

	for examined < in.cfg.MaxMarkets {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline: sweep cancelled: %w", err)
		}

		page, err := in.gamma.ActiveMarkets(ctx, in.cfg.PageSize, offset)
		if err != nil {
			wg.Wait()
			return fmt.Errorf("pipeline: sweep: fetch markets at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			if examined >= in.cfg.MaxMarkets {
				break
			}
			examined++
			m := page[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				if in.ingestMarket(ctx, m) {
					cached.Add(1)
				} else {
					skipped.Add(1)
				}
			}()
		}

		if len(page) < in.cfg.PageSize {
			break
		}
		offset += in.cfg.PageSize
	}

	wg.Wait()
	in.logger.Info("sweep complete",
		slog.Int("examined", examined),
		slog.Int64("cached", cached.Load()),
		slog.Int64("skipped", skipped.Load()),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// ingestMarket hydrates one market into the cache. Returns false when the
// market was filtered out or a fetch failed.
func (in *Ingestor) ingestMarket(ctx context.Context, m polymarket.APIMarket) bool {
	if err := in.units.Wait(ctx); err != nil {
		return false
	}

	if sum, ok := m.OutcomePriceSum(); ok && sum.LessThan(in.cfg.PriceSumFloor) {
		return false
	}

	tokenIDs, err := m.TokenIDs()
	if err != nil || len(tokenIDs) != 2 {
		return false
	}

	yes, err := in.clob.OrderBook(ctx, tokenIDs[0])
	if err != nil {
		in.logger.Warn("order book fetch failed",
			slog.String("market", m.ID),
			slog.String("token", tokenIDs[0]),
			slog.Any("error", err),
		)
		return false
	}
	no, err := in.clob.OrderBook(ctx, tokenIDs[1])
	if err != nil {
		in.logger.Warn("order book fetch failed",
			slog.String("market", m.ID),
			slog.String("token", tokenIDs[1]),
			slog.Any("error", err),
		)
		return false
	}

	in.cache.Put(m.ToDomainMarket(tokenIDs, &yes, &no, time.Now().UTC()))
	return true
}

// RunLoop sweeps on a fixed delay: each interval starts counting when the
// previous sweep finishes, so a slow sweep never stacks onto the next.
func (in *Ingestor) RunLoop(ctx context.Context) error {
	for {
		if err := in.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				in.logger.Info("ingest loop stopped")
				return ctx.Err()
			}
			in.logger.Error("sweep failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			in.logger.Info("ingest loop stopped")
			return ctx.Err()
		case <-time.After(in.cfg.Interval):
		}
	}
}
