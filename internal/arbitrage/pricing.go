package arbitrage

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/CadeYu/polymarketArb/internal/domain"
)

// pricePlaces is the precision of an effective price.
const pricePlaces = 4

var one = decimal.NewFromInt(1)

// effectivePrice is the size-weighted average price obtained by consuming
// book levels best-first until targetSize is filled, rounded half-up to 4
// decimal places. When total available depth is below targetSize there is
// no effective price and ok is false; a partial average is never returned.
//
// The producer gives no sort guarantee, so levels are copied and sorted
// here: bids descending (best bid first), asks ascending (best ask first).
func effectivePrice(book *domain.OrderBook, targetSize decimal.Decimal, bid bool) (decimal.Decimal, bool) {
	if book == nil || !targetSize.IsPositive() {
		return decimal.Zero, false
	}
	levels := book.Asks
	if bid {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return decimal.Zero, false
	}

	sorted := sortLevels(levels, bid)

	totalValue := decimal.Zero
	remaining := targetSize
	for _, level := range sorted {
		fill := decimal.Min(remaining, level.Size)
		totalValue = totalValue.Add(fill.Mul(level.Price))
		remaining = remaining.Sub(fill)
		if !remaining.IsPositive() {
			break
		}
	}
	if remaining.IsPositive() {
		return decimal.Zero, false
	}

	return totalValue.DivRound(targetSize, pricePlaces), true
}

// bestLevel returns the best bid (highest price) or best ask (lowest price)
// level of the book.
func bestLevel(book *domain.OrderBook, bid bool) (domain.PriceLevel, bool) {
	if book == nil {
		return domain.PriceLevel{}, false
	}
	levels := book.Asks
	if bid {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return domain.PriceLevel{}, false
	}

	best := levels[0]
	for _, l := range levels[1:] {
		if bid && l.Price.GreaterThan(best.Price) {
			best = l
		}
		if !bid && l.Price.LessThan(best.Price) {
			best = l
		}
	}
	return best, true
}

// sortLevels returns a copy of levels sorted best-first.
func sortLevels(levels []domain.PriceLevel, bid bool) []domain.PriceLevel {
	sorted := make([]domain.PriceLevel, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool {
		if bid {
			return sorted[i].Price.GreaterThan(sorted[j].Price)
		}
		return sorted[i].Price.LessThan(sorted[j].Price)
	})
	return sorted
}

// hasBooks reports whether the market carries both order books. A market
// missing either book has no liquidity as far as any strategy is concerned.
func hasBooks(m *domain.Market) bool {
	return m.YesBook != nil && m.NoBook != nil
}
