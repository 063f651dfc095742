package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market is the latest known state of a single binary-outcome Polymarket
// market, including both outcome order books. Records are written whole by
// the ingestor and replaced atomically in the snapshot cache; readers must
// never mutate them.
type Market struct {
	ID              string
	ConditionID     string
	EventID         string // groups the member markets of one neg-risk event
	NegRisk         bool   // part of a multi-outcome ("neg-risk") event
	Question        string
	TokenIDs        []string // exactly two when populated: [YES, NO]
	Active          bool
	Closed          bool
	AcceptingOrders bool
	Liquidity       decimal.Decimal
	Volume          decimal.Decimal
	UpdatedAt       time.Time

	// Fetched separately from the CLOB per outcome token. A market missing
	// either book is treated as having no liquidity by every strategy.
	YesBook *OrderBook
	NoBook  *OrderBook
}

// Binary reports whether the market has exactly the two outcome tokens the
// strategies in this system assume.
func (m *Market) Binary() bool {
	return len(m.TokenIDs) == 2
}

// PriceLevel is a single resting price+size level in an order book.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook holds one outcome token's full set of resting orders. The API
// gives no ordering guarantee on Bids or Asks; consumers must sort
// defensively (bids descending, asks ascending).
type OrderBook struct {
	TokenID string
	Bids    []PriceLevel
	Asks    []PriceLevel
}
