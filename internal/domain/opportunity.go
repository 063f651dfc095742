package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityType classifies the kind of detected arbitrage.
type OpportunityType string

const (
	// OppSynthetic is a binary mirror arbitrage: YES + NO purchasable for
	// less than 1. Detect-only in the current strategy set.
	OppSynthetic OpportunityType = "synthetic_arbitrage"
	// OppNegRiskShort is a neg-risk short arbitrage: the YES legs of one
	// event sell for more than 1 in aggregate.
	OppNegRiskShort OpportunityType = "negrisk_short_arb"
	// OppSpread is a cross-market spread. Unused by the current detectors.
	OppSpread OpportunityType = "spread_arbitrage"
)

// OrderSide is the direction of one order leg.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderRequest is one leg of an opportunity. Immutable after creation.
type OrderRequest struct {
	TokenID string
	Price   decimal.Decimal
	Size    decimal.Decimal
	Side    OrderSide
}

// Opportunity is an immutable detected arbitrage. Created by a detector,
// consumed exactly once by the execution engine, never mutated after
// creation.
type Opportunity struct {
	ID           string
	MarketID     string // market or event identifier, depending on type
	ConditionID  string // needed for the on-chain split step
	OutcomeCount int    // needed to build the split partition

	Type           OpportunityType
	RequiredOrders []OrderRequest

	TotalCost       decimal.Decimal
	EstimatedProfit decimal.Decimal
	DetectedAt      time.Time
}
