package domain

import "github.com/shopspring/decimal"

// PositionSide is the conceptual side of a held outcome token.
type PositionSide string

const (
	PositionYes PositionSide = "YES"
	PositionNo  PositionSide = "NO"
)

// Position is a held balance of a specific outcome token. The core pipeline
// does not track post-trade inventory; this type exists for reconciliation
// tooling around the unwind log.
type Position struct {
	MarketID     string
	TokenID      string
	Side         PositionSide
	Balance      decimal.Decimal
	AveragePrice decimal.Decimal
}
