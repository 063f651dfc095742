package polymarket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CadeYu/polymarketArb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether a flag is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEventRef is the embedded event reference on a Gamma market.
type APIEventRef struct {
	ID string `json:"id"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// ClobTokenIDs and OutcomePrices arrive as JSON-encoded string lists
// embedded in a string field.
type APIMarket struct {
	ID              string        `json:"id"`
	Question        string        `json:"question"`
	ConditionID     string        `json:"condition_id"`
	NegRisk         bool          `json:"negRisk"`
	Active          flexBool      `json:"active"`
	Closed          flexBool      `json:"closed"`
	AcceptingOrders flexBool      `json:"acceptingOrders"`
	Liquidity       string        `json:"liquidity"`
	Volume          string        `json:"volume"`
	ClobTokenIDs    string        `json:"clobTokenIds"`
	OutcomePrices   string        `json:"outcomePrices"`
	Events          []APIEventRef `json:"events"`
}

// TokenIDs decodes the embedded clobTokenIds list.
func (m *APIMarket) TokenIDs() ([]string, error) {
	return decodeStringList(m.ClobTokenIDs)
}

// OutcomePriceSum parses the embedded last-trade outcome prices and returns
// their sum. ok is false when the field is absent or unparseable; callers
// should then proceed without the pre-filter rather than reject the market.
func (m *APIMarket) OutcomePriceSum() (decimal.Decimal, bool) {
	raw, err := decodeStringList(m.OutcomePrices)
	if err != nil || len(raw) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for _, p := range raw {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return decimal.Zero, false
		}
		sum = sum.Add(d)
	}
	return sum, true
}

// EventID returns the identifier of the first embedded event, or "".
func (m *APIMarket) EventID() string {
	if len(m.Events) == 0 {
		return ""
	}
	return m.Events[0].ID
}

// ToDomainMarket assembles a domain.Market from the Gamma record plus the
// two order books fetched from the CLOB.
func (m *APIMarket) ToDomainMarket(tokenIDs []string, yes, no *domain.OrderBook, now time.Time) domain.Market {
	liquidity, _ := decimal.NewFromString(m.Liquidity)
	volume, _ := decimal.NewFromString(m.Volume)
	return domain.Market{
		ID:              m.ID,
		ConditionID:     m.ConditionID,
		EventID:         m.EventID(),
		NegRisk:         m.NegRisk,
		Question:        m.Question,
		TokenIDs:        tokenIDs,
		Active:          bool(m.Active),
		Closed:          bool(m.Closed),
		AcceptingOrders: bool(m.AcceptingOrders),
		Liquidity:       liquidity,
		Volume:          volume,
		UpdatedAt:       now,
		YesBook:         yes,
		NoBook:          no,
	}
}

// decodeStringList parses a JSON-encoded string list embedded in a string
// field, e.g. "[\"123\",\"456\"]".
func decodeStringList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode embedded list %q: %w", raw, err)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APILevel is one {price, size} level as decimal strings.
type APILevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the order book response from the CLOB /book endpoint.
type APIBook struct {
	Bids []APILevel `json:"bids"`
	Asks []APILevel `json:"asks"`
}

// ToDomainBook converts the DTO into a domain order book. Malformed levels
// are dropped individually; a bad fragment never discards the whole book.
func (b *APIBook) ToDomainBook(tokenID string) domain.OrderBook {
	return domain.OrderBook{
		TokenID: tokenID,
		Bids:    toDomainLevels(b.Bids),
		Asks:    toDomainLevels(b.Asks),
	}
}

func toDomainLevels(levels []APILevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, 0, len(levels))
	for _, l := range levels {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(l.Size)
		if err != nil {
			continue
		}
		out = append(out, domain.PriceLevel{Price: price, Size: size})
	}
	return out
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg,omitempty"`
	OrderID  string `json:"orderID,omitempty"`
	Status   string `json:"status,omitempty"`
}
