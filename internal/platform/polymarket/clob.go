package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/CadeYu/polymarketArb/internal/crypto"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API: order book queries and signed order submission.
type ClobClient struct {
	baseURL string
	rest    *restClient
	logger  *slog.Logger
}

// NewClobClient creates a CLOB API client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
// limiter gates raw requests to the CLOB host.
func NewClobClient(baseURL string, limiter *rate.Limiter, logger *slog.Logger) *ClobClient {
	log := logger.With(slog.String("component", "clob_client"))
	return &ClobClient{
		baseURL: baseURL,
		rest:    newRestClient(limiter, log),
		logger:  log,
	}
}

// OrderBook fetches the full resting order book for one outcome token.
func (c *ClobClient) OrderBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	var book APIBook
	if err := c.rest.getJSON(ctx, c.baseURL+"/book?"+params.Encode(), &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}
	return book.ToDomainBook(tokenID), nil
}

// PostOrder submits a signed order to the CLOB. Non-2xx responses are
// logged and returned as errors; this layer never retries a submission.
func (c *ClobClient) PostOrder(ctx context.Context, order crypto.OrderPayload, signature, owner string) error {
	side := "BUY"
	if order.Side == 1 {
		side = "SELL"
	}

	body := map[string]any{
		"order": map[string]any{
			"salt":          order.Salt,
			"maker":         order.Maker,
			"signer":        order.Signer,
			"taker":         order.Taker,
			"tokenId":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"expiration":    order.Expiration,
			"nonce":         order.Nonce,
			"feeRateBps":    order.FeeRateBps,
			"side":          side,
			"signatureType": order.SignatureType,
		},
		"owner":     owner,
		"orderType": "GTC",
		"signature": signature,
	}

	var result APIOrderResult
	if err := c.rest.postJSON(ctx, c.baseURL+"/order", body, &result); err != nil {
		c.logger.Error("order submission failed",
			slog.String("token", order.TokenID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("polymarket/clob: post order: %w", err)
	}
	if !result.Success {
		c.logger.Error("order rejected",
			slog.String("token", order.TokenID),
			slog.String("message", result.ErrorMsg),
		)
		return fmt.Errorf("polymarket/clob: order rejected: %s", result.ErrorMsg)
	}

	c.logger.Info("order submitted",
		slog.String("token", order.TokenID),
		slog.String("order_id", result.OrderID),
		slog.String("status", result.Status),
	)
	return nil
}
