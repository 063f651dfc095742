package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CadeYu/polymarketArb/internal/crypto"
	"github.com/CadeYu/polymarketArb/internal/domain"
)

// usdc and outcome tokens both carry 6 decimals on-chain.
var sixDecimals = decimal.NewFromInt(1_000_000)

// orderTTL is how long a submitted order stays valid.
const orderTTL = 5 * time.Minute

// Trader converts an order leg into a signed CLOB submission. With no
// signer configured it runs watch-only: every order is logged with its full
// intended parameters and dropped without touching the network, so the
// whole pipeline can run with zero funds at risk.
type Trader struct {
	clob   *ClobClient
	signer *crypto.Signer
	logger *slog.Logger
}

// NewTrader creates a Trader. signer may be nil for watch-only mode.
func NewTrader(clob *ClobClient, signer *crypto.Signer, logger *slog.Logger) *Trader {
	return &Trader{
		clob:   clob,
		signer: signer,
		logger: logger.With(slog.String("component", "trader")),
	}
}

// WatchOnly reports whether the trader has no signing credential.
func (t *Trader) WatchOnly() bool {
	return t.signer == nil
}

// SubmitOrder signs and posts one order leg to the CLOB.
func (t *Trader) SubmitOrder(ctx context.Context, req domain.OrderRequest) error {
	if t.signer == nil {
		t.logger.Info("watch-only: would submit order",
			slog.String("side", string(req.Side)),
			slog.String("token", req.TokenID),
			slog.String("size", req.Size.String()),
			slog.String("price", req.Price.String()),
		)
		return nil
	}

	tokenUnits := req.Size.Mul(sixDecimals).IntPart()
	usdcUnits := req.Size.Mul(req.Price).Mul(sixDecimals).IntPart()
	if tokenUnits <= 0 || usdcUnits <= 0 {
		t.logger.Warn("skipping order with non-positive amounts",
			slog.Int64("token_units", tokenUnits),
			slog.Int64("usdc_units", usdcUnits),
		)
		return fmt.Errorf("polymarket/trader: %w: size=%s price=%s", domain.ErrInvalidOrder, req.Size, req.Price)
	}

	// BUY offers USDC for tokens; SELL offers tokens for USDC.
	makerAmount, takerAmount := usdcUnits, tokenUnits
	side := 0
	if req.Side == domain.SideSell {
		makerAmount, takerAmount = tokenUnits, usdcUnits
		side = 1
	}

	address := t.signer.Address().Hex()
	payload := crypto.OrderPayload{
		Salt:          strconv.FormatInt(time.Now().UnixMilli(), 10),
		Maker:         address,
		Signer:        address,
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       req.TokenID,
		MakerAmount:   strconv.FormatInt(makerAmount, 10),
		TakerAmount:   strconv.FormatInt(takerAmount, 10),
		Expiration:    strconv.FormatInt(time.Now().Add(orderTTL).Unix(), 10),
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          side,
		SignatureType: 0, // EOA
	}

	signature, err := t.signer.SignOrder(payload)
	if err != nil {
		return fmt.Errorf("polymarket/trader: %w: %v", domain.ErrSigningFailed, err)
	}

	t.logger.Info("submitting order",
		slog.String("side", string(req.Side)),
		slog.String("token", req.TokenID),
		slog.String("size", req.Size.String()),
		slog.String("price", req.Price.String()),
	)
	return t.clob.PostOrder(ctx, payload, signature, address)
}
