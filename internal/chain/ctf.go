// Package chain is the on-chain collaborator: it submits the conditional
// token split that mints a full outcome set from collateral. With no signing
// credential configured it degrades to watch-only mode and never dials the
// network.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
)

// splitABI is the NegRisk adapter's split function:
// split(address collateralToken, bytes32 parentCollectionId, bytes32 conditionId, uint256[] partition, uint256 amount)
const splitABI = `[{"name":"split","type":"function","stateMutability":"nonpayable","inputs":[{"name":"collateralToken","type":"address"},{"name":"parentCollectionId","type":"bytes32"},{"name":"conditionId","type":"bytes32"},{"name":"partition","type":"uint256[]"},{"name":"amount","type":"uint256"}],"outputs":[]}]`

const (
	splitGasLimit = 500_000
	// 100 gwei; Polygon gas is cheap enough that a static price suffices.
	splitGasPriceWei = 100_000_000_000
)

var collateralScale = decimal.NewFromInt(1_000_000)

// CollateralUnits converts a USDC amount into its 6-decimal on-chain
// integer representation.
func CollateralUnits(amount decimal.Decimal) *big.Int {
	return amount.Mul(collateralScale).BigInt()
}

// Config holds the chain client's connection and contract parameters.
type Config struct {
	RPCURL     string
	ChainID    int64
	Adapter    common.Address // NegRisk adapter contract
	Collateral common.Address // USDC token

	// PrivateKeyHex may be empty, in which case the client is watch-only.
	PrivateKeyHex string
}

// Client submits split transactions to the NegRisk adapter.
type Client struct {
	eth        *ethclient.Client
	key        *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	adapter    common.Address
	collateral common.Address
	splitABI   abi.ABI
	logger     *slog.Logger
}

// NewClient creates a chain client. When cfg.PrivateKeyHex is empty the
// client is watch-only and no RPC connection is opened at all.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(splitABI))
	if err != nil {
		return nil, fmt.Errorf("chain: parse split ABI: %w", err)
	}

	c := &Client{
		chainID:    big.NewInt(cfg.ChainID),
		adapter:    cfg.Adapter,
		collateral: cfg.Collateral,
		splitABI:   parsed,
		logger:     logger.With(slog.String("component", "chain")),
	}

	if cfg.PrivateKeyHex == "" {
		c.logger.Warn("no private key configured, chain client is watch-only")
		return c, nil
	}

	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: invalid private key: %w", err)
	}
	c.key = key
	c.address = ethcrypto.PubkeyToAddress(key.PublicKey)

	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}
	c.eth = eth

	c.logger.Info("wallet loaded", slog.String("address", c.address.Hex()))
	return c, nil
}

// WatchOnly reports whether the client has no signing credential.
func (c *Client) WatchOnly() bool {
	return c.key == nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}

// Split mints a full outcome-token set from collateral: it calls the
// NegRisk adapter's split with the index-set partition [1<<0 .. 1<<n-1] and
// returns the transaction hash. amount is in 6-decimal collateral units.
func (c *Client) Split(ctx context.Context, conditionID string, amount *big.Int, outcomeCount int) (string, error) {
	if c.key == nil {
		c.logger.Info("watch-only: would split",
			slog.String("condition", conditionID),
			slog.String("amount", amount.String()),
			slog.Int("outcomes", outcomeCount),
		)
		return "", nil
	}

	partition := make([]*big.Int, outcomeCount)
	for i := 0; i < outcomeCount; i++ {
		partition[i] = new(big.Int).Lsh(big.NewInt(1), uint(i))
	}

	data, err := c.splitABI.Pack(
		"split",
		c.collateral,
		[32]byte{}, // parentCollectionId = 0 (split from collateral)
		common.HexToHash(conditionID),
		partition,
		amount,
	)
	if err != nil {
		return "", fmt.Errorf("chain: encode split: %w", err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.address)
	if err != nil {
		return "", fmt.Errorf("chain: pending nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: big.NewInt(splitGasPriceWei),
		Gas:      splitGasLimit,
		To:       &c.adapter,
		Value:    big.NewInt(0),
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return "", fmt.Errorf("chain: sign split tx: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("chain: send split tx: %w", err)
	}

	hash := signed.Hash().Hex()
	c.logger.Info("split transaction sent",
		slog.String("condition", conditionID),
		slog.String("tx", hash),
	)
	return hash, nil
}
