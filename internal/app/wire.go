package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/CadeYu/polymarketArb/internal/arbitrage"
	"github.com/CadeYu/polymarketArb/internal/cache"
	"github.com/CadeYu/polymarketArb/internal/chain"
	"github.com/CadeYu/polymarketArb/internal/config"
	"github.com/CadeYu/polymarketArb/internal/crypto"
	"github.com/CadeYu/polymarketArb/internal/engine"
	"github.com/CadeYu/polymarketArb/internal/notify"
	"github.com/CadeYu/polymarketArb/internal/pipeline"
	"github.com/CadeYu/polymarketArb/internal/platform/polymarket"
)

// Dependencies bundles everything the application needs to run. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Cache        *cache.Snapshot
	Trader       *polymarket.Trader
	Chain        *chain.Client
	Engine       *engine.Engine
	Orchestrator *pipeline.Orchestrator
	Notifier     *notify.Notifier
}

// Wire constructs all concrete dependencies from the given configuration and
// returns them together with a cleanup function to call on shutdown. In watch
// mode no signing key is loaded: the trader logs intended orders and the
// chain client never opens an RPC connection.
func Wire(cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// --- Signing key (trade mode only) ---
	var privateKeyHex string
	if strings.ToLower(cfg.Mode) == "trade" {
		keyCfg := crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		}
		key, err := crypto.LoadKey(keyCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: load signing key: %w", err)
		}
		privateKeyHex = key
	}

	var signer *crypto.Signer
	if privateKeyHex != "" {
		s, err := crypto.NewSigner(privateKeyHex, int(cfg.Chain.ChainID), common.HexToAddress(cfg.Polymarket.ExchangeAddress))
		if err != nil {
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		signer = s
	}

	// --- Chain client ---
	chainClient, err := chain.NewClient(chain.Config{
		RPCURL:        cfg.Chain.RPCURL,
		ChainID:       cfg.Chain.ChainID,
		Adapter:       common.HexToAddress(cfg.Chain.NegRiskAdapter),
		Collateral:    common.HexToAddress(cfg.Chain.CollateralToken),
		PrivateKeyHex: privateKeyHex,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: chain client: %w", err)
	}
	closers = append(closers, chainClient.Close)

	// --- HTTP clients ---
	// Gamma and CLOB are separate services with separate rate limits, so each
	// client carries its own limiter.
	gammaLimiter := rate.NewLimiter(rate.Limit(cfg.Polymarket.RequestsPerSecond), cfg.Polymarket.Burst)
	clobLimiter := rate.NewLimiter(rate.Limit(cfg.Polymarket.RequestsPerSecond), cfg.Polymarket.Burst)
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost, gammaLimiter, logger)
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost, clobLimiter, logger)
	trader := polymarket.NewTrader(clob, signer, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	notifier := notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Cache, engine, strategies ---
	snapshot := cache.NewSnapshot()
	eng := engine.New(chainClient, trader, notifier, logger)

	registry := arbitrage.NewRegistry()
	registry.Register(arbitrage.NewNegRiskShort(snapshot, arbitrage.NegRiskShortConfig{
		TargetSize:      decimal.NewFromFloat(cfg.Arbitrage.TargetSize),
		ExecutionBuffer: decimal.NewFromFloat(cfg.Arbitrage.ExecutionBuffer),
		MinProfit:       decimal.NewFromFloat(cfg.Arbitrage.MinProfit),
	}, logger))
	registry.Register(arbitrage.NewMirror(snapshot, arbitrage.MirrorConfig{
		MinProfit: decimal.NewFromFloat(cfg.Arbitrage.MinProfit),
	}, logger))
	registry.Register(arbitrage.NewNegRiskSweep(snapshot, chainClient, trader, arbitrage.NegRiskSweepConfig{
		MinProfit: decimal.NewFromFloat(cfg.Arbitrage.MinProfit),
		MaxSize:   decimal.NewFromFloat(cfg.Arbitrage.SweepMaxSize),
		MinSize:   decimal.NewFromFloat(cfg.Arbitrage.SweepMinSize),
	}, logger))

	strategies := make([]arbitrage.Strategy, 0, len(cfg.Arbitrage.Strategies))
	for _, name := range cfg.Arbitrage.Strategies {
		s, err := registry.Get(name)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: %w", err)
		}
		strategies = append(strategies, s)
	}

	// --- Pipeline ---
	unitLimiter := rate.NewLimiter(rate.Limit(cfg.Ingest.MarketsPerSecond), cfg.Ingest.Burst)
	ingestor := pipeline.NewIngestor(gamma, clob, snapshot, unitLimiter, pipeline.IngestorConfig{
		PageSize:      cfg.Ingest.PageSize,
		MaxMarkets:    cfg.Ingest.MaxMarketsPerSweep,
		PriceSumFloor: decimal.NewFromFloat(cfg.Ingest.PriceSumFloor),
		Interval:      cfg.Ingest.Interval.Duration,
	}, logger)

	orchestrator := pipeline.NewOrchestrator(ingestor, strategies, eng, notifier, cfg.Arbitrage.DetectInterval.Duration, logger)

	return &Dependencies{
		Cache:        snapshot,
		Trader:       trader,
		Chain:        chainClient,
		Engine:       eng,
		Orchestrator: orchestrator,
		Notifier:     notifier,
	}, cleanup, nil
}
