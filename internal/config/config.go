// Package config defines the top-level configuration for the arbitrage bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBBOT_* environment variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Chain      ChainConfig      `toml:"chain"`
	Ingest     IngestConfig     `toml:"ingest"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds the trading wallet credential sources. All three may be
// empty, in which case the bot runs watch-only.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds API endpoints and exchange parameters.
type PolymarketConfig struct {
	ClobHost        string `toml:"clob_host"`
	GammaHost       string `toml:"gamma_host"`
	ExchangeAddress string `toml:"exchange_address"`
	// RequestsPerSecond throttles each HTTP client; Burst is its bucket depth.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// ChainConfig holds Polygon connection and contract parameters.
type ChainConfig struct {
	RPCURL          string `toml:"rpc_url"`
	ChainID         int64  `toml:"chain_id"`
	NegRiskAdapter  string `toml:"neg_risk_adapter"`
	CollateralToken string `toml:"collateral_token"`
}

// IngestConfig holds market sweep parameters.
type IngestConfig struct {
	Interval           duration `toml:"interval"`
	PageSize           int      `toml:"page_size"`
	MaxMarketsPerSweep int      `toml:"max_markets_per_sweep"`
	// MarketsPerSecond caps how many markets may start book hydration per
	// second across the sweep's goroutines.
	MarketsPerSecond float64 `toml:"markets_per_second"`
	Burst            int     `toml:"burst"`
	PriceSumFloor    float64 `toml:"price_sum_floor"`
}

// ArbitrageConfig holds detector selection and thresholds.
type ArbitrageConfig struct {
	// Strategies lists the detectors to run: "negrisk_short", "mirror",
	// "negrisk_sweep".
	Strategies      []string `toml:"strategies"`
	TargetSize      float64  `toml:"target_size"`
	ExecutionBuffer float64  `toml:"execution_buffer"`
	MinProfit       float64  `toml:"min_profit"`
	SweepMaxSize    float64  `toml:"sweep_max_size"`
	SweepMinSize    float64  `toml:"sweep_min_size"`
	DetectInterval  duration `toml:"detect_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with working default values. Thresholds
// match the live Polymarket deployment: Polygon mainnet, the CTF exchange,
// and the neg-risk adapter.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:          "https://clob.polymarket.com",
			GammaHost:         "https://gamma-api.polymarket.com",
			ExchangeAddress:   "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045",
			RequestsPerSecond: 10,
			Burst:             10,
		},
		Chain: ChainConfig{
			RPCURL:          "https://polygon-rpc.com",
			ChainID:         137,
			NegRiskAdapter:  "0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296",
			CollateralToken: "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
		},
		Ingest: IngestConfig{
			Interval:           duration{30 * time.Second},
			PageSize:           100,
			MaxMarketsPerSweep: 1000,
			MarketsPerSecond:   20,
			Burst:              20,
			PriceSumFloor:      0.90,
		},
		Arbitrage: ArbitrageConfig{
			Strategies:      []string{"negrisk_short", "mirror"},
			TargetSize:      10,
			ExecutionBuffer: 0.002,
			MinProfit:       0.0001,
			SweepMaxSize:    10,
			SweepMinSize:    1,
			DetectInterval:  duration{10 * time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "execution"},
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"watch": true,
	"trade": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validStrategies enumerates the registered detector names.
var validStrategies = map[string]bool{
	"negrisk_short": true,
	"mirror":        true,
	"negrisk_sweep": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: watch, trade)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if strings.ToLower(c.Mode) == "trade" {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for mode trade")
		}
	}
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ExchangeAddress == "" {
		errs = append(errs, "polymarket: exchange_address must not be empty")
	}
	if c.Polymarket.RequestsPerSecond <= 0 {
		errs = append(errs, "polymarket: requests_per_second must be > 0")
	}
	if c.Polymarket.Burst < 1 {
		errs = append(errs, "polymarket: burst must be >= 1")
	}

	if c.Chain.ChainID <= 0 {
		errs = append(errs, "chain: chain_id must be positive")
	}
	if c.Chain.NegRiskAdapter == "" {
		errs = append(errs, "chain: neg_risk_adapter must not be empty")
	}
	if strings.ToLower(c.Mode) == "trade" && c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must not be empty for mode trade")
	}

	if c.Ingest.Interval.Duration <= 0 {
		errs = append(errs, "ingest: interval must be > 0")
	}
	if c.Ingest.PageSize < 1 {
		errs = append(errs, "ingest: page_size must be >= 1")
	}
	if c.Ingest.MaxMarketsPerSweep < 1 {
		errs = append(errs, "ingest: max_markets_per_sweep must be >= 1")
	}
	if c.Ingest.MarketsPerSecond <= 0 {
		errs = append(errs, "ingest: markets_per_second must be > 0")
	}
	if c.Ingest.PriceSumFloor < 0 || c.Ingest.PriceSumFloor > 2 {
		errs = append(errs, fmt.Sprintf("ingest: price_sum_floor must be within [0, 2], got %v", c.Ingest.PriceSumFloor))
	}

	if len(c.Arbitrage.Strategies) == 0 {
		errs = append(errs, "arbitrage: at least one strategy must be enabled")
	}
	for _, name := range c.Arbitrage.Strategies {
		if !validStrategies[name] {
			errs = append(errs, fmt.Sprintf("arbitrage: unknown strategy %q (valid: negrisk_short, mirror, negrisk_sweep)", name))
		}
	}
	if c.Arbitrage.TargetSize <= 0 {
		errs = append(errs, "arbitrage: target_size must be > 0")
	}
	if c.Arbitrage.ExecutionBuffer < 0 {
		errs = append(errs, "arbitrage: execution_buffer must be >= 0")
	}
	if c.Arbitrage.MinProfit <= 0 {
		errs = append(errs, "arbitrage: min_profit must be > 0")
	}
	if c.Arbitrage.SweepMinSize > c.Arbitrage.SweepMaxSize {
		errs = append(errs, "arbitrage: sweep_min_size must not exceed sweep_max_size")
	}
	if c.Arbitrage.DetectInterval.Duration <= 0 {
		errs = append(errs, "arbitrage: detect_interval must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
