package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "ARBBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "ARBBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "ARBBOT_WALLET_KEY_PASSWORD")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "ARBBOT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "ARBBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ExchangeAddress, "ARBBOT_POLYMARKET_EXCHANGE_ADDRESS")
	setFloat64(&cfg.Polymarket.RequestsPerSecond, "ARBBOT_POLYMARKET_REQUESTS_PER_SECOND")
	setInt(&cfg.Polymarket.Burst, "ARBBOT_POLYMARKET_BURST")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "ARBBOT_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "ARBBOT_CHAIN_ID")
	setStr(&cfg.Chain.NegRiskAdapter, "ARBBOT_CHAIN_NEG_RISK_ADAPTER")
	setStr(&cfg.Chain.CollateralToken, "ARBBOT_CHAIN_COLLATERAL_TOKEN")

	// ── Ingest ──
	setDuration(&cfg.Ingest.Interval, "ARBBOT_INGEST_INTERVAL")
	setInt(&cfg.Ingest.PageSize, "ARBBOT_INGEST_PAGE_SIZE")
	setInt(&cfg.Ingest.MaxMarketsPerSweep, "ARBBOT_INGEST_MAX_MARKETS_PER_SWEEP")
	setFloat64(&cfg.Ingest.MarketsPerSecond, "ARBBOT_INGEST_MARKETS_PER_SECOND")
	setInt(&cfg.Ingest.Burst, "ARBBOT_INGEST_BURST")
	setFloat64(&cfg.Ingest.PriceSumFloor, "ARBBOT_INGEST_PRICE_SUM_FLOOR")

	// ── Arbitrage ──
	setStringSlice(&cfg.Arbitrage.Strategies, "ARBBOT_ARBITRAGE_STRATEGIES")
	setFloat64(&cfg.Arbitrage.TargetSize, "ARBBOT_ARBITRAGE_TARGET_SIZE")
	setFloat64(&cfg.Arbitrage.ExecutionBuffer, "ARBBOT_ARBITRAGE_EXECUTION_BUFFER")
	setFloat64(&cfg.Arbitrage.MinProfit, "ARBBOT_ARBITRAGE_MIN_PROFIT")
	setFloat64(&cfg.Arbitrage.SweepMaxSize, "ARBBOT_ARBITRAGE_SWEEP_MAX_SIZE")
	setFloat64(&cfg.Arbitrage.SweepMinSize, "ARBBOT_ARBITRAGE_SWEEP_MIN_SIZE")
	setDuration(&cfg.Arbitrage.DetectInterval, "ARBBOT_ARBITRAGE_DETECT_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBBOT_MODE")
	setStr(&cfg.LogLevel, "ARBBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
