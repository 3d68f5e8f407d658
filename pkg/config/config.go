// Package config loads environment-driven settings for the trading core.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings.
type Config struct {
	Port string

	// Venue selection and credentials. EXCHANGE is one of demo, binance,
	// bybit, okx. The demo venue ignores credentials; the configuration
	// layer, not the gateway, enforces that the others have them.
	Exchange      string
	APIKey        string
	APISecret     string
	APIPassphrase string // OKX only
	Testnet       bool

	// Market data
	Symbols         []string
	RefreshInterval time.Duration
	EnableTickFeed  bool

	// Persistence
	DBPath string

	// Trading policy file (yaml); empty means defaults.
	PolicyPath string

	// Auth
	JWTSecret string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Exchange:        strings.ToLower(getEnv("EXCHANGE", "demo")),
		APIKey:          os.Getenv("EXCHANGE_API_KEY"),
		APISecret:       os.Getenv("EXCHANGE_API_SECRET"),
		APIPassphrase:   os.Getenv("EXCHANGE_API_PASSPHRASE"),
		Testnet:         getEnv("EXCHANGE_TESTNET", "false") == "true",
		Symbols:         splitAndTrim(getEnv("SYMBOLS", "BTCUSDT,ETHUSDT")),
		RefreshInterval: getEnvDuration("MARKET_REFRESH_INTERVAL", 30*time.Second),
		EnableTickFeed:  getEnv("ENABLE_TICK_FEED", "false") == "true",
		DBPath:          getEnv("DB_PATH", "./data/autotrader.db"),
		PolicyPath:      getEnv("POLICY_PATH", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
	}, nil
}

// ValidateCredentials reports whether the config carries what its venue
// needs. Demo needs nothing.
func (c *Config) ValidateCredentials() error {
	if c.Exchange == "demo" {
		return nil
	}
	if c.APIKey == "" || c.APISecret == "" {
		return errMissingCredentials(c.Exchange)
	}
	if c.Exchange == "okx" && c.APIPassphrase == "" {
		return errMissingCredentials(c.Exchange)
	}
	return nil
}

type errMissingCredentials string

func (e errMissingCredentials) Error() string {
	return "exchange " + string(e) + " requires API credentials (EXCHANGE_API_KEY/EXCHANGE_API_SECRET)"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare numbers mean seconds.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
