// Package config loads the bot configuration from environment variables.
// envconfig maps the variables onto the Config struct fields.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the application reads.
type Config struct {
	// --- Telegram ---
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`
	// Comma-separated Telegram user IDs allowed into the admin panel.
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs    []int64 `envconfig:"-"` // filled from AdminIDsRaw in Load

	// --- Database ---
	// Inside Docker "localhost" is almost always wrong; default to the
	// compose service name and override DB_HOST=localhost for local runs.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"igvault"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// How many updates we process in parallel. "go per update" with no
	// bound leaks memory under flood.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Economy ---
	DailyReward     int `envconfig:"ECONOMY_DAILY_REWARD" default:"2"`
	DailyRewardVIP  int `envconfig:"ECONOMY_DAILY_REWARD_VIP" default:"4"`
	ReferralReward  int `envconfig:"ECONOMY_REFERRAL_REWARD" default:"3"`
	VIPThreshold    int `envconfig:"ECONOMY_VIP_THRESHOLD" default:"20"`
	RedeemCost      int `envconfig:"ECONOMY_REDEEM_COST" default:"15"`
	RedeemCostVIP   int `envconfig:"ECONOMY_REDEEM_COST_VIP" default:"10"`
	StockAlertFloor int `envconfig:"STOCK_ALERT_THRESHOLD" default:"5"`

	// --- Rate limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- HTTP status endpoint ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":5000"`
}

// DatabaseDSN returns the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// RedemptionCost returns the point cost of one redemption for the given
// VIP status.
func (c *Config) RedemptionCost(vip bool) int {
	if vip {
		return c.RedeemCostVIP
	}
	return c.RedeemCost
}

// DailyAmount returns the daily claim reward for the given VIP status.
func (c *Config) DailyAmount(vip bool) int {
	if vip {
		return c.DailyRewardVIP
	}
	return c.DailyReward
}

// IsAdmin reports whether the user ID is in the configured admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS is empty")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT must be > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS must be > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RedeemCost <= 0 || c.RedeemCostVIP <= 0 {
		return fmt.Errorf("redemption costs must be > 0")
	}
	if c.DailyReward <= 0 || c.DailyRewardVIP <= 0 {
		return fmt.Errorf("daily rewards must be > 0")
	}
	if c.VIPThreshold <= 0 {
		return fmt.Errorf("ECONOMY_VIP_THRESHOLD must be > 0")
	}
	return nil
}

// Load reads the environment and fills the Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
