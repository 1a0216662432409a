package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":5000"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Database pool
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"15m"`

	// Auth: requester and worker tokens are signed with different secrets
	JWTSecret       string        `env:"JWT_SECRET,required,notEmpty"`
	WorkerJWTSecret string        `env:"WORKER_JWT_SECRET,required,notEmpty"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// Chain
	EthRPCURL          string `env:"ETH_RPC_URL,required,notEmpty"`
	ChainID            int64  `env:"CHAIN_ID" envDefault:"11155111"`
	TreasuryAddress    string `env:"TREASURY_ADDRESS,required,notEmpty"`
	TreasuryPrivateKey string `env:"TREASURY_PRIVATE_KEY,required,notEmpty"`

	// Object storage
	S3Endpoint        string `env:"S3_ENDPOINT" envDefault:"s3.amazonaws.com"`
	S3Region          string `env:"S3_REGION" envDefault:"eu-north-1"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3Bucket          string `env:"S3_BUCKET" envDefault:"clickpulse-uploads"`
	S3UseSSL          bool   `env:"S3_USE_SSL" envDefault:"true"`

	// Timeouts
	StoreTxTimeout    time.Duration `env:"STORE_TX_TIMEOUT" envDefault:"10s"`
	TransferTimeout   time.Duration `env:"TRANSFER_TIMEOUT" envDefault:"60s"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
	IntentGracePeriod time.Duration `env:"INTENT_GRACE_PERIOD" envDefault:"15m"`

	// HTTP
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Telegram alerts
	LogTelegramBotToken string `env:"LOG_TELEGRAM_BOT_TOKEN"`
	LogTelegramChatID   int64  `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicLedger      int    `env:"LOG_TOPIC_LEDGER"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks relations between fields that env tags cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == c.WorkerJWTSecret {
		return errors.New("JWT_SECRET and WORKER_JWT_SECRET must differ")
	}
	if c.StoreTxTimeout <= 0 {
		return errors.New("STORE_TX_TIMEOUT must be positive")
	}
	if c.TransferTimeout <= 0 || c.ReconcileInterval <= 0 {
		return errors.New("TRANSFER_TIMEOUT and RECONCILE_INTERVAL must be positive")
	}
	// A Pending intent must outlive the request that owns it before the
	// reconciler may close it.
	if minGrace := c.MinIntentGracePeriod(); c.IntentGracePeriod < minGrace {
		return fmt.Errorf("INTENT_GRACE_PERIOD must be at least %s (twice TRANSFER_TIMEOUT plus STORE_TX_TIMEOUT)", minGrace)
	}
	if !common.IsHexAddress(c.TreasuryAddress) {
		return fmt.Errorf("TREASURY_ADDRESS %q is not a hex address", c.TreasuryAddress)
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS")
	}
	return nil
}

// MinIntentGracePeriod is the shortest grace period Validate accepts.
func (c *Config) MinIntentGracePeriod() time.Duration {
	return 2 * (c.TransferTimeout + c.StoreTxTimeout)
}

// AlertsEnabled reports whether ledger alerts should be pushed to Telegram.
func (c *Config) AlertsEnabled() bool {
	return c.LogTelegramBotToken != "" && c.LogTelegramChatID != 0
}
