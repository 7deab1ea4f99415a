package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config application configuration
type Config struct {
	// Database
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/otpfill.db"`

	// Security
	EncryptionKey string `env:"ENCRYPTION_KEY,required"`

	// OAuth
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectPort  int           `env:"OAUTH_REDIRECT_PORT" envDefault:"8765"`
	AuthTimeout        time.Duration `env:"AUTH_TIMEOUT" envDefault:"3m"`

	// Mail
	MailProvider    string        `env:"MAIL_PROVIDER" envDefault:"gmail"` // "gmail" or "imap"
	IMAPServer      string        `env:"IMAP_SERVER"`                      // e.g., imap.gmail.com:993, resolved from the account when empty
	IMAPDialTimeout time.Duration `env:"IMAP_DIAL_TIMEOUT" envDefault:"30s"`
	ScanWindow      time.Duration `env:"SCAN_WINDOW" envDefault:"10m"`
	ScanMaxMessages int64         `env:"SCAN_MAX_MESSAGES" envDefault:"10"`
	PollInterval    time.Duration `env:"POLL_INTERVAL" envDefault:"1m"`

	// Local API
	ListenAddr     string        `env:"LISTEN_ADDR" envDefault:"127.0.0.1:8766"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"12s"`

	// Page filling
	ActivePage  string        `env:"ACTIVE_PAGE"` // HTML file treated as the active tab
	SubmitDelay time.Duration `env:"SUBMIT_DELAY" envDefault:"400ms"`

	// Telegram notifications (optional)
	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `env:"TELEGRAM_CHAT_ID"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// TelegramEnabled returns true if Telegram notifications are configured
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// UseIMAP returns true if mail should be read over IMAP instead of the Gmail API
func (c *Config) UseIMAP() bool {
	return c.MailProvider == "imap"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// Validate encryption key length (32 bytes for AES-256)
	if len(c.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(c.EncryptionKey))
	}

	switch c.MailProvider {
	case "gmail", "imap":
	default:
		return fmt.Errorf("MAIL_PROVIDER must be gmail or imap, got %q", c.MailProvider)
	}

	if c.ScanMaxMessages <= 0 {
		return fmt.Errorf("SCAN_MAX_MESSAGES must be positive, got %d", c.ScanMaxMessages)
	}

	return nil
}
