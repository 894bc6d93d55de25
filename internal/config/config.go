package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultAdminPassword is only accepted outside production, when no credential is configured.
const DefaultAdminPassword = "admin123"

// ErrAdminCredentialRequired is returned by Load in production when no admin credential is set.
var ErrAdminCredentialRequired = errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set in production")

// Mail providers.
const (
	MailProviderResend = "resend"
	MailProviderSMTP   = "smtp"
	MailProviderNone   = "none"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	LogDir       string
	Debug        bool
	SiteName     string

	AdminPassword     string
	AdminPasswordHash string
	// UsingDefaultPassword is set when AdminPassword fell back to DefaultAdminPassword.
	UsingDefaultPassword bool

	Mail       MailConfig
	NotifyURLs []string

	SubmitRatePerMinute int
	SubmitBurst         int
	// TrustedProxies lists the proxy IPs/CIDRs whose X-Forwarded-For is
	// believed when deriving the client address for throttling. Empty trusts none.
	TrustedProxies []string

	DeliveryRetrySpec   string
	DeliveryMaxAttempts int
}

// MailConfig selects and configures the transactional email transport.
type MailConfig struct {
	Provider        string
	ResendAPIKey    string
	SMTPHost        string
	SMTPPort        int
	SMTPUsername    string
	SMTPPassword    string
	SMTPEncryption  string // "none", "ssl", "starttls"
	FromAddress     string
	OperatorAddress string
	SenderName      string
}

// IsProduction reports whether the server runs with production safeguards.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads an optional .env file and env vars, falling back to defaults so the
// server can boot with zero configuration in development.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Environment:  getEnv("APP_ENV", "development"),
		HTTPPort:     getEnv("PORT", "8080"),
		DatabasePath: getEnv("DB_PATH", filepath.Join("data", "site.db")),
		LogDir:       getEnv("LOG_DIR", filepath.Join("data", "logs")),
		Debug:        getEnvBool("DEBUG", false),
		SiteName:     getEnv("SITE_NAME", "Jose Cyber Pro"),

		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		Mail: MailConfig{
			Provider:        strings.ToLower(os.Getenv("MAIL_PROVIDER")),
			ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
			SMTPHost:        os.Getenv("SMTP_HOST"),
			SMTPPort:        getEnvInt("SMTP_PORT", 587),
			SMTPUsername:    os.Getenv("SMTP_USERNAME"),
			SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
			SMTPEncryption:  getEnv("SMTP_ENCRYPTION", "starttls"),
			FromAddress:     os.Getenv("AUDIT_FROM_EMAIL"),
			OperatorAddress: os.Getenv("AUDIT_TO_EMAIL"),
			SenderName:      getEnv("MAIL_SENDER_NAME", "Jose"),
		},
		NotifyURLs: splitList(os.Getenv("NOTIFY_URLS")),

		SubmitRatePerMinute: getEnvInt("SUBMIT_RATE_PER_MINUTE", 5),
		SubmitBurst:         getEnvInt("SUBMIT_BURST", 5),
		TrustedProxies:      splitList(os.Getenv("TRUSTED_PROXIES")),

		DeliveryRetrySpec:   getEnv("DELIVERY_RETRY_SPEC", "@every 5m"),
		DeliveryMaxAttempts: getEnvInt("DELIVERY_MAX_ATTEMPTS", 5),
	}

	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = detectMailProvider(cfg.Mail)
	}

	if cfg.AdminPassword == "" && cfg.AdminPasswordHash == "" {
		if cfg.IsProduction() {
			return Config{}, ErrAdminCredentialRequired
		}
		cfg.AdminPassword = DefaultAdminPassword
		cfg.UsingDefaultPassword = true
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func detectMailProvider(m MailConfig) string {
	switch {
	case m.ResendAPIKey != "":
		return MailProviderResend
	case m.SMTPHost != "":
		return MailProviderSMTP
	default:
		return MailProviderNone
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
