package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Email links
	ConfirmTokenExpiry  time.Duration
	RecoveryTokenExpiry time.Duration
	SiteURL             string
	PublicURL           string

	// SMTP
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Billing webhook
	BillingWebhookAuth string
	SubscriptionSweep  time.Duration

	// Logout cleanup
	AuthCookieMarkers []string

	// Server
	Port          string
	CORSOrigins   string
	DefaultLocale string
	LogLevel      string
	LogRetention  time.Duration
	SiteName      string
	ContactEmail  string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "estate_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		CacheTTL:      parseDuration(getEnv("CACHE_TTL", "10m"), 10*time.Minute),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		ConfirmTokenExpiry:  parseDuration(getEnv("CONFIRM_TOKEN_EXPIRY", "24h"), 24*time.Hour),
		RecoveryTokenExpiry: parseDuration(getEnv("RECOVERY_TOKEN_EXPIRY", "1h"), time.Hour),
		SiteURL:             strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		PublicURL:           strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@estate.local"),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		BillingWebhookAuth: getEnv("BILLING_WEBHOOK_AUTH", ""),
		SubscriptionSweep:  parseDuration(getEnv("SUBSCRIPTION_SWEEP_INTERVAL", "1h"), time.Hour),

		AuthCookieMarkers: ParseCSV(getEnv("AUTH_COOKIE_MARKERS", "auth,token,session,sb-")),

		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   getEnv("CORS_ORIGINS", "*"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogRetention:  parseDuration(getEnv("LOG_RETENTION", "720h"), 30*24*time.Hour),
		SiteName:      getEnv("SITE_NAME", "Estate"),
		ContactEmail:  getEnv("CONTACT_EMAIL", "support@estate.local"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// MailEnabled reports whether outgoing email is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// ParseCSV splits a comma separated list, dropping blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// parseDuration falls back for unparsable and non-positive values; every
// duration here feeds a TTL or a ticker.
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
