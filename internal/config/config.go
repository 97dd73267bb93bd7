package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// DevAuthSecret signs tokens when AUTH_HMAC_SECRET is unset. Validate
// rejects it in online mode.
const DevAuthSecret = "supersecret-dev-key"

type Config struct {
	Mode     Mode
	HTTPAddr string
	LogLevel slog.Level

	DBDriver string
	DBDSN    string

	BlobBasePath string // fs backups root

	AuthSecret      string
	EnableLocalAuth bool

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string // CIDRs whose X-Forwarded-For is believed

	ExportPretty bool
}

func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

// Validate reports settings that are unsafe for the configured mode.
func (c Config) Validate() error {
	if c.Mode == ModeOnline && c.AuthSecret == DevAuthSecret {
		return errors.New("config: AUTH_HMAC_SECRET must be set in online mode")
	}
	return nil
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	return Config{
		Mode:               mode,
		HTTPAddr:           envOr("HTTP_ADDR", ":8080"),
		LogLevel:           envLogLevel("LOG_LEVEL", slog.LevelInfo),
		DBDriver:           envOr("DB_DRIVER", "sqlite"),
		DBDSN:              envOr("DB_DSN", ""),
		BlobBasePath:       envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:         envOr("AUTH_HMAC_SECRET", DevAuthSecret),
		EnableLocalAuth:    envBool("ENABLE_LOCAL_AUTH", mode == ModeOffline),
		AdminUser:          envOr("ADMIN_USER", "admin"),
		AdminPassHash:      os.Getenv("ADMIN_PASS_HASH"), // empty disables admin login
		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://quizbank.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),
		RateLimitRPS:       envFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     envInt("RATE_LIMIT_BURST", 20),
		TrustedProxies:     csvOr("TRUSTED_PROXIES", ""),
		ExportPretty:       envBool("EXPORT_PRETTY", false),
	}
}
func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}
func envFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil {
		return f
	}
	return def
}
func envLogLevel(k string, def slog.Level) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(os.Getenv(k))); err != nil {
		return def
	}
	return l
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
