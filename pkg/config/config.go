package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Auth modes.
const (
	ModeHosted = "hosted" // Supabase-compatible identity + storage provider
	ModeLocal  = "local"  // self-hosted users table + local token codec
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Server
	Port     string
	AppName  string
	AuthMode string
	LogLevel string

	// Database (local mode)
	DatabaseURL string

	// JWT (local mode)
	JWTSecret     string
	JWTIssuer     string
	JWTExpiration int // hours

	// Gemini generation API
	GeminiURL             string
	GeminiAPIKey          string
	GeminiTimeout         time.Duration
	GeminiMaxRetries      int
	GeminiTemperature     float64
	GeminiTopK            int
	GeminiTopP            float64
	GeminiMaxOutputTokens int

	// Chat
	ChatPromptPrefix   string
	ChatFallbackAnswer string

	// Hosted identity/storage provider
	SupabaseURL          string
	SupabaseServiceKey   string
	SupabaseHistoryTable string
	TokenCacheTTL        time.Duration

	// Rate limiting on /auth
	AuthRateLimitPerMinute int
	AuthRateLimitBurst     int
}

const (
	defaultGeminiURL     = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"
	defaultPromptPrefix  = "Sen ChatCPT adında Türkçe konuşan bir AI asistanısın. Kullanıcının sorusunu Türkçe olarak yanıtla: "
	defaultFallbackReply = "Üzgünüm, cevap oluşturamadım."
)

// Load reads configuration from environment variables with sensible defaults.
// Secrets never have defaults; call Validate before use.
func Load() *Config {
	return &Config{
		Port:     envOrDefault("PORT", "3000"),
		AppName:  envOrDefault("APP_NAME", "ChatCPT API"),
		AuthMode: strings.ToLower(envOrDefault("AUTH_MODE", ModeHosted)),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     envOrDefault("JWT_ISSUER", "chatcpt"),
		JWTExpiration: envOrDefaultInt("JWT_EXPIRATION_HOURS", 24),

		GeminiURL:             envOrDefault("GEMINI_URL", defaultGeminiURL),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiTimeout:         time.Duration(envOrDefaultInt("GEMINI_TIMEOUT_SECONDS", 30)) * time.Second,
		GeminiMaxRetries:      envOrDefaultInt("GEMINI_MAX_RETRIES", 2),
		GeminiTemperature:     envOrDefaultFloat("GEMINI_TEMPERATURE", 0.7),
		GeminiTopK:            envOrDefaultInt("GEMINI_TOP_K", 40),
		GeminiTopP:            envOrDefaultFloat("GEMINI_TOP_P", 0.95),
		GeminiMaxOutputTokens: envOrDefaultInt("GEMINI_MAX_OUTPUT_TOKENS", 1024),

		ChatPromptPrefix:   envOrDefaultRaw("CHAT_PROMPT_PREFIX", defaultPromptPrefix),
		ChatFallbackAnswer: envOrDefault("CHAT_FALLBACK_ANSWER", defaultFallbackReply),

		SupabaseURL:          strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseServiceKey:   os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseHistoryTable: envOrDefault("SUPABASE_HISTORY_TABLE", "chat_history"),
		TokenCacheTTL:        time.Duration(envOrDefaultInt("TOKEN_CACHE_TTL_SECONDS", 60)) * time.Second,

		AuthRateLimitPerMinute: envOrDefaultInt("AUTH_RATE_LIMIT_PER_MINUTE", 30),
		AuthRateLimitBurst:     envOrDefaultInt("AUTH_RATE_LIMIT_BURST", 10),
	}
}

// Validate reports missing or inconsistent settings.
func (c *Config) Validate() error {
	var errs []error

	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}

	switch c.AuthMode {
	case ModeLocal:
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in local mode"))
		}
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in local mode"))
		}
		if c.JWTExpiration <= 0 {
			errs = append(errs, errors.New("JWT_EXPIRATION_HOURS must be positive"))
		}
	case ModeHosted:
		if c.SupabaseURL == "" {
			errs = append(errs, errors.New("SUPABASE_URL is required in hosted mode"))
		}
		if c.SupabaseServiceKey == "" {
			errs = append(errs, errors.New("SUPABASE_SERVICE_KEY is required in hosted mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q (want %q or %q)", c.AuthMode, ModeHosted, ModeLocal))
	}

	if c.GeminiMaxRetries < 0 {
		errs = append(errs, errors.New("GEMINI_MAX_RETRIES must not be negative"))
	}

	return errors.Join(errs...)
}

// TokenTTL returns the lifetime of locally issued tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Hour
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envOrDefaultRaw keeps surrounding whitespace, which matters for prompt prefixes.
func envOrDefaultRaw(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
