package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Pipeline  PipelineConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless Chrome instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	// This is the one contended resource shared between agents.
	MaxPages int // default: 4

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NavTimeout is the max time for navigation alone.
	NavTimeout time.Duration // default: 20s
}

// FetchConfig controls the acquisition strategy chain.
type FetchConfig struct {
	// HTTPTimeout is the deadline for one HTTP-direct attempt.
	HTTPTimeout time.Duration // default: 15s

	// DelayMin/DelayMax bound the randomised inter-request delay.
	DelayMin time.Duration // default: 1s
	DelayMax time.Duration // default: 4s

	// RetryMax is how many times a transient failure is retried on the
	// same strategy before falling back.
	RetryMax int // default: 2

	// RetryBackoff is the base backoff between retries.
	RetryBackoff time.Duration // default: 2s

	// UserAgents is the rotation pool. Loaded once at startup and
	// read-only thereafter.
	UserAgents []string
}

// PipelineConfig controls the orchestrator.
type PipelineConfig struct {
	// MaxConcurrentSites bounds in-flight per-site agents.
	MaxConcurrentSites int // default: 3

	// SiteTimeout bounds one agent's entire fetch+extract lifetime,
	// regardless of internal strategy fallback.
	SiteTimeout time.Duration // default: 45s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	Enabled bool // default: false
	APIKeys []string
}

// RateLimitConfig controls per-key API rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 // default: 2
	Burst             int     // default: 5
}

// StorageConfig controls on-disk result persistence.
type StorageConfig struct {
	DataDir string // default: "data"
}

// WebhookConfig controls run-completion notifications. Disabled when URL
// is empty.
type WebhookConfig struct {
	URL    string
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// defaultUserAgents is the built-in rotation pool, current desktop browsers
// only. Overridable via GARIMPO_USER_AGENTS.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("GARIMPO_HOST", "0.0.0.0"),
			Port: envIntOr("GARIMPO_PORT", 8080),
			Mode: envOr("GARIMPO_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("GARIMPO_HEADLESS", true),
			MaxPages:     envIntOr("GARIMPO_MAX_PAGES", 4),
			DefaultProxy: os.Getenv("GARIMPO_PROXY"),
			NoSandbox:    envBoolOr("GARIMPO_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("GARIMPO_BROWSER_BIN"),
			NavTimeout:   envDurationOr("GARIMPO_NAV_TIMEOUT", 20*time.Second),
		},
		Fetch: FetchConfig{
			HTTPTimeout:  envDurationOr("GARIMPO_HTTP_TIMEOUT", 15*time.Second),
			DelayMin:     envDurationOr("GARIMPO_DELAY_MIN", 1*time.Second),
			DelayMax:     envDurationOr("GARIMPO_DELAY_MAX", 4*time.Second),
			RetryMax:     envIntOr("GARIMPO_RETRY_MAX", 2),
			RetryBackoff: envDurationOr("GARIMPO_RETRY_BACKOFF", 2*time.Second),
			UserAgents:   envSliceOr("GARIMPO_USER_AGENTS", defaultUserAgents),
		},
		Pipeline: PipelineConfig{
			MaxConcurrentSites: envIntOr("GARIMPO_MAX_CONCURRENT_SITES", 3),
			SiteTimeout:        envDurationOr("GARIMPO_SITE_TIMEOUT", 45*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("GARIMPO_AUTH_ENABLED", false),
			APIKeys: envSliceOr("GARIMPO_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("GARIMPO_RATE_RPS", 2.0),
			Burst:             envIntOr("GARIMPO_RATE_BURST", 5),
		},
		Storage: StorageConfig{
			DataDir: envOr("GARIMPO_DATA_DIR", "data"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("GARIMPO_WEBHOOK_URL"),
			Secret: os.Getenv("GARIMPO_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("GARIMPO_LOG_LEVEL", "info"),
			Format: envOr("GARIMPO_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
