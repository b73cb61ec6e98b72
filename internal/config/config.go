package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EmbeddingProviderNone   = "none"
	EmbeddingProviderHTTP   = "http"
	EmbeddingProviderOpenAI = "openai"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"auto"`

	// DatabaseURL selects the table store. Postgres DSNs and "sqlite:<path>"
	// are supported; empty means no persisted store (dry runs only).
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBMinConns  int32  `envconfig:"TP_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"TP_DB_MAX_CONNS" default:"4"`

	EmbeddingProvider string        `envconfig:"EMBEDDING_PROVIDER" default:"none"`
	EmbeddingEndpoint string        `envconfig:"EMBEDDING_ENDPOINT" default:"http://127.0.0.1:8844/embed"`
	EmbeddingModel    string        `envconfig:"EMBEDDING_MODEL" default:"all-MiniLM-L6-v2"`
	EmbeddingTimeout  time.Duration `envconfig:"EMBEDDING_TIMEOUT" default:"20s"`
	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL     string        `envconfig:"OPENAI_BASE_URL"`
	TopicEnglishOnly  bool          `envconfig:"TOPIC_ENGLISH_ONLY" default:"false"`

	GoogleTrendsGeo  string        `envconfig:"GOOGLE_TRENDS_GEO" default:"US"`
	RSSFeeds         string        `envconfig:"RSS_FEEDS" default:"https://marketingdive.com/feeds/news/,https://feeds.feedburner.com/TechCrunch/,https://www.cnbc.com/id/100003114/device/rss/rss.html"`
	RedditSubreddit  string        `envconfig:"REDDIT_SUBREDDIT" default:"GenZ"`
	FetchUserAgent   string        `envconfig:"FETCH_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	FetchTimeout     time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	FetchRatePerHost float64       `envconfig:"FETCH_RATE_PER_HOST" default:"2"`

	APIKeys     string        `envconfig:"API_KEYS" default:""`
	APICacheTTL time.Duration `envconfig:"API_CACHE_TTL" default:"15m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("TP_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("TP_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("TP_DB_MIN_CONNS (%d) cannot exceed TP_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	switch c.EmbeddingProviderName() {
	case EmbeddingProviderNone, EmbeddingProviderHTTP:
	case EmbeddingProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be one of none, http, openai (got %q)", c.EmbeddingProvider)
	}
	if c.EmbeddingTimeout <= 0 {
		return fmt.Errorf("EMBEDDING_TIMEOUT must be > 0")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be > 0")
	}
	if c.FetchRatePerHost <= 0 {
		return fmt.Errorf("FETCH_RATE_PER_HOST must be > 0")
	}
	if c.APICacheTTL < 0 {
		return fmt.Errorf("API_CACHE_TTL must be >= 0")
	}
	return nil
}

// RequireDatabase reports an error when no table store is configured.
func (c *Config) RequireDatabase() error {
	if c == nil || strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func (c *Config) EmbeddingProviderName() string {
	if c == nil {
		return EmbeddingProviderNone
	}
	name := strings.ToLower(strings.TrimSpace(c.EmbeddingProvider))
	if name == "" {
		return EmbeddingProviderNone
	}
	return name
}

func (c *Config) RSSFeedList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.RSSFeeds)
}

func (c *Config) APIKeyList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.APIKeys)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return values
}
