package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DeckAPIURL         string
	JWTSecret          string
	AllowedOrigins     []string
	SessionTTL         time.Duration
	SupabaseURL        string
	SupabaseServiceKey string
	ArchiveBucket      string
}

// Load reads .env files when present, then the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using default environment variables")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DeckAPIURL:         strings.TrimSuffix(getEnv("DECK_API_URL", "http://localhost:5000"), "/"),
		JWTSecret:          os.Getenv("FORM_JWT_SECRET"),
		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SessionTTL:         time.Hour,
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		ArchiveBucket:      getEnv("ARCHIVE_BUCKET", "sales-decks"),
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", raw, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", raw)
		}
		cfg.SessionTTL = ttl
	}

	if !strings.HasPrefix(cfg.DeckAPIURL, "http://") && !strings.HasPrefix(cfg.DeckAPIURL, "https://") {
		return nil, fmt.Errorf("DECK_API_URL must be an http(s) URL, got %q", cfg.DeckAPIURL)
	}

	return cfg, nil
}

// ArchiveEnabled reports whether Supabase credentials are configured.
func (c *Config) ArchiveEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
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
