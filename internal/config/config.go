// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds everything the server needs to start.
type Config struct {
	// Supabase connection
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Application
	SecretKey      string
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Rate limiting
	RateLimitPerSecond int
	RateLimitBurst     int
}

// Load reads configuration from environment variables. The Supabase URL and
// anon key are required; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseJWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
		SecretKey:          os.Getenv("SECRET_KEY"),
		Port:               os.Getenv("PORT"),
		RequestTimeout:     30 * time.Second,
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
	}

	// SUPABASE_KEY is the legacy name for the anon key.
	if cfg.SupabaseAnonKey == "" {
		cfg.SupabaseAnonKey = os.Getenv("SUPABASE_KEY")
	}

	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}

	if cfg.Port == "" {
		cfg.Port = "5000"
	}

	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if strings.TrimSpace(origins) == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}
