package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingAllowedOrigins = errors.New("missing ALLOWED_ORIGINS")
	ErrMissingPostgresURL    = errors.New("missing POSTGRES_URL")
	ErrMissingJWTKey         = errors.New("missing JWT_KEY")
)

type Config struct {
	Port           string
	AllowedOrigins []string
	PostgresURL    string
	JWTKey         string
	TokenMaxAge    time.Duration
	PublicURL      string
	QuestionsCSV   string
	Debug          bool
}

// Load reads the process environment, after merging an optional .env file.
func Load() (Config, error) {
	// a missing .env is fine, the real environment wins anyway
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an env lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		Port:        "5000",
		TokenMaxAge: time.Hour * 24 * 7,
	}

	origins, ok := lookup("ALLOWED_ORIGINS")
	if !ok || strings.TrimSpace(origins) == "" {
		return Config{}, ErrMissingAllowedOrigins
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.PostgresURL, ok = lookup("POSTGRES_URL"); !ok || cfg.PostgresURL == "" {
		return Config{}, ErrMissingPostgresURL
	}
	if cfg.JWTKey, ok = lookup("JWT_KEY"); !ok || cfg.JWTKey == "" {
		return Config{}, ErrMissingJWTKey
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		cfg.Port = port
	}
	if raw, ok := lookup("TOKEN_MAX_AGE"); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_MAX_AGE: %w", err)
		}
		cfg.TokenMaxAge = d
	}
	if raw, ok := lookup("DEBUG"); ok && raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	cfg.PublicURL, _ = lookup("PUBLIC_URL")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	cfg.QuestionsCSV, _ = lookup("QUESTIONS_CSV")

	return cfg, nil
}
