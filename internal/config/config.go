// Package config loads and validates environment-sourced configuration.
package config

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Addr string `envconfig:"ADDR" default:"127.0.0.1:8080"`

	SpotifyClientID     string `envconfig:"SPOTIFY_CLIENT_ID" required:"true"`
	SpotifyClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET" required:"true"`
	SpotifyRedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI" default:"https://synaptic-sound.com/callback"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	CookieDomain   string `envconfig:"COOKIE_DOMAIN" default:"synaptic-sound.com"`
	CookieSameSite string `envconfig:"COOKIE_SAMESITE" default:"lax"`

	// EncryptionKey is the base64 encoding of a 256-bit AES key.
	EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`
	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"https://synaptic-sound.com,https://www.synaptic-sound.com"`

	aesKey []byte
}

// Load reads configuration from the environment and validates it.
// Missing required secrets or a malformed encryption key abort startup.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decoding ENCRYPTION_KEY: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	cfg.aesKey = key

	if _, err := ParseSameSite(cfg.CookieSameSite); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AESKey returns the decoded 256-bit encryption key.
func (c *Config) AESKey() []byte {
	return c.aesKey
}

// SameSite returns the configured cookie SameSite policy.
// Load has already validated the value.
func (c *Config) SameSite() http.SameSite {
	mode, _ := ParseSameSite(c.CookieSameSite)
	return mode
}

// ParseSameSite maps a config string to an http.SameSite mode.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid COOKIE_SAMESITE %q (want lax, strict, or none)", s)
	}
}
