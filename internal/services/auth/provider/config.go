package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/valusophy/city/internal/platform/config"
)

// envConfig holds raw env values before post-parse validation. The endpoint
// defaults point at Google's OAuth surface.
type envConfig struct {
	ClientID     string        `env:"VALUSOPHY_CITY_OAUTH_CLIENT_ID"`
	ClientSecret string        `env:"VALUSOPHY_CITY_OAUTH_CLIENT_SECRET"`
	RedirectURI  string        `env:"VALUSOPHY_CITY_OAUTH_REDIRECT_URI"`
	AuthURL      string        `env:"VALUSOPHY_CITY_OAUTH_AUTH_URL"     envDefault:"https://accounts.google.com/o/oauth2/v2/auth"`
	TokenURL     string        `env:"VALUSOPHY_CITY_OAUTH_TOKEN_URL"    envDefault:"https://oauth2.googleapis.com/token"`
	UserInfoURL  string        `env:"VALUSOPHY_CITY_OAUTH_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	Scopes       []string      `env:"VALUSOPHY_CITY_OAUTH_SCOPES"       envDefault:"openid,email,profile"`
	StateTTL     time.Duration `env:"VALUSOPHY_CITY_OAUTH_STATE_TTL"    envDefault:"10m"`
}

// Config defines the external OAuth provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string
	StateTTL     time.Duration
}

// LoadConfigFromEnv reads provider configuration.
func LoadConfigFromEnv() (Config, error) {
	var raw envConfig
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse oauth env: %w", err)
	}
	clientID := strings.TrimSpace(raw.ClientID)
	if clientID == "" {
		return Config{}, fmt.Errorf("VALUSOPHY_CITY_OAUTH_CLIENT_ID is required")
	}
	redirectURI := strings.TrimSpace(raw.RedirectURI)
	if redirectURI == "" {
		return Config{}, fmt.Errorf("VALUSOPHY_CITY_OAUTH_REDIRECT_URI is required")
	}
	if raw.StateTTL <= 0 {
		return Config{}, fmt.Errorf("oauth state ttl must be positive")
	}

	return Config{
		ClientID:     clientID,
		ClientSecret: strings.TrimSpace(raw.ClientSecret),
		RedirectURI:  redirectURI,
		AuthURL:      strings.TrimSpace(raw.AuthURL),
		TokenURL:     strings.TrimSpace(raw.TokenURL),
		UserInfoURL:  strings.TrimSpace(raw.UserInfoURL),
		Scopes:       raw.Scopes,
		StateTTL:     raw.StateTTL,
	}, nil
}
