// Package session issues and verifies signed session tokens. Tokens are
// EdDSA JWTs carried in an HttpOnly cookie; the claims hold the auth
// principal's id and email.
package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/valusophy/city/internal/platform/config"
	apperrors "github.com/valusophy/city/internal/platform/errors"
	"github.com/valusophy/city/internal/platform/id"
	"github.com/valusophy/city/internal/platform/requestctx"
)

// CookieName is the session cookie carried by browsers.
const CookieName = "vc_session"

// envConfig holds raw env values before post-parse validation.
type envConfig struct {
	Issuer     string        `env:"VALUSOPHY_CITY_SESSION_ISSUER"   envDefault:"valusophy-city"`
	Audience   string        `env:"VALUSOPHY_CITY_SESSION_AUDIENCE" envDefault:"valusophy-city-web"`
	PrivateKey string        `env:"VALUSOPHY_CITY_SESSION_PRIVATE_KEY"`
	TTL        time.Duration `env:"VALUSOPHY_CITY_SESSION_TTL"      envDefault:"168h"`
}

// Config defines how session tokens are signed and verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// sessionClaims is the internal claims type used for JWT parsing.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// LoadConfigFromEnv reads session signing configuration.
func LoadConfigFromEnv() (Config, error) {
	var raw envConfig
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("parse session env: %w", err)
	}
	privateKey := strings.TrimSpace(raw.PrivateKey)
	if privateKey == "" {
		return Config{}, fmt.Errorf("VALUSOPHY_CITY_SESSION_PRIVATE_KEY is required")
	}
	keyBytes, err := decodeBase64(privateKey)
	if err != nil {
		return Config{}, fmt.Errorf("decode session private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return Config{}, fmt.Errorf("session private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if raw.TTL <= 0 {
		return Config{}, fmt.Errorf("session ttl must be positive")
	}

	return Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		Key:      ed25519.PrivateKey(keyBytes),
		TTL:      raw.TTL,
		Now:      time.Now,
	}, nil
}

// Issue signs a session token for the principal.
func (c Config) Issue(principal requestctx.Principal) (string, error) {
	if c.Issuer == "" || c.Audience == "" || len(c.Key) != ed25519.PrivateKeySize {
		return "", errors.New("session signer is not configured")
	}
	if strings.TrimSpace(principal.ID) == "" {
		return "", errors.New("principal id is required")
	}
	now := c.now().UTC()
	jwtID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate session jti: %w", err)
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Audience:  jwt.ClaimStrings{c.Audience},
			Subject:   principal.ID,
			ID:        jwtID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TTL)),
		},
		Email: principal.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(c.Key)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses a session token and returns its principal.
func (c Config) Verify(token string) (requestctx.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session token is required")
	}
	if c.Issuer == "" || c.Audience == "" || len(c.Key) != ed25519.PrivateKeySize {
		return requestctx.Principal{}, errors.New("session verifier is not configured")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return c.Key.Public(), nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return requestctx.Principal{}, mapJWTError(err)
	}

	if parsed.Issuer != c.Issuer {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session issuer mismatch")
	}
	if !audienceContains(parsed.Audience, c.Audience) {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session audience mismatch")
	}
	if parsed.ExpiresAt == nil {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session exp is required")
	}
	if !parsed.ExpiresAt.Time.UTC().After(c.now().UTC()) {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeSessionTokenExpired, "session is expired")
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return requestctx.Principal{}, apperrors.New(apperrors.CodeSessionTokenInvalid, "session subject is required")
	}

	return requestctx.Principal{ID: parsed.Subject, Email: parsed.Email}, nil
}

func (c Config) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// SetCookie writes the session cookie on a response.
func SetCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on a response.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GenerateEncodedKey creates a fresh ed25519 signing key encoded for the
// session private key env variable.
func GenerateEncodedKey() (string, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate session key: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(key), nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeSessionTokenInvalid, "session signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeSessionTokenInvalid, "session alg is invalid")
	}
	return apperrors.New(apperrors.CodeSessionTokenInvalid, "session token is invalid")
}

// audienceContains reports whether the audience list contains the value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
