// Package sessionkey generates Ed25519 session signing keys.
package sessionkey

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/valusophy/city/internal/services/auth/session"
)

// Config holds configuration for session key generation.
type Config struct {
	EnvName string
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{EnvName: "VALUSOPHY_CITY_SESSION_PRIVATE_KEY"}
	fs.StringVar(&cfg.EnvName, "env-name", cfg.EnvName, "environment variable name to print")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key and writes it to out.
func Run(cfg Config, out io.Writer) error {
	if cfg.EnvName == "" {
		return errors.New("env name is required")
	}
	if out == nil {
		return errors.New("output is required")
	}

	encoded, err := session.GenerateEncodedKey()
	if err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s=%s\n", cfg.EnvName, encoded)
	return err
}
