package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces the pmctl environment variables
const EnvPrefix = "PMCTL_"

// Config is the pmctl connection and output setup. Flags override the
// PMCTL_* environment, which overrides the defaults.
type Config struct {
	ServerURL string `env:"SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"TOKEN"`
	TokenFile string `env:"TOKEN_FILE"`
	Output    string `env:"OUTPUT" envDefault:"text"`
}

// DefaultConfig reads the environment. A malformed environment falls back
// to the built-in defaults; Validate reports bad values later.
func DefaultConfig() *Config {
	c := &Config{}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		c = &Config{ServerURL: "http://localhost:8080", Output: "text"}
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	return c
}

// Validate checks the values after flags are applied
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server URL must not be empty")
	}
	switch c.Output {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", c.Output)
	}
}

// LoadToken reads the saved token unless one was given by flag or env.
// A missing token file is not an error.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading token file: %w", err)
	}
	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken remembers the token for later invocations
func (c *Config) SaveToken(token string) error {
	c.Token = token
	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	return os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600)
}

// ClearToken forgets the saved token
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pmctl", "token")
	}
	return filepath.Join(home, ".pmctl", "token")
}
