// Package config loads player manager settings.
// Values come from built-in defaults, then an optional YAML file, then PM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/playermanager/internal/services/snapshot"
)

// Log formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// TrustedProxies are IPs or CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" envSeparator:","`
}

// ProxyPrefixes parses TrustedProxies. A bare IP becomes a single-host prefix.
func (s ServerConfig) ProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// RedisConfig holds settings for the redis backend.
type RedisConfig struct {
	URL       string `yaml:"url" env:"URL"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	Backend          string        `yaml:"backend" env:"BACKEND"`
	Dir              string        `yaml:"dir" env:"DIR"`
	PlayersFile      string        `yaml:"players_file" env:"PLAYERS_FILE"`
	WhitelistFile    string        `yaml:"whitelist_file" env:"WHITELIST_FILE"`
	BanlistFile      string        `yaml:"banlist_file" env:"BANLIST_FILE"`
	SaveInterval     time.Duration `yaml:"save_interval" env:"SAVE_INTERVAL"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	ShutdownAttempts int           `yaml:"shutdown_attempts" env:"SHUTDOWN_ATTEMPTS"`
	Redis            RedisConfig   `yaml:"redis" envPrefix:"REDIS_"`
}

// AuthConfig holds session and token settings.
type AuthConfig struct {
	SessionDuration    time.Duration `yaml:"session_duration" env:"SESSION_DURATION"`
	MasterToken        string        `yaml:"master_token" env:"MASTER_TOKEN"`
	LoginRatePerMinute int           `yaml:"login_rate_per_minute" env:"LOGIN_RATE_PER_MINUTE"`
}

// SnapshotConfig holds the delimiters of the player snapshot format.
type SnapshotConfig struct {
	RecordDelimiter   string `yaml:"record_delimiter" env:"RECORD_DELIMITER"`
	FieldDelimiter    string `yaml:"field_delimiter" env:"FIELD_DELIMITER"`
	KeyValueDelimiter string `yaml:"key_value_delimiter" env:"KEY_VALUE_DELIMITER"`
}

// Delimiters returns the parser delimiters
func (s SnapshotConfig) Delimiters() snapshot.Delimiters {
	return snapshot.Delimiters{
		Record:   s.RecordDelimiter,
		Field:    s.FieldDelimiter,
		KeyValue: s.KeyValueDelimiter,
	}
}

// PollingConfig holds the adaptive polling intervals.
type PollingConfig struct {
	ActiveInterval time.Duration `yaml:"active_interval" env:"ACTIVE_INTERVAL"`
	IdleInterval   time.Duration `yaml:"idle_interval" env:"IDLE_INTERVAL"`
}

// CommandsConfig holds chat command settings.
type CommandsConfig struct {
	Prefix string `yaml:"prefix" env:"PREFIX"`
}

// Config mirrors the playermanager.yaml schema.
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	Auth     AuthConfig     `yaml:"auth" envPrefix:"AUTH_"`
	Snapshot SnapshotConfig `yaml:"snapshot" envPrefix:"SNAPSHOT_"`
	Polling  PollingConfig  `yaml:"polling" envPrefix:"POLLING_"`
	Commands CommandsConfig `yaml:"commands" envPrefix:"COMMANDS_"`
}

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "PM_"

// Default returns a fully populated configuration.
func Default() Config {
	var c Config
	applyDefaults(&c)
	return c
}

// Load builds the configuration. An empty path skips the file.
func Load(path string) (Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&c)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyDefaults populates zero-values.
func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format == "" {
		c.Log.Format = LogFormatJSON
	}

	c.Database.Backend = strings.ToLower(strings.TrimSpace(c.Database.Backend))
	if c.Database.Backend == "" {
		c.Database.Backend = BackendFile
	}
	if c.Database.Dir == "" {
		c.Database.Dir = "./data"
	}
	if c.Database.PlayersFile == "" {
		c.Database.PlayersFile = "playerManager.json"
	}
	if c.Database.WhitelistFile == "" {
		c.Database.WhitelistFile = "whitelist.json"
	}
	if c.Database.BanlistFile == "" {
		c.Database.BanlistFile = "banlist.json"
	}
	if c.Database.SaveInterval == 0 {
		c.Database.SaveInterval = 5 * time.Minute
	}
	if c.Database.ShutdownTimeout == 0 {
		c.Database.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.ShutdownAttempts == 0 {
		c.Database.ShutdownAttempts = 3
	}
	if c.Database.Redis.URL == "" {
		c.Database.Redis.URL = "redis://localhost:6379"
	}
	if c.Database.Redis.KeyPrefix == "" {
		c.Database.Redis.KeyPrefix = "playermanager"
	}

	if c.Auth.SessionDuration == 0 {
		c.Auth.SessionDuration = 24 * time.Hour
	}
	if c.Auth.LoginRatePerMinute == 0 {
		c.Auth.LoginRatePerMinute = 10
	}

	if c.Snapshot.RecordDelimiter == "" {
		c.Snapshot.RecordDelimiter = "|"
	}
	if c.Snapshot.FieldDelimiter == "" {
		c.Snapshot.FieldDelimiter = ","
	}
	if c.Snapshot.KeyValueDelimiter == "" {
		c.Snapshot.KeyValueDelimiter = ":"
	}

	if c.Polling.ActiveInterval == 0 {
		c.Polling.ActiveInterval = time.Second
	}
	if c.Polling.IdleInterval == 0 {
		c.Polling.IdleInterval = 10 * time.Second
	}

	if c.Commands.Prefix == "" {
		c.Commands.Prefix = "!playermanager"
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := c.Server.ProxyPrefixes(); err != nil {
		return err
	}

	if c.Log.Format != LogFormatJSON && c.Log.Format != LogFormatText {
		return fmt.Errorf("log.format must be %q or %q, got %q", LogFormatJSON, LogFormatText, c.Log.Format)
	}

	switch c.Database.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Database.Dir) == "" {
			return errors.New("database.dir is required for the file backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.Database.Redis.URL) == "" {
			return errors.New("database.redis.url is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("database.backend must be %q, %q or %q, got %q",
			BackendFile, BackendRedis, BackendMemory, c.Database.Backend)
	}

	if c.Database.SaveInterval < 0 || c.Database.ShutdownTimeout < 0 || c.Database.ShutdownAttempts < 0 {
		return errors.New("database timings must not be negative")
	}
	if c.Auth.SessionDuration < 0 {
		return errors.New("auth.session_duration must not be negative")
	}
	if c.Auth.LoginRatePerMinute < 0 {
		return errors.New("auth.login_rate_per_minute must not be negative")
	}
	if err := c.Snapshot.Delimiters().Validate(); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if c.Polling.ActiveInterval < 0 || c.Polling.IdleInterval < 0 {
		return errors.New("polling intervals must not be negative")
	}
	if strings.TrimSpace(c.Commands.Prefix) == "" {
		return errors.New("commands.prefix must not be blank")
	}
	return nil
}
