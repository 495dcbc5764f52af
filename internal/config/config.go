// Package config loads the faqclaw configuration file (JSON5), applies
// environment overrides and resolves keyring-backed secrets.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/titanous/json5"

	"github.com/nextlevelbuilder/faqclaw/internal/match"
	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

// DefaultConfigPath is used when neither --config nor FAQCLAW_CONFIG is set.
const DefaultConfigPath = "~/.faqclaw/config.json5"

// Config is the root configuration.
type Config struct {
	Match     MatchConfig     `json:"match"`
	Knowledge KnowledgeConfig `json:"knowledge"`
	Replies   RepliesConfig   `json:"replies"`
	Gateway   GatewayConfig   `json:"gateway"`
	Channels  ChannelsConfig  `json:"channels"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Tailscale TailscaleConfig `json:"tailscale"`
	Log       LogConfig       `json:"log"`

	// secrets holds keyring references replaced during Load, so Save can
	// write the reference back instead of the resolved value.
	secrets map[string]secretRef
}

// MatchConfig tunes the matcher and fallback suggestions.
type MatchConfig struct {
	Threshold       float64 `json:"threshold"`
	TokenThreshold  float64 `json:"tokenThreshold"`
	StringWeight    float64 `json:"stringWeight"`
	KeywordWeight   float64 `json:"keywordWeight"`
	MinKeywordLen   int     `json:"minKeywordLen"`
	Workers         int     `json:"workers,omitempty"`
	CacheSize       int     `json:"cacheSize,omitempty"`
	Suggestions     int     `json:"suggestions"`
	SuggestMinScore float64 `json:"suggestMinScore"`
}

// Options converts to matcher options.
func (m MatchConfig) Options() match.Options {
	return match.Options{
		Threshold:      m.Threshold,
		TokenThreshold: m.TokenThreshold,
		StringWeight:   m.StringWeight,
		KeywordWeight:  m.KeywordWeight,
		MinKeywordLen:  m.MinKeywordLen,
		Workers:        m.Workers,
		CacheSize:      m.CacheSize,
	}
}

// KnowledgeConfig selects where FAQ entries live.
type KnowledgeConfig struct {
	Source      string      `json:"source"`
	Path        string      `json:"path,omitempty"`
	PostgresDSN string      `json:"postgresDsn,omitempty"`
	Postgres    PoolConfig  `json:"postgres,omitempty"`
	Redis       RedisConfig `json:"redis,omitempty"`
	S3          S3Config    `json:"s3,omitempty"`
	Filter      string      `json:"filter,omitempty"`  // CEL pre-filter
	Refresh     string      `json:"refresh,omitempty"` // cron expression for periodic reload
	Watch       bool        `json:"watch"`             // file source: reload on change
}

// PoolConfig sizes the Postgres connection pool. Zero keeps the store defaults.
type PoolConfig struct {
	MaxOpenConns   int `json:"maxOpenConns,omitempty"`
	MaxIdleConns   int `json:"maxIdleConns,omitempty"`
	ConnMaxIdleSec int `json:"connMaxIdleSec,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Key      string `json:"key,omitempty"`
}

type S3Config struct {
	Bucket    string `json:"bucket,omitempty"`
	Key       string `json:"key,omitempty"`
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	AccessKey string `json:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty"`
}

// StoreConfig maps to the store factory input.
func (k KnowledgeConfig) StoreConfig() store.StoreConfig {
	return store.StoreConfig{
		Source:      k.Source,
		Path:        ExpandHome(k.Path),
		PostgresDSN: k.PostgresDSN,

		PostgresMaxOpenConns:    k.Postgres.MaxOpenConns,
		PostgresMaxIdleConns:    k.Postgres.MaxIdleConns,
		PostgresConnMaxIdleTime: time.Duration(k.Postgres.ConnMaxIdleSec) * time.Second,

		RedisAddr:     k.Redis.Addr,
		RedisPassword: k.Redis.Password,
		RedisDB:       k.Redis.DB,
		RedisKey:      k.Redis.Key,
		S3Bucket:      k.S3.Bucket,
		S3Key:         k.S3.Key,
		S3Region:      k.S3.Region,
		S3Endpoint:    k.S3.Endpoint,
		S3AccessKey:   k.S3.AccessKey,
		S3SecretKey:   k.S3.SecretKey,
	}
}

// RepliesConfig overrides the stock reply texts. Blank fields keep defaults.
type RepliesConfig struct {
	Empty            string `json:"empty,omitempty"`
	NoAnswer         string `json:"noAnswer,omitempty"`
	Fallback         string `json:"fallback,omitempty"`
	Error            string `json:"error,omitempty"`
	SuggestionHeader string `json:"suggestionHeader,omitempty"`
}

type GatewayConfig struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	Token          string   `json:"token,omitempty"`
	RateLimitRPM   int      `json:"rateLimitRpm"`   // 0 disables rate limiting
	RateLimitBurst int      `json:"rateLimitBurst"` // defaults to RateLimitRPM
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// Addr returns host:port.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

type ChannelsConfig struct {
	// DebounceMs merges rapid messages from one sender into one question.
	// 0 disables merging.
	DebounceMs int            `json:"debounceMs,omitempty"`
	Telegram   TelegramConfig `json:"telegram"`
	Discord    DiscordConfig  `json:"discord"`
	Slack      SlackConfig    `json:"slack"`
}

// AnyEnabled reports whether at least one chat channel is enabled.
func (c ChannelsConfig) AnyEnabled() bool {
	return c.Telegram.Enabled || c.Discord.Enabled || c.Slack.Enabled
}

type TelegramConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token,omitempty"`
	AllowFrom []string `json:"allowFrom,omitempty"`
}

type DiscordConfig struct {
	Enabled   bool     `json:"enabled"`
	Token     string   `json:"token,omitempty"`
	AllowFrom []string `json:"allowFrom,omitempty"`
}

type SlackConfig struct {
	Enabled   bool     `json:"enabled"`
	BotToken  string   `json:"botToken,omitempty"`
	AppToken  string   `json:"appToken,omitempty"`
	AllowFrom []string `json:"allowFrom,omitempty"`
}

type TelemetryConfig struct {
	Enabled     bool              `json:"enabled"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"serviceName,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type TailscaleConfig struct {
	Hostname  string `json:"hostname,omitempty"`
	AuthKey   string `json:"authKey,omitempty"`
	StateDir  string `json:"stateDir,omitempty"`
	Ephemeral bool   `json:"ephemeral,omitempty"`
	EnableTLS bool   `json:"enableTls,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text or json
}

// Default returns a config with every field at its default.
func Default() *Config {
	opts := match.DefaultOptions()
	return &Config{
		Match: MatchConfig{
			Threshold:       opts.Threshold,
			TokenThreshold:  opts.TokenThreshold,
			StringWeight:    opts.StringWeight,
			KeywordWeight:   opts.KeywordWeight,
			MinKeywordLen:   opts.MinKeywordLen,
			Workers:         4,
			CacheSize:       1024,
			Suggestions:     3,
			SuggestMinScore: 40,
		},
		Knowledge: KnowledgeConfig{
			Source: store.SourceFile,
			Path:   "~/.faqclaw/faq.json5",
			Watch:  true,
		},
		Gateway: GatewayConfig{
			Host:           "127.0.0.1",
			Port:           18790,
			RateLimitRPM:   60,
			RateLimitBurst: 10,
		},
		Telemetry: TelemetryConfig{
			Protocol:    "grpc",
			ServiceName: "faqclaw",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of Default, applies FAQCLAW_* environment
// overrides, resolves keyring secrets and validates. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ExpandHome(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Match.Options().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("match: %w", err))
	}
	if c.Match.SuggestMinScore < 0 || c.Match.SuggestMinScore > 100 {
		errs = append(errs, fmt.Errorf("match.suggestMinScore must be within [0, 100], got %v", c.Match.SuggestMinScore))
	}

	k := c.Knowledge
	if k.Source != "" && !slices.Contains(store.KnownSources, k.Source) {
		errs = append(errs, fmt.Errorf("knowledge.source %q is not one of %s", k.Source, strings.Join(store.KnownSources, ", ")))
	}
	switch k.Source {
	case "", store.SourceFile, store.SourceSQLite:
		if k.Path == "" {
			errs = append(errs, fmt.Errorf("knowledge.path is required for source %q", k.Source))
		}
	case store.SourcePostgres:
		if k.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("knowledge.postgresDsn is required for source postgres"))
		}
		if p := k.Postgres; p.MaxOpenConns < 0 || p.MaxIdleConns < 0 || p.ConnMaxIdleSec < 0 {
			errs = append(errs, fmt.Errorf("knowledge.postgres pool settings must not be negative"))
		}
	case store.SourceRedis:
		if k.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("knowledge.redis.addr is required for source redis"))
		}
	case store.SourceS3:
		if k.S3.Bucket == "" {
			errs = append(errs, fmt.Errorf("knowledge.s3.bucket is required for source s3"))
		}
	}
	if k.Refresh != "" && !gronx.New().IsValid(k.Refresh) {
		errs = append(errs, fmt.Errorf("knowledge.refresh: invalid cron expression %q", k.Refresh))
	}

	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("gateway.port out of range: %d", c.Gateway.Port))
	}
	if c.Gateway.RateLimitRPM < 0 || c.Gateway.RateLimitBurst < 0 {
		errs = append(errs, fmt.Errorf("gateway rate limits must not be negative"))
	}

	if c.Channels.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("channels.debounceMs must not be negative"))
	}
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		errs = append(errs, fmt.Errorf("channels.telegram.token is required when enabled"))
	}
	if c.Channels.Discord.Enabled && c.Channels.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("channels.discord.token is required when enabled"))
	}
	if c.Channels.Slack.Enabled && (c.Channels.Slack.BotToken == "" || c.Channels.Slack.AppToken == "") {
		errs = append(errs, fmt.Errorf("channels.slack.botToken and appToken are required when enabled"))
	}

	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("telemetry.protocol must be grpc or http, got %q", c.Telemetry.Protocol))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Save writes cfg to path atomically. Secrets loaded from the keyring are
// written back as their keyring reference.
func Save(path string, cfg *Config) error {
	out := *cfg
	out.restoreSecretRefs(cfg.secrets)

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')

	path = ExpandHome(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ResolvePath returns the config path: explicit flag, then FAQCLAW_CONFIG,
// then DefaultConfigPath.
func ResolvePath(flag string) string {
	if flag != "" {
		return ExpandHome(flag)
	}
	if env := os.Getenv("FAQCLAW_CONFIG"); env != "" {
		return ExpandHome(env)
	}
	return ExpandHome(DefaultConfigPath)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
