package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zalando/go-keyring"

	"github.com/nextlevelbuilder/faqclaw/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json5")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json5"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Match.Threshold != 70 || cfg.Gateway.Port != 18790 {
		t.Errorf("unexpected defaults: threshold=%v port=%d", cfg.Match.Threshold, cfg.Gateway.Port)
	}
}

func TestLoadJSON5(t *testing.T) {
	path := writeConfig(t, `{
		// tighter matching for the staff bot
		match: { threshold: 75, suggestions: 5 },
		knowledge: { source: "sqlite", path: "/tmp/faq.db", refresh: "*/10 * * * *" },
		gateway: { port: 9000, },
		channels: { telegram: { enabled: true, token: "123:abc", allowFrom: ["42"] } },
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Match.Threshold != 75 || cfg.Match.Suggestions != 5 {
		t.Errorf("match = %+v", cfg.Match)
	}
	if cfg.Match.StringWeight != 0.4 || cfg.Match.KeywordWeight != 0.6 {
		t.Errorf("unset weights should keep defaults, got %v/%v", cfg.Match.StringWeight, cfg.Match.KeywordWeight)
	}
	if cfg.Gateway.Port != 9000 || cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("gateway = %+v", cfg.Gateway)
	}
	sc := cfg.Knowledge.StoreConfig()
	if sc.Source != store.SourceSQLite || sc.Path != "/tmp/faq.db" {
		t.Errorf("StoreConfig = %+v", sc)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.AllowFrom[0] != "42" {
		t.Errorf("telegram = %+v", cfg.Channels.Telegram)
	}
}

func TestLoadZeroThresholds(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{match: {threshold: 0, tokenThreshold: 0, suggestMinScore: 0}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts := cfg.Match.Options()
	if opts.Threshold != 0 || opts.TokenThreshold != 0 {
		t.Errorf("thresholds = %v/%v, want explicit zeros kept", opts.Threshold, opts.TokenThreshold)
	}
	if cfg.Match.SuggestMinScore != 0 {
		t.Errorf("SuggestMinScore = %v, want 0", cfg.Match.SuggestMinScore)
	}
	if opts.StringWeight != 0.4 || opts.KeywordWeight != 0.6 {
		t.Errorf("unset weights should keep defaults, got %v/%v", opts.StringWeight, opts.KeywordWeight)
	}
}

func TestLoadPostgresPool(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{knowledge: {
		source: "postgres",
		postgresDsn: "postgres://faq@localhost/faq",
		postgres: {maxOpenConns: 8, maxIdleConns: 3, connMaxIdleSec: 90},
	}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sc := cfg.Knowledge.StoreConfig()
	if sc.PostgresMaxOpenConns != 8 || sc.PostgresMaxIdleConns != 3 {
		t.Errorf("pool = %d/%d, want 8/3", sc.PostgresMaxOpenConns, sc.PostgresMaxIdleConns)
	}
	if sc.PostgresConnMaxIdleTime != 90*time.Second {
		t.Errorf("PostgresConnMaxIdleTime = %v, want 90s", sc.PostgresConnMaxIdleTime)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FAQCLAW_GATEWAY_PORT", "9100")
	t.Setenv("FAQCLAW_MATCH_THRESHOLD", "80")
	t.Setenv("FAQCLAW_TELEGRAM_TOKEN", "env-token")
	t.Setenv("FAQCLAW_KNOWLEDGE_SOURCE", "redis")
	t.Setenv("FAQCLAW_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(writeConfig(t, `{gateway: {port: 1234}}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 9100 {
		t.Errorf("Port = %d, want env override 9100", cfg.Gateway.Port)
	}
	if cfg.Match.Threshold != 80 {
		t.Errorf("Threshold = %v, want 80", cfg.Match.Threshold)
	}
	if !cfg.Channels.Telegram.Enabled || cfg.Channels.Telegram.Token != "env-token" {
		t.Errorf("telegram = %+v", cfg.Channels.Telegram)
	}
	if cfg.Knowledge.Source != "redis" || cfg.Knowledge.Redis.Addr != "localhost:6379" {
		t.Errorf("knowledge = %+v", cfg.Knowledge)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"threshold", func(c *Config) { c.Match.Threshold = 120 }, "match:"},
		{"weights", func(c *Config) { c.Match.StringWeight = 0.7 }, "sum to 1"},
		{"source", func(c *Config) { c.Knowledge.Source = "mongo" }, "knowledge.source"},
		{"postgres_dsn", func(c *Config) { c.Knowledge.Source = "postgres" }, "postgresDsn"},
		{"postgres_pool", func(c *Config) {
			c.Knowledge.Source, c.Knowledge.PostgresDSN = "postgres", "postgres://x"
			c.Knowledge.Postgres.MaxOpenConns = -1
		}, "knowledge.postgres pool"},
		{"refresh", func(c *Config) { c.Knowledge.Refresh = "every day" }, "cron"},
		{"port", func(c *Config) { c.Gateway.Port = 70000 }, "gateway.port"},
		{"telegram", func(c *Config) { c.Channels.Telegram.Enabled = true }, "telegram.token"},
		{"slack", func(c *Config) { c.Channels.Slack.Enabled = true; c.Channels.Slack.BotToken = "x" }, "slack"},
		{"protocol", func(c *Config) { c.Telemetry.Protocol = "udp" }, "telemetry.protocol"},
		{"log_level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	if _, err := Load(writeConfig(t, `{match: {threshold: -1}}`)); err == nil {
		t.Error("expected error for negative threshold")
	}
	if _, err := Load(writeConfig(t, `{match: `)); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json5")
	cfg := Default()
	cfg.Match.Threshold = 65
	cfg.Replies.Fallback = "Please ask the office."
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Match.Threshold != 65 || loaded.Replies.Fallback != "Please ask the office." {
		t.Errorf("round trip lost values: %+v %+v", loaded.Match, loaded.Replies)
	}
}

func TestKeyringSecrets(t *testing.T) {
	keyring.MockInit()

	ref, err := StoreSecret("telegram", "123:secret")
	if err != nil {
		t.Fatalf("StoreSecret: %v", err)
	}
	if ref != "keyring:telegram" || !IsSecretRef(ref) {
		t.Fatalf("ref = %q", ref)
	}

	path := writeConfig(t, `{channels: {telegram: {enabled: true, token: "keyring:telegram"}}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Channels.Telegram.Token != "123:secret" {
		t.Errorf("Token = %q, want resolved secret", cfg.Channels.Telegram.Token)
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "123:secret") {
		t.Error("saved config leaked the resolved secret")
	}
	if !strings.Contains(string(data), `"keyring:telegram"`) {
		t.Error("saved config lost the keyring reference")
	}

	if _, err := Load(writeConfig(t, `{gateway: {token: "keyring:missing"}}`)); err == nil {
		t.Error("expected error for missing keyring entry")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("FAQCLAW_CONFIG", "/etc/faqclaw.json5")
	if got := ResolvePath("/explicit.json5"); got != "/explicit.json5" {
		t.Errorf("flag path = %q", got)
	}
	if got := ResolvePath(""); got != "/etc/faqclaw.json5" {
		t.Errorf("env path = %q", got)
	}
	t.Setenv("FAQCLAW_CONFIG", "")
	if got := ResolvePath(""); !strings.HasSuffix(got, filepath.Join(".faqclaw", "config.json5")) {
		t.Errorf("default path = %q", got)
	}
}

func TestDiff(t *testing.T) {
	old := Default()
	old.Knowledge.Path = "/kb/faq.yaml"

	cur := Default()
	cur.Knowledge.Path = "/kb/faq.yaml"
	if ch := Diff(old, cur); ch.Live() || len(ch.Restart) != 0 {
		t.Errorf("Diff(equal) = %+v, want no change", ch)
	}

	cur.Match.Threshold = 80
	cur.Knowledge.Filter = `category == "fees"`
	cur.Gateway.Port = 9999
	cur.Channels.Telegram.Enabled = true
	ch := Diff(old, cur)
	if !ch.Match || !ch.Filter || ch.Replies || ch.Log {
		t.Errorf("Diff live flags = match:%v filter:%v replies:%v log:%v", ch.Match, ch.Filter, ch.Replies, ch.Log)
	}
	if diff := cmp.Diff([]string{"gateway", "channels"}, ch.Restart); diff != "" {
		t.Errorf("Restart mismatch (-want +got):\n%s", diff)
	}

	cur = Default()
	cur.Knowledge.Path = "/kb/other.yaml"
	if diff := cmp.Diff([]string{"knowledge"}, Diff(old, cur).Restart); diff != "" {
		t.Errorf("knowledge Restart mismatch (-want +got):\n%s", diff)
	}
}

func TestWatcherReloads(t *testing.T) {
	path := writeConfig(t, `{match: {threshold: 70}}`)
	initial, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	w, err := NewWatcher(path, initial)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	got := make(chan Change, 4)
	w.OnChange(func(ch Change) { got <- ch })
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{match: {threshold: 85}}`), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case ch := <-got:
		if !ch.Match {
			t.Errorf("Change.Match = false, want true")
		}
		if ch.Old.Match.Threshold != 70 || ch.New.Match.Threshold != 85 {
			t.Errorf("threshold %v -> %v, want 70 -> 85", ch.Old.Match.Threshold, ch.New.Match.Threshold)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	w.Stop()
}
