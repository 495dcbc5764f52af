package config

import (
	"log/slog"
	"os"
	"strconv"
)

// applyEnvOverrides lets deployments set connection details and secrets
// without editing the file. Setting a channel token also enables it.
func (c *Config) applyEnvOverrides() {
	envStr("FAQCLAW_GATEWAY_HOST", &c.Gateway.Host)
	envInt("FAQCLAW_GATEWAY_PORT", &c.Gateway.Port)
	envStr("FAQCLAW_GATEWAY_TOKEN", &c.Gateway.Token)

	envStr("FAQCLAW_KNOWLEDGE_SOURCE", &c.Knowledge.Source)
	envStr("FAQCLAW_KNOWLEDGE_PATH", &c.Knowledge.Path)
	envStr("FAQCLAW_POSTGRES_DSN", &c.Knowledge.PostgresDSN)
	envStr("FAQCLAW_REDIS_ADDR", &c.Knowledge.Redis.Addr)
	envStr("FAQCLAW_REDIS_PASSWORD", &c.Knowledge.Redis.Password)
	envStr("FAQCLAW_S3_BUCKET", &c.Knowledge.S3.Bucket)
	envStr("FAQCLAW_S3_ENDPOINT", &c.Knowledge.S3.Endpoint)

	envFloat("FAQCLAW_MATCH_THRESHOLD", &c.Match.Threshold)

	if envStr("FAQCLAW_TELEGRAM_TOKEN", &c.Channels.Telegram.Token) {
		c.Channels.Telegram.Enabled = true
	}
	if envStr("FAQCLAW_DISCORD_TOKEN", &c.Channels.Discord.Token) {
		c.Channels.Discord.Enabled = true
	}
	bot := envStr("FAQCLAW_SLACK_BOT_TOKEN", &c.Channels.Slack.BotToken)
	app := envStr("FAQCLAW_SLACK_APP_TOKEN", &c.Channels.Slack.AppToken)
	if bot && app {
		c.Channels.Slack.Enabled = true
	}

	envStr("FAQCLAW_TSNET_HOSTNAME", &c.Tailscale.Hostname)
	envStr("FAQCLAW_TSNET_AUTH_KEY", &c.Tailscale.AuthKey)

	if envStr("FAQCLAW_OTEL_ENDPOINT", &c.Telemetry.Endpoint) {
		c.Telemetry.Enabled = true
	}

	envStr("FAQCLAW_LOG_LEVEL", &c.Log.Level)
	envStr("FAQCLAW_LOG_FORMAT", &c.Log.Format)
}

func envStr(key string, dst *string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	*dst = v
	return true
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring invalid integer env override", "key", key, "value", v)
		return
	}
	*dst = n
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring invalid number env override", "key", key, "value", v)
		return
	}
	*dst = f
}
