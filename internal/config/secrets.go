package config

import (
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name for stored secrets.
const KeyringService = "faqclaw"

// KeyringPrefix marks a secret field whose value lives in the OS keyring:
//
//	token: "keyring:telegram"
const KeyringPrefix = "keyring:"

type secretRef struct {
	ref   string // original "keyring:<name>" value
	value string // resolved secret
}

// secretFields lists every field that may hold a secret, keyed by its
// dotted config path.
func (c *Config) secretFields() map[string]*string {
	return map[string]*string{
		"gateway.token":            &c.Gateway.Token,
		"knowledge.postgresDsn":    &c.Knowledge.PostgresDSN,
		"knowledge.redis.password": &c.Knowledge.Redis.Password,
		"knowledge.s3.secretKey":   &c.Knowledge.S3.SecretKey,
		"channels.telegram.token":  &c.Channels.Telegram.Token,
		"channels.discord.token":   &c.Channels.Discord.Token,
		"channels.slack.botToken":  &c.Channels.Slack.BotToken,
		"channels.slack.appToken":  &c.Channels.Slack.AppToken,
		"tailscale.authKey":        &c.Tailscale.AuthKey,
	}
}

// resolveSecrets replaces keyring references with their stored values.
func (c *Config) resolveSecrets() error {
	for field, ptr := range c.secretFields() {
		name, ok := strings.CutPrefix(*ptr, KeyringPrefix)
		if !ok {
			continue
		}
		if name == "" {
			return fmt.Errorf("%s: empty keyring reference", field)
		}
		value, err := keyring.Get(KeyringService, name)
		if err != nil {
			return fmt.Errorf("%s: keyring lookup %q: %w", field, name, err)
		}
		if c.secrets == nil {
			c.secrets = make(map[string]secretRef)
		}
		c.secrets[field] = secretRef{ref: *ptr, value: value}
		*ptr = value
	}
	return nil
}

// restoreSecretRefs puts keyring references back for fields that still
// hold the value resolved at load time.
func (c *Config) restoreSecretRefs(refs map[string]secretRef) {
	fields := c.secretFields()
	for field, r := range refs {
		if ptr, ok := fields[field]; ok && *ptr == r.value {
			*ptr = r.ref
		}
	}
	c.secrets = nil
}

// StoreSecret saves value in the OS keyring and returns the reference to
// put in the config file.
func StoreSecret(name, value string) (string, error) {
	if err := keyring.Set(KeyringService, name, value); err != nil {
		return "", fmt.Errorf("keyring store %q: %w", name, err)
	}
	return KeyringPrefix + name, nil
}

// IsSecretRef reports whether v is a keyring reference.
func IsSecretRef(v string) bool {
	return strings.HasPrefix(v, KeyringPrefix)
}
