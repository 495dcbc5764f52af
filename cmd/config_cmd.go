package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/faqclaw/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and manage configuration",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configPathCmd())
	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configSetSecretCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, _ := json.MarshalIndent(redactConfig(cfg), "", "  ")
			fmt.Println(string(data))
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := config.Load(cfgPath); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			fmt.Printf("Config at %s is valid.\n", cfgPath)
			return nil
		},
	}
}

func configSetSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <name>",
		Short: "Store a secret in the OS keyring and print its config reference",
		Long: `Prompt for a secret value, store it in the OS keyring under <name> and
print the reference to use in the config file, e.g.

  "channels": {"telegram": {"token": "keyring:telegram"}}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := promptPassword("Secret value", "")
			if err != nil {
				return err
			}
			if value == "" {
				return fmt.Errorf("empty secret")
			}
			ref, err := config.StoreSecret(args[0], value)
			if err != nil {
				return err
			}
			fmt.Println(ref)
			return nil
		},
	}
}

// redactConfig returns a JSON-safe copy with secrets masked.
func redactConfig(cfg *config.Config) map[string]any {
	data, _ := json.Marshal(cfg)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	redactMap(raw)
	return raw
}

var secretKeys = map[string]bool{
	"token": true, "botToken": true, "appToken": true,
	"password": true, "secretKey": true, "accessKey": true,
	"authKey": true, "postgresDsn": true, "headers": true,
}

func redactMap(m map[string]any) {
	for k, v := range m {
		if secretKeys[k] {
			m[k] = redactValue(v)
		} else if sub, ok := v.(map[string]any); ok {
			redactMap(sub)
		}
	}
}

func redactValue(v any) any {
	switch val := v.(type) {
	case string:
		switch {
		case val == "" || config.IsSecretRef(val):
			return val
		case len(val) > 8:
			return val[:4] + "****" + val[len(val)-4:]
		default:
			return "****"
		}
	case map[string]any:
		for k, sub := range val {
			val[k] = redactValue(sub)
		}
		return val
	}
	return v
}
