package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/braindump/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/braindump/config.yaml.

Keys are flat, for example backend, data_dir, collection, gemini_model,
default_tags, default_urgency and output_format. Run 'braindump config keys'
for the full list. Prefer 'braindump auth login' over storing credentials
in this file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		ctx := cmd.Context()
		shown := c.Display()
		if structuredOutputRequested() {
			return printResult(ctx, shown)
		}

		path, _ := configPath()
		printf(ctx, "Config: %s\n", path)
		for _, key := range config.Keys() {
			if shown[key] != "" {
				printf(ctx, "  %s: %s\n", key, shown[key])
			}
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keys := config.Keys()
		if structuredOutputRequested() {
			return printResult(ctx, keys)
		}

		printf(ctx, "Supported keys:\n")
		for _, key := range keys {
			printf(ctx, "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	c, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}
	if err := c.Set(key, value); err != nil {
		return err
	}
	if err := saveConfig(c); err != nil {
		return err
	}

	ctx := cmd.Context()
	if structuredOutputRequested() {
		if config.IsSecret(key) {
			value = config.MaskSecret(value)
		}
		return printResult(ctx, map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	if config.IsSecret(key) {
		notef(ctx, "Note: %s is stored in plain text. 'braindump auth login' keeps it in the keyring.\n", key)
	}
	printf(ctx, "Updated %s\n", key)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	c, err := loadConfigFromFlag()
	if err != nil {
		return formatConfigLoadError(err)
	}
	if err := c.Unset(key); err != nil {
		return err
	}
	if err := saveConfig(c); err != nil {
		return err
	}

	ctx := cmd.Context()
	if structuredOutputRequested() {
		return printResult(ctx, map[string]string{
			"status": "unset",
			"key":    key,
		})
	}
	printf(ctx, "Unset %s\n", key)
	return nil
}

func saveConfig(c *config.Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.Save(path)
}
