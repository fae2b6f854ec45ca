package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fumiya-kume/cra/pkg/config"
)

const redacted = "********"

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cra configuration",
		Long: `Manage cra configuration settings.

Configuration files are searched in the following order:
  1. $CRA_CONFIG (if set)
  2. ./.cra.yaml
  3. ~/.cra.yaml
  4. ~/.config/cra/config.yaml`,
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigValidateCmd(a), newConfigPathCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with default settings",
		Long:  "Write the default configuration. Without a path it goes to ~/.config/cra/config.yaml.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) > 0 {
				path = args[0]
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
				path = filepath.Join(home, ".config", "cra", "config.yaml")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
			}
			if err := config.CreateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			fmt.Fprintf(a.out, "Configuration file created at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// redactSecrets returns a copy safe to print
func redactSecrets(cfg *config.Config) *config.Config {
	c := cfg.Clone()
	for _, s := range []*string{
		&c.LLM.AnthropicAPIKey,
		&c.LLM.OpenAIAPIKey,
		&c.GitHub.Token,
		&c.GitHub.WebhookSecret,
		&c.GitLab.Token,
		&c.GitLab.WebhookToken,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	return c
}

func newConfigShowCmd(a *app) *cobra.Command {
	var showSecrets bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Display the configuration after defaults, the config file and environment overrides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if !showSecrets {
				cfg = redactSecrets(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration: %w", err)
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print tokens and API keys")
	return cmd
}

func newConfigValidateCmd(a *app) *cobra.Command {
	var strict, complete bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long:  "Validate the configuration. --strict warns about missing credentials; --complete adds deployment checks.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := config.ValidationLevelBasic
			switch {
			case complete:
				level = config.ValidationLevelComplete
			case strict:
				level = config.ValidationLevelStrict
			}

			result := config.NewConfigValidator(level).ValidateConfig(a.cfg)
			for _, w := range result.Warnings {
				fmt.Fprintf(a.out, "warning: %s\n", w)
			}
			if result.HasErrors() {
				return fmt.Errorf("configuration validation failed: %w", result.Errors[0])
			}
			fmt.Fprintln(a.out, "Configuration is valid ✓")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "warn about missing credentials")
	cmd.Flags().BoolVar(&complete, "complete", false, "also check production deployment settings")
	return cmd
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path := a.loader.GetConfigPath(); path != "" {
				fmt.Fprintln(a.out, path)
				return nil
			}
			fmt.Fprintln(a.out, "No configuration file found; using defaults")
			return nil
		},
	}
}
