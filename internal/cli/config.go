package cli

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/config"
)

// keyEnvVars maps config keys to their environment variable fallbacks.
var keyEnvVars = map[string]string{
	config.KeyAPIBaseURL: config.EnvAPIBaseURL,
	config.KeyCSRFToken:  config.EnvCSRFToken,
	config.KeySession:    config.EnvSession,
	config.KeyRealtime:   config.EnvRealtime,
}

// secretKeys lists config keys whose values are credentials. list masks
// them; get prints them raw for scripting.
var secretKeys = map[string]bool{
	config.KeyCSRFToken: true,
	config.KeySession:   true,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/surrocare/config.
Settings can also be overridden via environment variables.

Supported settings:
  api-base-url    Backend API base URL (env: SURROCARE_API_BASE_URL)
  csrf-token      CSRF token sent on writes (env: SURROCARE_CSRF_TOKEN)
  session         Session cookie value (env: SURROCARE_SESSION)
  realtime        Realtime notifications on/off (env: SURROCARE_REALTIME)`,
		Example: `  surrocare config set api-base-url https://agency.example.com/api
  surrocare config set session 9f3b2c...
  surrocare config get api-base-url
  surrocare config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Supported keys:
  api-base-url    Backend API base URL
  csrf-token      CSRF token sent on writes
  session         Session cookie value
  realtime        Realtime notifications on/off`,
		Example: `  surrocare config set api-base-url https://agency.example.com/api
  surrocare config set realtime off`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			return runConfigSet(env, key, value)
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  surrocare config get api-base-url`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable
overrides. Credential values are masked.`,
		Example: `  surrocare config list`,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	// Validate key.
	if !config.ValidKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %v)", config.ErrInvalidKey, key, config.Keys)
	}

	// Key-specific validation.
	switch key {
	case config.KeyAPIBaseURL:
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid api-base-url %q (expected http(s)://host[:port]/api)", value)
		}
	case config.KeyRealtime:
		v := strings.ToLower(strings.TrimSpace(value))
		switch v {
		case "on", "off", "true", "false", "1", "0", "yes", "no":
			value = v
		default:
			return fmt.Errorf("invalid realtime value %q (use on or off)", value)
		}
	}

	// Save to config file.
	if err := config.Save(key, value); err != nil {
		return err
	}

	if secretKeys[key] {
		fmt.Fprintf(env.Stderr, "Set %s\n", key)
	} else {
		fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	}
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	// Validate key.
	if !config.ValidKey(key) {
		return fmt.Errorf("%w: %q (valid keys: %v)", config.ErrInvalidKey, key, config.Keys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		value = env.Getenv(keyEnvVars[key])
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	// Add environment variable values for completeness.
	for key, envVar := range keyEnvVars {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(envVar); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := data[key]
		if secretKeys[key] && value != "" {
			value = "(set)"
		}
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, value)
	}

	return nil
}
