package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config keys.
const (
	KeyAPIBaseURL = "api-base-url"
	KeyCSRFToken  = "csrf-token"
	KeySession    = "session"
	KeyRealtime   = "realtime"
)

// Environment variable fallbacks.
const (
	EnvAPIBaseURL = "SURROCARE_API_BASE_URL"
	EnvCSRFToken  = "SURROCARE_CSRF_TOKEN"
	EnvSession    = "SURROCARE_SESSION"
	EnvRealtime   = "SURROCARE_REALTIME"
)

// ErrInvalidKey indicates a config key that cannot be stored in the
// key=value file format.
var ErrInvalidKey = errors.New("invalid config key")

// ErrInvalidSyntax indicates a config file line that is not key=value.
var ErrInvalidSyntax = errors.New("invalid config syntax")

// Keys lists every key the CLI accepts for `config set`.
var Keys = []string{KeyAPIBaseURL, KeyCSRFToken, KeySession, KeyRealtime}

// Config holds user configuration loaded from ~/.config/surrocare/config.
type Config struct {
	APIBaseURL string
	CSRFToken  string
	Session    string
	Realtime   bool
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/surrocare.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "surrocare"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "surrocare"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns a default Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	values := make(map[string]string)
	if data, err := parseFile(p); err == nil {
		values = data
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// Environment variable fallback per key (only when not set in the file).
	lookup := func(key, env string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return os.Getenv(env)
	}

	cfg.APIBaseURL = lookup(KeyAPIBaseURL, EnvAPIBaseURL)
	cfg.CSRFToken = lookup(KeyCSRFToken, EnvCSRFToken)
	cfg.Session = lookup(KeySession, EnvSession)
	cfg.Realtime = realtimeEnabled(lookup(KeyRealtime, EnvRealtime))

	return cfg, nil
}

// realtimeEnabled interprets the realtime toggle. The channel is on unless
// the value explicitly turns it off.
func realtimeEnabled(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "off", "false", "0", "no":
		return false
	default:
		return true
	}
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w at line %d: %q", ErrInvalidSyntax, lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		data[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n") || strings.Contains(value, "\n") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	p, err := path()
	if err != nil {
		return err
	}

	// Ensure config directory exists.
	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	// Read existing config (if any).
	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}

	// Update value.
	existing[key] = value

	// Write back.
	return writeFile(p, existing)
}

// writeFile writes the config map to a file. The session and CSRF values are
// credentials, so the file is not group or world readable.
func writeFile(p string, data map[string]string) error {
	// #nosec G304 -- config path is constructed from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for key, value := range data {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ValidKey reports whether key is one the CLI knows how to use.
func ValidKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// ValidWatchDir checks that a directory path is usable as a lead drop
// directory: it exists (created when missing), is a directory, and is
// readable. Returns nil if valid, or an error describing the problem.
func ValidWatchDir(d string) error {
	if d == "" {
		return fmt.Errorf("watch directory cannot be empty")
	}

	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			// Directory doesn't exist - try to create it.
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user drop dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	// Check readability by opening the directory.
	f, err := os.Open(d) // #nosec G304 -- path was just validated as a directory
	if err != nil {
		return fmt.Errorf("directory is not readable: %w", err)
	}
	_ = f.Close()

	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return home
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the configuration directory path (exported for testing).
func Dir() (string, error) {
	return dir()
}

// ParseFile reads a key=value config file (exported for testing).
func ParseFile(p string) (map[string]string, error) {
	return parseFile(p)
}
