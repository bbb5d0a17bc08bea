package cli

import (
	"fmt"

	"github.com/alnah/go-surrocare/internal/api"
	"github.com/alnah/go-surrocare/internal/config"
	"github.com/alnah/go-surrocare/internal/notice"
)

// loadConfig loads user configuration. Load failures are downgraded to a
// warning so commands still run with defaults and environment variables.
func loadConfig(env *Env) config.Config {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

// requireSession fails fast when no session cookie is configured, before
// any network call is attempted.
func requireSession(cfg config.Config) error {
	if cfg.Session == "" {
		return fmt.Errorf("%w (set it with: surrocare config set session <cookie>)", ErrNotLoggedIn)
	}
	return nil
}

// newClient builds the request client with notices routed to stderr.
func newClient(env *Env, cfg config.Config) (*api.Client, error) {
	return env.ClientFactory.NewClient(cfg, notice.NewWriter(env.Stderr))
}
