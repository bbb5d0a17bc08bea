package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/analytics"
	"github.com/alnah/go-surrocare/internal/apierr"
	"github.com/alnah/go-surrocare/internal/cli"
	"github.com/alnah/go-surrocare/internal/config"
	"github.com/alnah/go-surrocare/internal/lang"
	"github.com/alnah/go-surrocare/internal/leads"
	"github.com/alnah/go-surrocare/internal/logging"
	"github.com/alnah/go-surrocare/internal/notifications"
	"github.com/alnah/go-surrocare/internal/surrogates"
	"github.com/alnah/go-surrocare/internal/transcripts"
	"github.com/alnah/go-surrocare/internal/workflow"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitAPI        = 5
	ExitInterrupt  = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// Context with signal cancellation.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.DefaultEnv()

	var verbose bool

	// Root command.
	rootCmd := &cobra.Command{
		Use:     "surrocare",
		Short:   "Case-management client for the SurroCare agency backend",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Setup(os.Stderr, verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Subcommands.
	rootCmd.AddCommand(cli.SurrogatesCmd(env))
	rootCmd.AddCommand(cli.ImportCmd(env))
	rootCmd.AddCommand(cli.NotificationsCmd(env))
	rootCmd.AddCommand(cli.TranscriptsCmd(env))
	rootCmd.AddCommand(cli.AnalyticsCmd(env))
	rootCmd.AddCommand(cli.TemplatesCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	// Cobra doesn't expose typed errors, so we check for known error message patterns.
	// These patterns are stable across Cobra versions (tested with v1.8+).
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3): missing credentials or broken config.
	if errors.Is(err, cli.ErrNotLoggedIn) || errors.Is(err, cli.ErrRealtimeOff) ||
		errors.Is(err, cli.ErrAPIKeyMissing) || errors.Is(err, config.ErrInvalidKey) ||
		errors.Is(err, config.ErrInvalidSyntax) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4): bad input, nothing was sent.
	if errors.Is(err, cli.ErrInvalidID) || errors.Is(err, cli.ErrFileNotFound) ||
		errors.Is(err, surrogates.ErrInvalidID) || errors.Is(err, surrogates.ErrMissingName) ||
		errors.Is(err, surrogates.ErrEmptyQuery) || errors.Is(err, notifications.ErrInvalidID) ||
		errors.Is(err, leads.ErrNotCSV) || errors.Is(err, transcripts.ErrInvalidID) ||
		errors.Is(err, transcripts.ErrEmptyText) || errors.Is(err, transcripts.ErrUnsupportedFormat) ||
		errors.Is(err, lang.ErrInvalid) ||
		errors.Is(err, analytics.ErrUnknownFormat) || errors.Is(err, workflow.ErrInvalid) {
		return ExitValidation
	}

	// API errors (ExitAPI = 5): the backend (or OpenAI) rejected the request.
	var apiErr *apierr.APIError
	var rateErr *apierr.RateLimitError
	if errors.Is(err, apierr.ErrRateLimit) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrTimeout) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, apierr.ErrBadRequest) ||
		errors.As(err, &apiErr) || errors.As(err, &rateErr) {
		return ExitAPI
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
