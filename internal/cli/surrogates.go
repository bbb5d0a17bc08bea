package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/cache"
	"github.com/alnah/go-surrocare/internal/format"
	"github.com/alnah/go-surrocare/internal/surrogates"
)

// SurrogatesCmd creates the surrogates command with subcommands.
// The env parameter provides injectable dependencies for testing.
func SurrogatesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surrogates",
		Short: "Browse and manage surrogate candidates",
		Long: `Browse and manage surrogate candidates in the agency directory.

Requires a session cookie (surrocare config set session <cookie>).`,
		Example: `  surrocare surrogates list
  surrocare surrogates list --page 3
  surrocare surrogates get 42
  surrocare surrogates create "Ana Silva" --email ana@example.com
  surrocare surrogates search ana silva`,
	}

	cmd.AddCommand(surrogatesListCmd(env))
	cmd.AddCommand(surrogatesGetCmd(env))
	cmd.AddCommand(surrogatesCreateCmd(env))
	cmd.AddCommand(surrogatesSearchCmd(env))

	return cmd
}

// surrogatesListCmd creates the "surrogates list" subcommand.
func surrogatesListCmd(env *Env) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List surrogate candidates",
		Example: `  surrocare surrogates list --page 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSurrogatesList(cmd.Context(), env, page)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page to fetch")

	return cmd
}

// surrogatesGetCmd creates the "surrogates get" subcommand.
func surrogatesGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Short:   "Show one surrogate record",
		Example: `  surrocare surrogates get 42`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurrogatesGet(cmd.Context(), env, args[0])
		},
	}
}

// surrogatesCreateCmd creates the "surrogates create" subcommand.
func surrogatesCreateCmd(env *Env) *cobra.Command {
	var (
		email string
		phone string
		notes string
	)

	cmd := &cobra.Command{
		Use:   "create <full-name>",
		Short: "Register a new surrogate candidate",
		Long: `Register a new surrogate candidate.

New candidates start in the intake stage.`,
		Example: `  surrocare surrogates create "Ana Silva" --email ana@example.com --phone 555-0101`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := surrogates.Draft{
				FullName: args[0],
				Email:    email,
				Phone:    phone,
				Notes:    notes,
			}
			return runSurrogatesCreate(cmd.Context(), env, draft)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Contact email")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone")
	cmd.Flags().StringVar(&notes, "notes", "", "Intake notes")

	return cmd
}

// surrogatesSearchCmd creates the "surrogates search" subcommand.
func surrogatesSearchCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>...",
		Short:   "Search surrogates by name or email",
		Example: `  surrocare surrogates search ana silva`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurrogatesSearch(cmd.Context(), env, joinArgs(args))
		},
	}
}

// runSurrogatesList handles the "surrogates list" command.
func runSurrogatesList(ctx context.Context, env *Env, page int) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewSurrogates(client, cache.New())

	result, err := svc.List(ctx, page)
	if err != nil {
		return err
	}

	for _, s := range result.Items {
		printSurrogateRow(env.Stdout, s)
	}
	fmt.Fprintf(env.Stderr, "Page %d, %s total\n", page, format.Plural(result.Total, "surrogate", "surrogates"))

	return nil
}

// runSurrogatesGet handles the "surrogates get" command.
func runSurrogatesGet(ctx context.Context, env *Env, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewSurrogates(client, cache.New())

	s, err := svc.Get(ctx, id)
	if err != nil {
		return err
	}

	printSurrogateDetail(env.Stdout, s)
	return nil
}

// runSurrogatesCreate handles the "surrogates create" command.
func runSurrogatesCreate(ctx context.Context, env *Env, draft surrogates.Draft) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewSurrogates(client, cache.New())

	s, err := svc.Create(ctx, draft)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Created surrogate %d\n", s.ID)
	printSurrogateDetail(env.Stdout, s)
	return nil
}

// runSurrogatesSearch handles the "surrogates search" command.
func runSurrogatesSearch(ctx context.Context, env *Env, query string) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewSurrogates(client, cache.New())

	results, err := svc.Search(ctx, query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(env.Stderr, "No matches.")
		return nil
	}

	for _, s := range results {
		printSurrogateRow(env.Stdout, s)
	}
	fmt.Fprintf(env.Stderr, "%s\n", format.Plural(len(results), "match", "matches"))

	return nil
}

// parseID converts a positional ID argument to an int64.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q (expected a positive number)", ErrInvalidID, raw)
	}
	return id, nil
}
