package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/cache"
)

// AnalyticsCmd creates the analytics command with subcommands.
// The env parameter provides injectable dependencies for testing.
func AnalyticsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "View agency reporting",
		Long: `View agency reporting: the dashboard summary, the journey funnel,
and server-side report exports.`,
		Example: `  surrocare analytics summary
  surrocare analytics export csv
  surrocare analytics export pdf`,
	}

	cmd.AddCommand(analyticsSummaryCmd(env))
	cmd.AddCommand(analyticsExportCmd(env))

	return cmd
}

// analyticsSummaryCmd creates the "analytics summary" subcommand.
func analyticsSummaryCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "summary",
		Short:   "Show the dashboard summary and journey funnel",
		Example: `  surrocare analytics summary`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyticsSummary(cmd.Context(), env)
		},
	}
}

// analyticsExportCmd creates the "analytics export" subcommand.
func analyticsExportCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "export <format>",
		Short:   "Request a report export (csv, pdf, xlsx)",
		Example: `  surrocare analytics export csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyticsExport(cmd.Context(), env, args[0])
		},
	}
}

// runAnalyticsSummary handles the "analytics summary" command.
func runAnalyticsSummary(ctx context.Context, env *Env) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewAnalytics(client, cache.New())

	ov, err := svc.Overview(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Active surrogates:    %d\n", ov.Summary.ActiveSurrogates)
	fmt.Fprintf(env.Stdout, "New leads:            %d\n", ov.Summary.NewLeads)
	fmt.Fprintf(env.Stdout, "Matches in progress:  %d\n", ov.Summary.MatchesInProgress)
	fmt.Fprintf(env.Stdout, "Transfers this month: %d\n", ov.Summary.TransfersThisMonth)

	if len(ov.Funnel) > 0 {
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Journey funnel:")
		for _, stage := range ov.Funnel {
			fmt.Fprintf(env.Stdout, "  %-18s %d\n", stage.Stage, stage.Count)
		}
	}

	return nil
}

// runAnalyticsExport handles the "analytics export" command.
func runAnalyticsExport(ctx context.Context, env *Env, exportFormat string) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewAnalytics(client, cache.New())

	job, err := svc.Export(ctx, exportFormat)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Export %s: %s\n", job.ID, job.Status)
	if job.URL != "" {
		fmt.Fprintf(env.Stdout, "Download: %s\n", job.URL)
	}

	return nil
}
