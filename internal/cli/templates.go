package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/format"
	"github.com/alnah/go-surrocare/internal/workflow"
)

// TemplatesCmd creates the templates command with subcommands.
// The env parameter provides injectable dependencies for testing.
func TemplatesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Validate and publish workflow templates",
		Long: `Validate and publish workflow templates.

Templates are YAML files defining the intake form coordinators fill at
one journey stage. The backend versions every published template.`,
		Example: `  surrocare templates validate intake.yaml
  surrocare templates push intake.yaml
  surrocare templates list`,
	}

	cmd.AddCommand(templatesValidateCmd(env))
	cmd.AddCommand(templatesPushCmd(env))
	cmd.AddCommand(templatesListCmd(env))

	return cmd
}

// templatesValidateCmd creates the "templates validate" subcommand.
func templatesValidateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "validate <file>",
		Short:   "Validate a template file locally",
		Example: `  surrocare templates validate intake.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTemplatesValidate(env, args[0])
		},
	}
}

// templatesPushCmd creates the "templates push" subcommand.
func templatesPushCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "push <file>",
		Short:   "Publish a template to the backend",
		Example: `  surrocare templates push intake.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplatesPush(cmd.Context(), env, args[0])
		},
	}
}

// templatesListCmd creates the "templates list" subcommand.
func templatesListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List published templates",
		Example: `  surrocare templates list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTemplatesList(cmd.Context(), env)
		},
	}
}

// runTemplatesValidate handles the "templates validate" command.
// Validation is local; no session is needed.
func runTemplatesValidate(env *Env, path string) error {
	t, err := workflow.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "OK: %s (stage %s, %s)\n",
		t.Name, t.Stage, format.Plural(len(t.Fields), "field", "fields"))
	return nil
}

// runTemplatesPush handles the "templates push" command.
func runTemplatesPush(ctx context.Context, env *Env, path string) error {
	t, err := workflow.Load(path)
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
	svc := env.ServiceFactory.NewWorkflow(client)

	remote, err := svc.Push(ctx, t)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Published %s (version %d)\n", remote.Name, remote.Version)
	return nil
}

// runTemplatesList handles the "templates list" command.
func runTemplatesList(ctx context.Context, env *Env) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewWorkflow(client)

	remotes, err := svc.List(ctx)
	if err != nil {
		return err
	}

	if len(remotes) == 0 {
		fmt.Fprintln(env.Stderr, "No templates published.")
		return nil
	}

	for _, r := range remotes {
		fmt.Fprintf(env.Stdout, "%-24s %-14s v%-3d %s\n",
			r.Name, r.Stage, r.Version, r.UpdatedAt.Format("2006-01-02"))
	}

	return nil
}
