package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/config"
	"github.com/alnah/go-surrocare/internal/format"
	"github.com/alnah/go-surrocare/internal/interrupt"
)

// Parallel upload bounds. Four concurrent uploads keeps batch imports fast
// without tripping the backend rate limiter.
const (
	defaultImportParallel = 4
	maxImportParallel     = 8
)

// clampParallel constrains concurrent uploads to valid range [1, maxImportParallel].
func clampParallel(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxImportParallel {
		return maxImportParallel
	}
	return n
}

// ImportCmd creates the import command.
// The env parameter provides injectable dependencies for testing.
func ImportCmd(env *Env) *cobra.Command {
	var (
		source   string
		parallel int
		watchDir string
	)

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import lead CSV files",
		Long: `Import lead CSV files into the agency backend.

Each file is uploaded as-is; the backend parses rows and reports how many
leads were imported or skipped. Row-level errors are listed per file.

With --watch, the command keeps running and imports every CSV dropped
into the directory until interrupted with Ctrl+C.`,
		Example: `  surrocare import leads.csv
  surrocare import batch1.csv batch2.csv --parallel 2
  surrocare import expo.csv --source "fertility expo"
  surrocare import --watch ~/Dropbox/leads`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchDir != "" {
				if len(args) > 0 {
					return fmt.Errorf("accepts no file arguments with --watch, received %d", len(args))
				}
				return runImportWatch(cmd.Context(), env, watchDir, source)
			}
			if len(args) == 0 {
				return fmt.Errorf("requires at least 1 file (or --watch <dir>)")
			}
			return runImport(cmd.Context(), env, args, source, parallel)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Lead source label to tag imported rows with")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", defaultImportParallel, "Max concurrent uploads (1-8)")
	cmd.Flags().StringVar(&watchDir, "watch", "", "Watch a directory and import CSVs as they appear")

	return cmd
}

// runImport handles one-shot imports of explicit file arguments.
// Validation order: files exist -> parallel bounds -> session
func runImport(ctx context.Context, env *Env, paths []string, source string, parallel int) error {
	// === VALIDATION (fail-fast) ===

	// 1. Every file exists before any upload starts
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("%w: %s", ErrFileNotFound, p)
			}
			return fmt.Errorf("cannot access input file: %w", err)
		}
	}

	// 2. Parallel bounds (clamp to 1-8)
	parallel = clampParallel(parallel)

	// 3. Session present
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	// === IMPORT ===

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	importer := env.ServiceFactory.NewLeads(client, source)

	reports, err := importer.ImportAll(ctx, paths, parallel)
	if err != nil {
		return err
	}

	var imported, skipped int
	for _, r := range reports {
		printImportReport(env.Stdout, r)
		imported += r.Imported
		skipped += r.Skipped
	}
	if len(reports) > 1 {
		fmt.Fprintf(env.Stderr, "Total: %s imported, %d skipped\n",
			format.Plural(imported, "lead", "leads"), skipped)
	}

	return nil
}

// runImportWatch handles --watch mode: import every CSV that settles in dir
// until the user interrupts.
func runImportWatch(parentCtx context.Context, env *Env, dir, source string) error {
	if err := config.ValidWatchDir(dir); err != nil {
		return fmt.Errorf("invalid watch directory: %w", err)
	}
	dir = config.ExpandPath(dir)

	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	importer := env.ServiceFactory.NewLeads(client, source)

	watcher, err := env.WatcherFactory.NewWatcher(dir)
	if err != nil {
		return err
	}

	// First Ctrl+C cancels ctx and ends the loop; a second one aborts hard.
	interruptHandler, ctx := interrupt.NewHandler(parentCtx)
	defer interruptHandler.Stop()

	start := env.Now()
	fmt.Fprintf(env.Stderr, "Watching %s for lead files (Ctrl+C to stop)...\n", dir)

	var files, imported int
	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			elapsed := env.Now().Sub(start)
			fmt.Fprintf(env.Stderr, "\nStopped after %s: imported %s from %s\n",
				format.DurationHuman(elapsed),
				format.Plural(imported, "lead", "leads"),
				format.Plural(files, "file", "files"))
			return nil

		case path, ok := <-watcher.Files():
			if !ok {
				return nil
			}
			report, err := importer.Import(ctx, path)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				fmt.Fprintf(env.Stderr, "Error importing %s: %v\n", path, err)
				continue
			}
			files++
			imported += report.Imported
			printImportReport(env.Stdout, report)
		}
	}
}
