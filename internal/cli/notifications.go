package cli

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/alnah/go-surrocare/internal/cache"
	"github.com/alnah/go-surrocare/internal/format"
	"github.com/alnah/go-surrocare/internal/interrupt"
	"github.com/alnah/go-surrocare/internal/realtime"
)

// NotificationsCmd creates the notifications command with subcommands.
// The env parameter provides injectable dependencies for testing.
func NotificationsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read and watch staff notifications",
		Long: `Read the notification feed and stream new notifications live.

The watch subcommand keeps a realtime connection open and prints each
notification as it arrives. It reconnects automatically when the
connection drops.`,
		Example: `  surrocare notifications list
  surrocare notifications read 42
  surrocare notifications read --all
  surrocare notifications watch`,
	}

	cmd.AddCommand(notificationsListCmd(env))
	cmd.AddCommand(notificationsReadCmd(env))
	cmd.AddCommand(notificationsWatchCmd(env))

	return cmd
}

// notificationsListCmd creates the "notifications list" subcommand.
func notificationsListCmd(env *Env) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List recent notifications",
		Example: `  surrocare notifications list --page 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotificationsList(cmd.Context(), env, page)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Result page to fetch")

	return cmd
}

// notificationsReadCmd creates the "notifications read" subcommand.
func notificationsReadCmd(env *Env) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [id]",
		Short: "Mark notifications as read",
		Example: `  surrocare notifications read 42
  surrocare notifications read --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) > 0 {
					return fmt.Errorf("accepts no id argument with --all, received %d", len(args))
				}
				return runNotificationsReadAll(cmd.Context(), env)
			}
			if len(args) == 0 {
				return fmt.Errorf("requires at least 1 id (or --all)")
			}
			return runNotificationsRead(cmd.Context(), env, args[0])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every unread notification as read")

	return cmd
}

// notificationsWatchCmd creates the "notifications watch" subcommand.
func notificationsWatchCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream notifications live",
		Long: `Stream notifications live over the realtime connection.

Prints each notification as it arrives, one per line, until interrupted
with Ctrl+C. Requires realtime to be enabled (it is by default).`,
		Example: `  surrocare notifications watch`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNotificationsWatch(cmd.Context(), env)
		},
	}
}

// runNotificationsList handles the "notifications list" command.
func runNotificationsList(ctx context.Context, env *Env, page int) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewNotifications(client, cache.New())

	result, err := svc.List(ctx, page)
	if err != nil {
		return err
	}

	for _, n := range result.Items {
		printNotificationRow(env.Stdout, n)
	}

	unread, err := svc.UnreadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Page %d of %d total, %d unread\n", page, result.Total, unread)

	return nil
}

// runNotificationsRead handles "notifications read <id>".
func runNotificationsRead(ctx context.Context, env *Env, rawID string) error {
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
	svc := env.ServiceFactory.NewNotifications(client, cache.New())

	if err := svc.MarkRead(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Marked notification %d as read\n", id)
	return nil
}

// runNotificationsReadAll handles "notifications read --all".
func runNotificationsReadAll(ctx context.Context, env *Env) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewNotifications(client, cache.New())

	marked, err := svc.MarkAllRead(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Marked %s as read\n", format.Plural(marked, "notification", "notifications"))
	return nil
}

// runNotificationsWatch handles the "notifications watch" command.
// It holds the realtime connection open until the context is canceled.
func runNotificationsWatch(parentCtx context.Context, env *Env) error {
	cfg := loadConfig(env)
	if err := requireSession(cfg); err != nil {
		return err
	}
	if !cfg.Realtime {
		return fmt.Errorf("%w (enable it with: surrocare config set realtime on)", ErrRealtimeOff)
	}

	client, err := newClient(env, cfg)
	if err != nil {
		return err
	}
	svc := env.ServiceFactory.NewNotifications(client, cache.New())

	// First Ctrl+C ends the watch; a second one aborts hard.
	interruptHandler, ctx := interrupt.NewHandler(parentCtx)
	defer interruptHandler.Stop()

	start := env.Now()

	// Show where the feed stands before the stream starts.
	unread, err := svc.UnreadCount(ctx)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to fetch unread count: %v\n", err)
	} else {
		fmt.Fprintf(env.Stderr, "Unread: %d\n", unread)
	}

	// Handlers run on the channel's read goroutine, not this one.
	var received atomic.Int64

	channel := env.ChannelFactory.NewChannel(client.BaseURL(),
		func() bool { return cfg.Realtime },
		func(n realtime.Notification) {
			received.Add(1)
			svc.Invalidate()
			line := n.Title
			if n.Body != "" {
				line += ": " + n.Body
			}
			fmt.Fprintf(env.Stdout, "%s  %s\n", env.Now().Format("15:04:05"), line)
		},
		func(count int) {
			svc.Invalidate()
			fmt.Fprintf(env.Stderr, "Unread: %d\n", count)
		},
	)

	channel.Connect()
	fmt.Fprintln(env.Stderr, "Watching for notifications (Ctrl+C to stop)...")

	<-ctx.Done()
	channel.Close()

	elapsed := env.Now().Sub(start)
	fmt.Fprintf(env.Stderr, "\nWatched for %s, %s received.\n",
		format.DurationHuman(elapsed),
		format.Plural(int(received.Load()), "notification", "notifications"))

	return nil
}
