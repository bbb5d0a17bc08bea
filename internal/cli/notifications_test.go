package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-surrocare/internal/apierr"
	"github.com/alnah/go-surrocare/internal/config"
	"github.com/alnah/go-surrocare/internal/notifications"
	"github.com/alnah/go-surrocare/internal/realtime"
)

// Notes:
// - Watch tests fire the captured handlers through the mock channel
//   factory, standing in for the channel's read goroutine.
// - The watch loop blocks on ctx.Done(), so every watch test runs it in
//   a goroutine and cancels once the expected output has appeared.

func TestRunNotificationsList(t *testing.T) {
	t.Parallel()

	t.Run("prints rows with unread markers", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.ListFunc = func(_ context.Context, _ int) (notifications.Page, error) {
			return notifications.Page{
				Items: []notifications.Notification{
					{ID: 1, Type: "match", Title: "New match proposed", Read: false},
					{ID: 2, Type: "message", Title: "Message from clinic", Read: true},
				},
				Total: 34,
			}, nil
		}
		mocks.notifications.UnreadCountFunc = func(_ context.Context) (int, error) {
			return 5, nil
		}

		if err := RunNotificationsList(context.Background(), env, 1); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stdout := mocks.stdout.String()
		lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
		if len(lines) != 2 {
			t.Fatalf("stdout lines = %d, want 2:\n%s", len(lines), stdout)
		}
		if !strings.HasPrefix(lines[0], "*") {
			t.Errorf("unread row not marked: %q", lines[0])
		}
		if strings.HasPrefix(lines[1], "*") {
			t.Errorf("read row marked unread: %q", lines[1])
		}
		if got := mocks.stderr.String(); !strings.Contains(got, "Page 1 of 34 total, 5 unread") {
			t.Errorf("stderr = %q, want page summary", got)
		}
	})

	t.Run("not logged in", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv(withConfig(config.Config{}))

		err := RunNotificationsList(context.Background(), env, 1)
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Fatalf("error = %v, want ErrNotLoggedIn", err)
		}
		if calls := mocks.notifications.ListCalls(); len(calls) != 0 {
			t.Errorf("service called despite missing session: %v", calls)
		}
	})

	t.Run("propagates list error", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.ListFunc = func(_ context.Context, _ int) (notifications.Page, error) {
			return notifications.Page{}, apierr.ErrTimeout
		}

		err := RunNotificationsList(context.Background(), env, 1)
		if !errors.Is(err, apierr.ErrTimeout) {
			t.Errorf("error = %v, want ErrTimeout", err)
		}
	})

	t.Run("propagates unread count error", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.UnreadCountFunc = func(_ context.Context) (int, error) {
			return 0, apierr.ErrAuthFailed
		}

		err := RunNotificationsList(context.Background(), env, 1)
		if !errors.Is(err, apierr.ErrAuthFailed) {
			t.Errorf("error = %v, want ErrAuthFailed", err)
		}
	})
}

func TestRunNotificationsRead(t *testing.T) {
	t.Parallel()

	t.Run("marks one notification", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()

		if err := RunNotificationsRead(context.Background(), env, "42"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if calls := mocks.notifications.MarkReadCalls(); len(calls) != 1 || calls[0] != 42 {
			t.Errorf("MarkReadCalls = %v, want [42]", calls)
		}
		if got := mocks.stderr.String(); !strings.Contains(got, "Marked notification 42 as read") {
			t.Errorf("stderr = %q, want confirmation", got)
		}
	})

	t.Run("invalid id skips service call", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()

		err := RunNotificationsRead(context.Background(), env, "-1")
		if !errors.Is(err, ErrInvalidID) {
			t.Fatalf("error = %v, want ErrInvalidID", err)
		}
		if calls := mocks.notifications.MarkReadCalls(); len(calls) != 0 {
			t.Errorf("MarkReadCalls = %v, want none", calls)
		}
	})

	t.Run("propagates service error", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.MarkReadFunc = func(_ context.Context, _ int64) error {
			return notifications.ErrInvalidID
		}

		err := RunNotificationsRead(context.Background(), env, "42")
		if !errors.Is(err, notifications.ErrInvalidID) {
			t.Errorf("error = %v, want notifications.ErrInvalidID", err)
		}
	})
}

func TestRunNotificationsReadAll(t *testing.T) {
	t.Parallel()

	t.Run("reports marked count", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.MarkAllReadFunc = func(_ context.Context) (int, error) {
			return 7, nil
		}

		if err := RunNotificationsReadAll(context.Background(), env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := mocks.notifications.MarkAllCalls(); got != 1 {
			t.Errorf("MarkAllCalls = %d, want 1", got)
		}
		if got := mocks.stderr.String(); !strings.Contains(got, "Marked 7 notifications as read") {
			t.Errorf("stderr = %q, want confirmation", got)
		}
	})

	t.Run("singular form for one", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.MarkAllReadFunc = func(_ context.Context) (int, error) {
			return 1, nil
		}

		if err := RunNotificationsReadAll(context.Background(), env); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := mocks.stderr.String(); !strings.Contains(got, "Marked 1 notification as read") {
			t.Errorf("stderr = %q, want singular confirmation", got)
		}
	})
}

func TestRunNotificationsWatch(t *testing.T) {
	t.Parallel()

	t.Run("streams notifications until canceled", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.UnreadCountFunc = func(_ context.Context) (int, error) {
			return 3, nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- RunNotificationsWatch(ctx, env) }()

		waitFor(t, 2*time.Second, func() bool {
			return mocks.channel.ConnectCalls() == 1
		})

		mocks.channelFactory.fireNotification(realtime.Notification{
			Title: "New match proposed",
			Body:  "Ana Silva and the Harper family",
		})
		mocks.channelFactory.fireNotification(realtime.Notification{Title: "Lead assigned"})
		mocks.channelFactory.fireCount(2)

		waitFor(t, 2*time.Second, func() bool {
			return strings.Contains(mocks.stdout.String(), "Lead assigned")
		})
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}

		stdout := mocks.stdout.String()
		if !strings.Contains(stdout, "14:30:52  New match proposed: Ana Silva and the Harper family") {
			t.Errorf("stdout = %q, want timestamped notification with body", stdout)
		}
		if !strings.Contains(stdout, "14:30:52  Lead assigned") {
			t.Errorf("stdout = %q, want notification without body", stdout)
		}

		stderr := mocks.stderr.String()
		if !strings.Contains(stderr, "Unread: 3") {
			t.Errorf("stderr = %q, want initial unread count", stderr)
		}
		if !strings.Contains(stderr, "Unread: 2") {
			t.Errorf("stderr = %q, want pushed unread count", stderr)
		}
		if !strings.Contains(stderr, "Watched for 0s, 2 notifications received.") {
			t.Errorf("stderr = %q, want watch summary", stderr)
		}

		if got := mocks.channel.CloseCalls(); got != 1 {
			t.Errorf("channel CloseCalls = %d, want 1", got)
		}
		// Both handlers refresh the cached feed.
		if got := mocks.notifications.InvalidateCalls(); got != 3 {
			t.Errorf("InvalidateCalls = %d, want 3", got)
		}
	})

	t.Run("gate reflects the loaded config", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- RunNotificationsWatch(ctx, env) }()

		waitFor(t, 2*time.Second, func() bool {
			return mocks.channelFactory.Gate() != nil
		})
		if gate := mocks.channelFactory.Gate(); !gate() {
			t.Error("gate() = false, want true with realtime enabled")
		}

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}
	})

	t.Run("unread count failure warns but keeps watching", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		mocks.notifications.UnreadCountFunc = func(_ context.Context) (int, error) {
			return 0, apierr.ErrTimeout
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- RunNotificationsWatch(ctx, env) }()

		waitFor(t, 2*time.Second, func() bool {
			return mocks.channel.ConnectCalls() == 1
		})
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}

		if got := mocks.stderr.String(); !strings.Contains(got, "Warning: failed to fetch unread count") {
			t.Errorf("stderr = %q, want unread warning", got)
		}
	})

	t.Run("not logged in", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv(withConfig(config.Config{Realtime: true}))

		err := RunNotificationsWatch(context.Background(), env)
		if !errors.Is(err, ErrNotLoggedIn) {
			t.Fatalf("error = %v, want ErrNotLoggedIn", err)
		}
		if calls := mocks.channelFactory.NewChannelCalls(); len(calls) != 0 {
			t.Errorf("channel created despite missing session: %v", calls)
		}
	})

	t.Run("realtime disabled", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv(withConfig(config.Config{Session: "sessionid-test", Realtime: false}))

		err := RunNotificationsWatch(context.Background(), env)
		if !errors.Is(err, ErrRealtimeOff) {
			t.Fatalf("error = %v, want ErrRealtimeOff", err)
		}
		if !strings.Contains(err.Error(), "config set realtime on") {
			t.Errorf("error = %v, want enable hint", err)
		}
		if calls := mocks.channelFactory.NewChannelCalls(); len(calls) != 0 {
			t.Errorf("channel created despite realtime off: %v", calls)
		}
	})
}

func TestNotificationsReadCmd(t *testing.T) {
	t.Parallel()

	t.Run("rejects id together with --all", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		cmd := NotificationsCmd(env)
		cmd.SetArgs([]string{"read", "42", "--all"})
		cmd.SetOut(mocks.stdout)
		cmd.SetErr(mocks.stderr)

		err := cmd.ExecuteContext(context.Background())
		if err == nil || !strings.Contains(err.Error(), "accepts no id argument with --all") {
			t.Errorf("error = %v, want usage error", err)
		}
	})

	t.Run("requires id or --all", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		cmd := NotificationsCmd(env)
		cmd.SetArgs([]string{"read"})
		cmd.SetOut(mocks.stdout)
		cmd.SetErr(mocks.stderr)

		err := cmd.ExecuteContext(context.Background())
		if err == nil || !strings.Contains(err.Error(), "requires at least 1 id") {
			t.Errorf("error = %v, want usage error", err)
		}
	})

	t.Run("marks all through cobra", func(t *testing.T) {
		t.Parallel()

		env, mocks := testEnv()
		cmd := NotificationsCmd(env)
		cmd.SetArgs([]string{"read", "--all"})
		cmd.SetOut(mocks.stdout)
		cmd.SetErr(mocks.stderr)

		if err := cmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := mocks.notifications.MarkAllCalls(); got != 1 {
			t.Errorf("MarkAllCalls = %d, want 1", got)
		}
	})
}
