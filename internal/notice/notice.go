// Package notice delivers user-facing status messages outside normal command
// output. It is the CLI analog of the toast popups the web frontend shows for
// the same events, so messages here are worded for end users, not operators.
package notice

import (
	"fmt"
	"io"
	"sync"
)

// Level classifies a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// String returns the string representation of the Level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Notice is a single user-facing message.
type Notice struct {
	Level   Level
	Message string
}

// Noticer receives user-facing notices. Implementations must be safe for
// concurrent use; API calls from parallel workers may notify at once.
type Noticer interface {
	Notify(n Notice)
}

// Info builds an informational notice.
func Info(message string) Notice {
	return Notice{Level: LevelInfo, Message: message}
}

// Warning builds a warning notice.
func Warning(message string) Notice {
	return Notice{Level: LevelWarning, Message: message}
}

// Error builds an error notice.
func Error(message string) Notice {
	return Notice{Level: LevelError, Message: message}
}

// Compile-time interface compliance checks.
var (
	_ Noticer = (*Writer)(nil)
	_ Noticer = Nop{}
)

// Writer emits each notice as a single line on an io.Writer, typically
// stderr so notices never mix with machine-readable stdout.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer noticer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify writes the notice. Warnings and errors carry a level prefix,
// informational notices are printed bare.
func (n *Writer) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if notice.Level == LevelInfo {
		_, _ = fmt.Fprintln(n.w, notice.Message)
		return
	}
	_, _ = fmt.Fprintf(n.w, "%s: %s\n", notice.Level, notice.Message)
}

// Nop discards all notices. Useful as a default for library consumers that
// surface errors through their own channels.
type Nop struct{}

// Notify discards the notice.
func (Nop) Notify(Notice) {}
