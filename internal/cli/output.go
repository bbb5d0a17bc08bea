package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alnah/go-surrocare/internal/format"
	"github.com/alnah/go-surrocare/internal/leads"
	"github.com/alnah/go-surrocare/internal/notifications"
	"github.com/alnah/go-surrocare/internal/surrogates"
)

// printSurrogateRow writes a one-line summary of a surrogate to w.
// Used by list and search output.
func printSurrogateRow(w io.Writer, s surrogates.Surrogate) {
	_, _ = fmt.Fprintf(w, "%6d  %-28s %-14s %s\n", s.ID, s.FullName, s.Stage, s.Status)
}

// printSurrogateDetail writes the full record of a surrogate to w.
// Used by get and create output.
func printSurrogateDetail(w io.Writer, s surrogates.Surrogate) {
	_, _ = fmt.Fprintf(w, "ID:      %d\n", s.ID)
	_, _ = fmt.Fprintf(w, "Name:    %s\n", s.FullName)
	if s.Email != "" {
		_, _ = fmt.Fprintf(w, "Email:   %s\n", s.Email)
	}
	if s.Phone != "" {
		_, _ = fmt.Fprintf(w, "Phone:   %s\n", s.Phone)
	}
	_, _ = fmt.Fprintf(w, "Stage:   %s\n", s.Stage)
	_, _ = fmt.Fprintf(w, "Status:  %s\n", s.Status)
	if s.Notes != "" {
		_, _ = fmt.Fprintf(w, "Notes:   %s\n", s.Notes)
	}
}

// printNotificationRow writes a one-line feed entry to w. Unread entries
// are marked with a star.
func printNotificationRow(w io.Writer, n notifications.Notification) {
	marker := " "
	if !n.Read {
		marker = "*"
	}
	_, _ = fmt.Fprintf(w, "%s %5d  %-12s %s\n", marker, n.ID, n.Type, n.Title)
}

// printImportReport writes a per-file import summary to w, one line per
// file plus an indented line per row-level error.
func printImportReport(w io.Writer, r leads.Report) {
	_, _ = fmt.Fprintf(w, "%s: %s imported, %d skipped\n",
		r.FileName, format.Plural(r.Imported, "lead", "leads"), r.Skipped)
	for _, e := range r.Errors {
		_, _ = fmt.Fprintf(w, "  %s\n", e)
	}
}

// joinArgs joins positional args into a single query string, trimming
// surrounding whitespace so quoting style doesn't matter.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
