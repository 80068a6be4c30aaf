// Package notify delivers user-facing session notifications. Delivery is
// best effort: a notifier never returns an error, so session logic cannot
// fail because a message could not be shown.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ghnav/cli/internal/ui"
)

// Severity selects the rendering of a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Notifier delivers a notification to the user.
type Notifier interface {
	Notify(severity Severity, title, message string)
}

// Terminal writes styled notifications to a terminal stream.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a notifier writing to w, defaulting to stderr.
func NewTerminal(w io.Writer) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	return &Terminal{out: w}
}

func (t *Terminal) Notify(severity Severity, title, message string) {
	var header string
	switch severity {
	case SeverityError:
		header = ui.Failure.Render("✗ " + title)
	case SeverityWarning:
		header = ui.Warning.Render("⚠ " + title)
	default:
		header = ui.Success.Render("✓ " + title)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s\n", header)
	if message != "" {
		fmt.Fprintf(t.out, "  %s\n", message)
	}
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) Notify(Severity, string, string) {}
