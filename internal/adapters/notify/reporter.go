// Package notify is the process-wide error notification channel.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tari-project/tapplet-host/internal/cli/render"
	"github.com/tari-project/tapplet-host/internal/usecase"
)

// DefaultHistory is how many notifications a Reporter keeps
const DefaultHistory = 50

// Notification is one reported error
type Notification struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Reporter logs errors and prints them to the terminal, keeping the most
// recent ones for display.
type Reporter struct {
	out     io.Writer
	log     *slog.Logger
	history int

	mu      sync.Mutex
	entries []Notification
}

// NewReporter creates a reporter writing to stderr
func NewReporter(log *slog.Logger) *Reporter {
	return NewReporterWithWriter(log, os.Stderr, DefaultHistory)
}

// NewReporterWithWriter creates a reporter writing to out
func NewReporterWithWriter(log *slog.Logger, out io.Writer, history int) *Reporter {
	if history <= 0 {
		history = DefaultHistory
	}
	return &Reporter{out: out, log: log, history: history}
}

// ReportError implements usecase.ErrorReporter
func (r *Reporter) ReportError(message string) {
	r.log.Error(message)

	r.mu.Lock()
	r.entries = append(r.entries, Notification{Message: message, Time: time.Now()})
	if len(r.entries) > r.history {
		r.entries = r.entries[len(r.entries)-r.history:]
	}
	r.mu.Unlock()

	fmt.Fprintln(r.out, render.FormatError(message))
}

// Recent returns the retained notifications, oldest first
func (r *Reporter) Recent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.entries...)
}

var _ usecase.ErrorReporter = (*Reporter)(nil)
