// Package notify defines the user-facing notification sink the board
// engine reports through. Every engine operation produces exactly one
// success-or-error notification; rendering is the implementation's concern.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/nexofix/nexo/internal/output"
)

// Notifier receives one success or error signal per completed operation.
type Notifier interface {
	Success(format string, args ...any)
	Error(format string, args ...any)
}

// UINotifier renders notifications as colored terminal lines.
type UINotifier struct {
	UI *output.UI
}

func NewUI(ui *output.UI) *UINotifier {
	return &UINotifier{UI: ui}
}

func (n *UINotifier) Success(format string, args ...any) {
	n.UI.Success(format, args...)
}

func (n *UINotifier) Error(format string, args ...any) {
	n.UI.Error(format, args...)
}

// LogNotifier routes notifications to a structured logger. Used by the
// HTTP and MCP servers, where there is no terminal to toast at.
type LogNotifier struct {
	Logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) Success(format string, args ...any) {
	n.Logger.Info(fmt.Sprintf(format, args...))
}

func (n *LogNotifier) Error(format string, args ...any) {
	n.Logger.Error(fmt.Sprintf(format, args...))
}

// Recorder captures notifications for tests.
type Recorder struct {
	Successes []string
	Errors    []string
}

func (r *Recorder) Success(format string, args ...any) {
	r.Successes = append(r.Successes, fmt.Sprintf(format, args...))
}

func (r *Recorder) Error(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Total returns the number of notifications seen.
func (r *Recorder) Total() int {
	return len(r.Successes) + len(r.Errors)
}
