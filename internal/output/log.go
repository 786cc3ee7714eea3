// Package output owns everything the run shows or writes: the mode-gated
// console logger, the side-channel discovery log, the live progress line,
// and the final alive report.
package output

import (
	"fmt"
	"os"
	"sync"

	"github.com/envhound/envhound/internal/config"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// Logger gates console lines by verbosity mode and appends every discovery
// to the output file regardless of mode. Safe for concurrent use.
type Logger struct {
	mode    string
	noColor bool

	mu       sync.Mutex
	file     *os.File
	printed  map[string]struct{}
	progress *Progress
}

// NewLogger opens outputPath for appending discovery lines. An empty path
// disables the file side channel (used by tests that only exercise the
// console gating).
func NewLogger(mode, outputPath string, noColor bool) (*Logger, error) {
	l := &Logger{
		mode:    mode,
		noColor: noColor,
		printed: make(map[string]struct{}),
	}
	if outputPath != "" {
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening output file %s: %w", outputPath, err)
		}
		l.file = f
	}
	return l, nil
}

// SetProgress attaches a progress display so console lines can clear and
// redraw around it.
func (l *Logger) SetProgress(p *Progress) {
	l.mu.Lock()
	l.progress = p
	l.mu.Unlock()
}

// Close flushes and closes the side-channel file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Mode returns the active verbosity mode.
func (l *Logger) Mode() string { return l.mode }

// Info prints a status line in verbose and debug modes.
func (l *Logger) Info(format string, args ...any) {
	if l.mode == config.ModeDebug || l.mode == config.ModeVerbose {
		l.console(l.paint(colorCyan, "[*] ")+format, args...)
	}
}

// Warn prints a warning line in verbose and debug modes.
func (l *Logger) Warn(format string, args ...any) {
	if l.mode == config.ModeDebug || l.mode == config.ModeVerbose {
		l.console(l.paint(colorYellow, "[!] ")+format, args...)
	}
}

// Debug prints a diagnostic line in debug mode only. Suppressed fetch and
// extraction failures surface here so silent data loss stays observable.
func (l *Logger) Debug(format string, args ...any) {
	if l.mode == config.ModeDebug {
		l.console(l.paint(colorDim, "[d] ")+format, args...)
	}
}

// Hook prints discovery-hook output and errors. Routed through the
// console path so the progress line is cleared and redrawn around it.
func (l *Logger) Hook(format string, args ...any) {
	if l.mode == config.ModeQuiet {
		return
	}
	l.console(l.paint(colorDim, "[hook] ")+format, args...)
}

// Discover reports a ledger hit: "[TAG] value". The line is appended to
// the output file in every mode; the console copy is gated by mode and
// deduplicated.
func (l *Logger) Discover(tag, value string) {
	line := fmt.Sprintf("[%s] %s", tag, value)

	l.mu.Lock()
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
	show := l.mode != config.ModeQuiet
	if show {
		if _, dup := l.printed[line]; dup {
			show = false
		} else {
			l.printed[line] = struct{}{}
		}
	}
	progress := l.progress
	l.mu.Unlock()

	if !show {
		return
	}
	if progress != nil {
		progress.ClearLine()
	}
	fmt.Fprintf(os.Stderr, "%s[%s]%s %s\n", l.color(colorGreen), tag, l.color(colorReset), value)
	if progress != nil {
		progress.Redraw()
	}
}

func (l *Logger) console(format string, args ...any) {
	l.mu.Lock()
	progress := l.progress
	l.mu.Unlock()
	if progress != nil {
		progress.ClearLine()
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	if progress != nil {
		progress.Redraw()
	}
}

func (l *Logger) color(c string) string {
	if l.noColor {
		return ""
	}
	return c
}

func (l *Logger) paint(c, s string) string {
	if l.noColor {
		return s
	}
	return c + s + colorReset
}
