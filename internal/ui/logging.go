package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/brogergvhs/novelgrab/internal/events"
)

type Logger struct {
	Debug bool

	mu  sync.Mutex
	out io.Writer
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, out: os.Stdout}
}

// SetOutput redirects log lines. The default is stdout.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

func (l *Logger) printf(prefix, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, prefix+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.printf("[DEBUG] ", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.printf("[INFO] ", format, args...)
}

func (l *Logger) Successf(format string, args ...any) {
	l.printf("[OK] ", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf("[WARN] ", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf("[ERROR] ", format, args...)
}

// Emit renders a pipeline event. Per-chapter successes are only shown in
// debug mode; the progress bar covers them otherwise.
func (l *Logger) Emit(e events.Event) {
	msg := strings.TrimRight(e.Message, "\n")

	switch e.Kind {
	case events.Success:
		if e.Chapter > 0 && !l.Debug {
			return
		}
		l.Successf("%s\n", msg)
	case events.Warning:
		if e.URL != "" {
			l.Warnf("%s (%s)\n", msg, e.URL)
			return
		}
		l.Warnf("%s\n", msg)
	case events.Error:
		l.Errorf("%s\n", msg)
	default:
		if e.Chapter > 0 && !l.Debug {
			return
		}
		l.Infof("%s\n", msg)
	}
}

var _ events.Sink = (*Logger)(nil)
