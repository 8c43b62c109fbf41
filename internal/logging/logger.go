// Package logging provides leveled logging and decision tracing for jaggdy.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A DecisionLogger for JSONL traces of tie-breaks and update steps
//     (<trace_dir>/decisions.jsonl), written only at debug or trace level
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every
// candidate set is logged, not only the ties.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled text logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Components fall back to it
// when no logger is set.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// OrDiscard returns l, or Discard() when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// DecisionLogger appends structured decision events as JSON lines.
// It is safe for concurrent use. A nil *DecisionLogger is valid and every
// method on it is a no-op, so callers never need to check.
type DecisionLogger struct {
	mu     *sync.Mutex
	w      io.Writer
	closer io.Closer
	fields map[string]any
	now    func() time.Time
}

// NewDecisionLogger opens dir/decisions.jsonl for append. At info level it
// returns nil and creates nothing. It also returns nil when the file cannot
// be opened.
func NewDecisionLogger(dir string, level string) *DecisionLogger {
	if ParseLevel(level) >= slog.LevelInfo {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(dir, "decisions.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil
	}
	return &DecisionLogger{mu: &sync.Mutex{}, w: f, closer: f, now: time.Now}
}

// NewDecisionWriter returns a DecisionLogger writing to w. The caller owns w.
func NewDecisionWriter(w io.Writer) *DecisionLogger {
	return &DecisionLogger{mu: &sync.Mutex{}, w: w, now: time.Now}
}

// With returns a logger that adds fields to every event, e.g. a run ID.
// The returned logger shares the underlying writer.
func (dl *DecisionLogger) With(fields map[string]any) *DecisionLogger {
	if dl == nil {
		return nil
	}
	merged := make(map[string]any, len(dl.fields)+len(fields))
	for k, v := range dl.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &DecisionLogger{mu: dl.mu, w: dl.w, fields: merged, now: dl.now}
}

// Log writes one event. "event" and "time" are set by the logger and take
// precedence over attrs with the same keys. attrs is not mutated.
func (dl *DecisionLogger) Log(event string, attrs map[string]any) {
	if dl == nil || dl.w == nil {
		return
	}

	entry := make(map[string]any, len(dl.fields)+len(attrs)+2)
	for k, v := range dl.fields {
		entry[k] = v
	}
	for k, v := range attrs {
		entry[k] = v
	}
	entry["event"] = event
	entry["time"] = dl.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	dl.mu.Lock()
	defer dl.mu.Unlock()
	_, _ = dl.w.Write(data)
}

// Close closes the file opened by NewDecisionLogger. Loggers derived with
// With and writers passed to NewDecisionWriter are not closed.
func (dl *DecisionLogger) Close() {
	if dl == nil || dl.closer == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	_ = dl.closer.Close()
	dl.closer = nil
	dl.w = nil
}
