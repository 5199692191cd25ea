package contracts

import (
	"fmt"
	"log/slog"
	"time"
)

// LogEntry is one stage-originated log statement. Stages never write to a
// sink directly; they enqueue entries onto a shared log channel so that
// concurrently running stages share one ordered sink without interleaving
// partial writes.
type LogEntry struct {
	Component string     `json:"component"`
	Level     slog.Level `json:"level"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewLogEntry formats template with args and stamps the entry.
func NewLogEntry(component string, level slog.Level, template string, args ...any) LogEntry {
	msg := template
	if len(args) > 0 {
		msg = fmt.Sprintf(template, args...)
	}
	return LogEntry{
		Component: component,
		Level:     level,
		Message:   msg,
		Timestamp: time.Now(),
	}
}
