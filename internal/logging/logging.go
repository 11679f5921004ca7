// Package logging provides a level-filtered wrapper around the standard
// library's log package, gated on the log_level config field the way
// original_source's LogLevel enum gates its own log lines. The teacher's
// own repo has no structured logging dependency to imitate here (its
// console output is fmt.Println, kept as-is in internal/debug), so this
// stays on the standard library rather than reaching for an unused
// third-party logger.
package logging

import (
	"log"
	"os"

	"github.com/surgeproj/surge/pkg/model"
)

// Logger writes lines at or below its configured level; calls above that
// level are no-ops, matching original_source's per-line level check.
type Logger struct {
	level model.LogLevel
	std   *log.Logger
}

// New builds a Logger writing to stderr at the given level.
func New(level model.LogLevel) *Logger {
	return &Logger{level: level, std: log.New(os.Stderr, "", log.LstdFlags)}
}

func (l *Logger) log(level model.LogLevel, prefix, format string, args ...any) {
	if l == nil || l.level < level {
		return
	}
	l.std.Printf(prefix+" "+format, args...)
}

func (l *Logger) Error(format string, args ...any) { l.log(model.LogError, "[error]", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(model.LogWarn, "[warn]", format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(model.LogInfo, "[info]", format, args...) }
func (l *Logger) Debug(format string, args ...any) { l.log(model.LogDebug, "[debug]", format, args...) }
func (l *Logger) Trace(format string, args ...any) { l.log(model.LogTrace, "[trace]", format, args...) }
