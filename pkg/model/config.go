package model

import (
	"time"

	"github.com/surgeproj/surge/pkg/script"
)

// LogLevel mirrors the original_source config's log_level field.
type LogLevel int

const (
	LogOff LogLevel = iota
	LogError
	LogWarn
	LogInfo
	LogDebug
	LogTrace
)

func ParseLogLevel(s string) (LogLevel, bool) {
	switch s {
	case "Off", "off":
		return LogOff, true
	case "Error", "error":
		return LogError, true
	case "Warn", "warn":
		return LogWarn, true
	case "Info", "info":
		return LogInfo, true
	case "Debug", "debug":
		return LogDebug, true
	case "Trace", "trace":
		return LogTrace, true
	default:
		return LogOff, false
	}
}

// BatchSize is either a fixed request count per tick or Auto, which the
// runner maps to round(target_rps/10) so the dispatch tick lands on 100ms.
type BatchSize struct {
	Fixed uint32
	Auto  bool
}

// Resolve returns the effective batch size for a given target RPS.
func (b BatchSize) Resolve(targetRPS uint32) uint32 {
	if !b.Auto {
		if b.Fixed == 0 {
			return 1
		}
		return b.Fixed
	}
	n := int(targetRPS+5) / 10 // round to nearest
	if n < 1 {
		n = 1
	}
	return uint32(n)
}

// GlobalScript is the worker-wide init script, run once per worker before
// its first tick; its local bindings are then promoted into that worker's
// global store.
type GlobalScript struct {
	Program *script.Program
}

// CircuitBreakerConfig holds the parsed "errors > N%" style stop condition.
type CircuitBreakerConfig struct {
	StopIf string
}

// DataSource feeds CSV rows into per-request local variables, round-robin.
type DataSource struct {
	Name    string
	Path    string
	Columns []string
}

// RunnerConfig is the immutable, clone-on-spawn configuration one worker
// runs against.
type RunnerConfig struct {
	TargetRPS      uint32
	Duration       time.Duration
	BatchSize      BatchSize
	BaseURL        string
	Global         GlobalScript
	Requests       []*RequestTemplate
	CircuitBreaker *CircuitBreakerConfig
	Data           []DataSource
}

// Config is the fully parsed, validated top-level configuration.
type Config struct {
	LogLevel LogLevel
	Parallel uint8
	Runner   RunnerConfig
}

// Clone produces an independent copy suitable for handing to one worker.
// RequestTemplate pointers are shared (immutable after parse); everything
// mutable (notably the global script's eventual execution state) lives in
// the worker, not here.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Runner.Requests = append([]*RequestTemplate(nil), c.Runner.Requests...)
	cp.Runner.Data = append([]DataSource(nil), c.Runner.Data...)
	return &cp
}
