// Package circuitbreaker trips a worker's runner early when its observed
// error rate crosses a configured threshold, parsed from a stop_if
// expression such as "errors > 10%".
package circuitbreaker

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/surgeproj/surge/pkg/model"
)

// counters is the running tally a condition is evaluated against.
type counters struct {
	requests, failures, assertFailures int64
}

// gauge computes the metric value a condition compares against its
// threshold, closing over whatever arithmetic that metric needs.
type gauge func(c counters) float64

// comparator is a precompiled relational check, resolved once at parse
// time instead of re-switching on an operator string every Check call.
type comparator func(value, threshold float64) bool

var comparators = map[string]comparator{
	">":  func(v, t float64) bool { return v > t },
	">=": func(v, t float64) bool { return v >= t },
	"<":  func(v, t float64) bool { return v < t },
	"<=": func(v, t float64) bool { return v <= t },
}

// condition is a fully resolved stop_if expression: a gauge to read plus a
// comparator and threshold to test it against.
type condition struct {
	label     string // normalized metric name, used only for Reason text
	gauge     gauge
	cmp       comparator
	cmpSymbol string
	threshold float64
	asPercent bool
}

// Breaker monitors a worker's outcome counters and trips once its
// condition holds, latching the trip so later calls short-circuit.
type Breaker struct {
	cond        condition
	sampleFloor int64

	tripped int32 // atomic: 0 = closed, 1 = open
	reason  string
	mu      sync.Mutex
}

// defaultSampleFloor is how many requests a worker must have dispatched
// before a condition is allowed to trip it, so a handful of early
// failures in a tiny sample can't stop an entire run.
const defaultSampleFloor = 100

// New builds a Breaker from a CircuitBreakerConfig. A nil cfg yields a nil
// Breaker whose Check always reports not-tripped.
func New(cfg *model.CircuitBreakerConfig) (*Breaker, error) {
	if cfg == nil {
		return nil, nil
	}
	cond, err := parseStopIf(cfg.StopIf)
	if err != nil {
		return nil, err
	}
	return &Breaker{cond: cond, sampleFloor: defaultSampleFloor}, nil
}

// parseStopIf tokenizes a stop_if expression by hand (metric, operator,
// threshold, optional "%") rather than matching it in one regex pass, and
// resolves the metric straight to a gauge closure and the operator straight
// to a comparator closure so Check never has to re-dispatch on a string.
func parseStopIf(expr string) (condition, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return condition{}, fmt.Errorf("empty circuit breaker condition")
	}

	metricTok, rest, err := splitMetric(expr)
	if err != nil {
		return condition{}, err
	}
	opTok, valueTok, err := splitOperator(rest)
	if err != nil {
		return condition{}, err
	}

	asPercent := strings.HasSuffix(valueTok, "%")
	valueTok = strings.TrimSuffix(valueTok, "%")
	threshold, err := strconv.ParseFloat(strings.TrimSpace(valueTok), 64)
	if err != nil {
		return condition{}, fmt.Errorf("invalid threshold value %q: %w", valueTok, err)
	}

	label, g, err := resolveGauge(metricTok, asPercent)
	if err != nil {
		return condition{}, err
	}
	cmp, ok := comparators[opTok]
	if !ok {
		return condition{}, fmt.Errorf("invalid circuit breaker operator %q in %q", opTok, expr)
	}

	return condition{
		label:     label,
		gauge:     g,
		cmp:       cmp,
		cmpSymbol: opTok,
		threshold: threshold,
		asPercent: asPercent,
	}, nil
}

// splitMetric peels the leading metric word off expr and returns whatever
// is left for the operator/value to be parsed from.
func splitMetric(expr string) (metric, rest string, err error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return "", "", fmt.Errorf("empty circuit breaker condition")
	}
	metric = strings.ToLower(fields[0])
	rest = strings.TrimSpace(strings.TrimPrefix(expr, fields[0]))
	if rest == "" {
		return "", "", fmt.Errorf("invalid circuit breaker condition %q: missing operator and threshold", expr)
	}
	return metric, rest, nil
}

// operatorTokens is tried longest-first so ">=" isn't mistaken for ">".
var operatorTokens = []string{">=", "<=", ">", "<"}

// splitOperator peels the leading comparison operator off rest and returns
// the remaining threshold text (with any % sign still attached).
func splitOperator(rest string) (op, value string, err error) {
	rest = strings.TrimSpace(rest)
	for _, tok := range operatorTokens {
		if strings.HasPrefix(rest, tok) {
			return tok, strings.TrimSpace(strings.TrimPrefix(rest, tok)), nil
		}
	}
	return "", "", fmt.Errorf("invalid circuit breaker condition: expected one of %v, got %q", operatorTokens, rest)
}

// resolveGauge maps a metric keyword onto the closure that reads it off a
// counters snapshot, normalizing aliases ("error"/"errors", "failure"/
// "failures") to a single label used in trip messages.
func resolveGauge(metric string, asPercent bool) (label string, g gauge, err error) {
	switch metric {
	case "error", "errors", "error_rate":
		label = "errors"
		return label, func(c counters) float64 {
			if c.requests == 0 {
				return 0
			}
			return float64(c.failures+c.assertFailures) / float64(c.requests) * percentScale(asPercent)
		}, nil
	case "failure", "failures":
		return "failures", func(c counters) float64 {
			return float64(c.failures + c.assertFailures)
		}, nil
	default:
		return "", nil, fmt.Errorf("unknown circuit breaker metric %q (expected errors, error_rate, or failures)", metric)
	}
}

func percentScale(asPercent bool) float64 {
	if asPercent {
		return 100
	}
	return 1
}

// Check evaluates whether the breaker should trip given a worker's running
// totals, where failures counts Timeout+TransportError outcomes and
// assertFailures counts AssertFail+ScriptError outcomes. Returns true if
// the run should stop.
func (b *Breaker) Check(totalRequests, failures, assertFailures int64) bool {
	if b == nil {
		return false
	}
	if atomic.LoadInt32(&b.tripped) == 1 {
		return true
	}
	if totalRequests < b.sampleFloor {
		return false
	}

	value := b.cond.gauge(counters{requests: totalRequests, failures: failures, assertFailures: assertFailures})
	if !b.cond.cmp(value, b.cond.threshold) {
		return false
	}

	if atomic.CompareAndSwapInt32(&b.tripped, 0, 1) {
		b.mu.Lock()
		if b.cond.asPercent {
			b.reason = fmt.Sprintf("circuit breaker tripped: %s (%.1f%%) %s threshold (%.1f%%)",
				b.cond.label, value, b.cond.cmpSymbol, b.cond.threshold)
		} else {
			b.reason = fmt.Sprintf("circuit breaker tripped: %s (%.3f) %s threshold (%.3f)",
				b.cond.label, value, b.cond.cmpSymbol, b.cond.threshold)
		}
		b.mu.Unlock()
	}
	return true
}

// IsTripped reports whether the breaker has already tripped.
func (b *Breaker) IsTripped() bool {
	if b == nil {
		return false
	}
	return atomic.LoadInt32(&b.tripped) == 1
}

// Reason returns the trip reason, or "" if not tripped.
func (b *Breaker) Reason() string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reason
}
