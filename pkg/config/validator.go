package config

import (
	"fmt"
	"strings"

	"github.com/surgeproj/surge/internal/circuitbreaker"
	"github.com/surgeproj/surge/pkg/model"
)

// ValidationError represents a single validation error with context and a
// suggestion, rendered into one numbered entry in the final report.
type ValidationError struct {
	Field      string
	Value      string
	Message    string
	Expected   string
	Hint       string
	DidYouMean string
}

type ValidationResult struct {
	Errors []ValidationError
}

func (v *ValidationResult) Add(err ValidationError) {
	v.Errors = append(v.Errors, err)
}

func (v *ValidationResult) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationResult) FormatErrors() string {
	if !v.HasErrors() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nConfiguration errors:\n")
	for i, err := range v.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %s\n", i+1, err.Field))
		if err.Value != "" {
			sb.WriteString(fmt.Sprintf("     - value: %q\n", truncate(err.Value, 50)))
		}
		sb.WriteString(fmt.Sprintf("     - error: %s\n", err.Message))
		if err.Expected != "" {
			sb.WriteString(fmt.Sprintf("     - expected: %s\n", err.Expected))
		}
		if err.DidYouMean != "" {
			sb.WriteString(fmt.Sprintf("     - did you mean: %q?\n", err.DidYouMean))
		}
		if err.Hint != "" {
			sb.WriteString(fmt.Sprintf("     - hint: %s\n", err.Hint))
		}
	}
	return sb.String()
}

var validHTTPMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH"}

var fieldHints = map[string]string{
	"runner.base_url":   "Provide the full URL including scheme (e.g. http://localhost:8080)",
	"runner.target_rps":  "Requests per second as a positive integer (e.g. 100)",
	"runner.duration":    "Test duration with unit (e.g. '30s', '2m', '1h')",
	"runner.batch_size":  "A positive integer or the string \"auto\"",
	"parallel":           "Number of worker goroutines as a positive integer (e.g. 4)",
	"runner.stop_if":     "A condition like 'errors > 10%' or 'failures > 5'",
}

func GetHint(field string) string {
	return fieldHints[field]
}

// ValidateHTTPMethod reports whether method is one of spec.md's supported
// verbs, and a closest-match suggestion when it isn't.
func ValidateHTTPMethod(method string) (bool, string) {
	upper := strings.ToUpper(method)
	for _, valid := range validHTTPMethods {
		if upper == valid {
			return true, ""
		}
	}
	return false, FindClosestMatch(method, validHTTPMethods)
}

func levenshteinDistance(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = minOf3(matrix[i-1][j]+1, matrix[i][j-1]+1, matrix[i-1][j-1]+cost)
		}
	}
	return matrix[len(a)][len(b)]
}

// FindClosestMatch returns the nearest entry in validOptions to input, or ""
// if nothing is close enough to be a useful suggestion.
func FindClosestMatch(input string, validOptions []string) string {
	if input == "" {
		return ""
	}
	best, bestDist := "", 100
	for _, option := range validOptions {
		d := levenshteinDistance(input, option)
		if d < bestDist && d <= len(option)/2+1 {
			bestDist = d
			best = option
		}
	}
	if strings.EqualFold(input, best) {
		return ""
	}
	return best
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func minOf3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// Validate checks a fully built Config for the mistakes a YAML author is
// likely to make, returning every error found (not just the first) so a
// run can be fixed in one pass.
func Validate(cfg *model.Config) error {
	result := &ValidationResult{}

	if cfg.Parallel == 0 {
		result.Add(ValidationError{
			Field:    "parallel",
			Message:  "must be at least 1",
			Expected: "positive integer",
			Hint:     GetHint("parallel"),
		})
	}

	r := &cfg.Runner
	if r.BaseURL == "" {
		result.Add(ValidationError{
			Field:   "runner.base_url",
			Message: "missing required field",
			Hint:    GetHint("runner.base_url"),
		})
	}
	if r.TargetRPS == 0 {
		result.Add(ValidationError{
			Field:    "runner.target_rps",
			Message:  "must be greater than 0",
			Expected: "positive integer",
			Hint:     GetHint("runner.target_rps"),
		})
	}
	if r.Duration <= 0 {
		result.Add(ValidationError{
			Field:   "runner.duration",
			Message: "missing or invalid duration",
			Hint:    GetHint("runner.duration"),
		})
	}
	if len(r.Requests) == 0 {
		result.Add(ValidationError{
			Field:   "runner.requests",
			Message: "at least one request is required",
		})
	}

	for i, tmpl := range r.Requests {
		if valid, suggestion := ValidateHTTPMethod(tmpl.Method); !valid {
			err := ValidationError{
				Field:    fmt.Sprintf("runner.requests[%d].method", i),
				Value:    tmpl.Method,
				Message:  "invalid HTTP method",
				Expected: "GET, POST, PUT, DELETE, or PATCH",
			}
			if suggestion != "" {
				err.DidYouMean = suggestion
			}
			result.Add(err)
		}
	}

	if r.CircuitBreaker != nil {
		if _, err := circuitbreaker.New(r.CircuitBreaker); err != nil {
			result.Add(ValidationError{
				Field:   "runner.stop_if",
				Value:   r.CircuitBreaker.StopIf,
				Message: err.Error(),
				Hint:    GetHint("runner.stop_if"),
			})
		}
	}

	if result.HasErrors() {
		return fmt.Errorf("%s", result.FormatErrors())
	}
	return nil
}
