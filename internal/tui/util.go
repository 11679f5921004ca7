package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/surgeproj/surge/pkg/model"
)

func fmtDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %c", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatThroughput(requests int64, durationSeconds float64) string {
	if durationSeconds <= 0 {
		return "0 req/s"
	}
	return fmt.Sprintf("%.2f req/s", float64(requests)/durationSeconds)
}

func renderSparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	levels := []string{" ", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	max := 0
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var sb string
	for _, v := range values {
		if max == 0 {
			sb += levels[0]
			continue
		}
		idx := (v * 7) / max
		if idx > 7 {
			idx = 7
		}
		sb += levels[idx]
	}
	return sb
}

// statusClassLabel renders a StatusClass as a short human label and the
// style it should be drawn in.
func statusClassLabel(class model.StatusClass) (string, lipgloss.Style) {
	switch class {
	case model.Status2xx:
		return "2xx OK", successText
	case model.Status3xx:
		return "3xx Redirect", warnText
	case model.Status4xx:
		return "4xx Client Err", warnText
	case model.Status5xx:
		return "5xx Server Err", errText
	case model.StatusTimeout:
		return "Timeout", errText
	case model.StatusTransport:
		return "Transport Err", errText
	default:
		return "Unknown", infoText
	}
}
