package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/surgeproj/surge/pkg/model"
)

// DashModel renders the live view of one run: a target line, a progress
// bar paced off wall-clock duration, three metric boxes, and a status
// class bar chart. It holds no knowledge of how the report arrives — the
// orchestrator pushes merged aggregator snapshots in via Update.
type DashModel struct {
	cfg      model.RunnerConfig
	report   *model.Report
	start    time.Time
	progress progress.Model
	tick     int
}

func NewDashModel(cfg model.RunnerConfig) *DashModel {
	p := progress.New(
		progress.WithScaledGradient("#00FFFF", "#00FF88"),
		progress.WithoutPercentage(),
	)
	return &DashModel{
		cfg:      cfg,
		report:   &model.Report{},
		start:    time.Now(),
		progress: p,
	}
}

func (m *DashModel) Init() tea.Cmd {
	return nil
}

func (m *DashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if r, ok := msg.(*model.Report); ok {
		m.report = r
		m.tick++
	}
	return m, nil
}

func (m *DashModel) View() string {
	var s strings.Builder

	logoLines := strings.Split(bigAsciiLogo, "\n")
	styledLogo := ""
	for _, line := range logoLines {
		if line != "" {
			styledLogo += lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(line) + "\n"
		}
	}
	headerContent := styledLogo
	headerContent += lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true).Render("  HTTP/2 closed-loop load generator")
	s.WriteString(headerBoxStyle.Render(headerContent))
	s.WriteString("\n\n")

	targetLine := fmt.Sprintf("🎯 %s  %s",
		targetStyle.Render(m.cfg.BaseURL),
		metaStyle.Render(fmt.Sprintf("│ %d req/s target │ %d request templates",
			m.cfg.TargetRPS, len(m.cfg.Requests))))
	s.WriteString(targetLine)
	s.WriteString("\n\n")

	elapsed := time.Since(m.start)
	pct := float64(elapsed) / float64(m.cfg.Duration)
	if pct > 1.0 {
		pct = 1.0
	}
	remaining := m.cfg.Duration - elapsed
	if remaining < 0 {
		remaining = 0
	}

	divider := dividerStyle.Render(strings.Repeat("━", 82))
	s.WriteString(divider)
	s.WriteString("\n")

	spinner := GetSpinnerFrame(m.tick)
	progressBar := m.progress.ViewAs(pct)
	timeInfo := fmt.Sprintf("%s  %s / %s  (remaining: %s)",
		lipgloss.NewStyle().Foreground(accentColor).Render(spinner),
		lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render(elapsed.Round(time.Second).String()),
		m.cfg.Duration.String(),
		lipgloss.NewStyle().Foreground(orangeColor).Render(remaining.Round(time.Second).String()))

	s.WriteString(progressBar)
	s.WriteString("\n")
	s.WriteString(timeInfo)
	s.WriteString("\n")
	s.WriteString(divider)
	s.WriteString("\n\n")

	rps := float64(0)
	if elapsed.Seconds() > 0 {
		rps = float64(m.report.Requests) / elapsed.Seconds()
	}

	var rpsHistory []int
	const maxLen = 20
	ts := m.report.TimeSeries
	startIdx := 0
	if len(ts) > maxLen {
		startIdx = len(ts) - maxLen
	}
	for i := startIdx; i < len(ts); i++ {
		rpsHistory = append(rpsHistory, int(ts[i].Requests))
	}
	spark := renderSparkline(rpsHistory)

	box1Content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s",
		lipgloss.NewStyle().Foreground(purpleColor).Bold(true).Render("📈 Throughput"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("RPS:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render(fmt.Sprintf("%.1f", rps)),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Target:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render(fmt.Sprintf("%d", m.cfg.TargetRPS)),
		sparklineStyle.Render(spark))
	box1 := dashBoxStyle.BorderForeground(purpleColor).Width(24).Render(box1Content)

	p50 := fmtDuration(quantileDuration(m.report, 50))
	p90 := fmtDuration(quantileDuration(m.report, 90))
	p99 := fmtDuration(quantileDuration(m.report, 99))
	maxLat := fmtDuration(quantileDuration(m.report, 100))

	box2Content := fmt.Sprintf("%s\n%s %s\n%s %s\n%s %s\n%s %s",
		lipgloss.NewStyle().Foreground(orangeColor).Bold(true).Render("⏱️  Latency"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("P50:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render(p50),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("P90:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render(p90),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("P99:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render(p99),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Max:"),
		lipgloss.NewStyle().Foreground(yellowColor).Bold(true).Render(maxLat))
	box2 := dashBoxStyle.BorderForeground(orangeColor).Width(24).Render(box2Content)

	totalReqs := m.report.Requests
	var successPct, failPct float64
	if totalReqs > 0 {
		successPct = float64(m.report.Success) / float64(totalReqs) * 100.0
		failPct = float64(m.report.Fail) / float64(totalReqs) * 100.0
	}
	failColor := successText
	if failPct > 0 {
		failColor = warnText
	}
	if failPct > 5.0 {
		failColor = errText
	}

	box3Content := fmt.Sprintf("%s\n%s %s\n%s %s %s\n%s %s %s",
		lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render("✅ Results"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Total:"),
		lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true).Render(fmt.Sprintf("%d", totalReqs)),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Success:"),
		successText.Bold(true).Render(fmt.Sprintf("%d", m.report.Success)),
		successText.Render(fmt.Sprintf("(%.1f%%)", successPct)),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Failed:"),
		failColor.Bold(true).Render(fmt.Sprintf("%d", m.report.Fail)),
		failColor.Render(fmt.Sprintf("(%.1f%%)", failPct)))
	box3 := dashBoxStyle.BorderForeground(accentColor).Width(26).Render(box3Content)

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, box1, box2, box3)
	s.WriteString(row1)
	s.WriteString("\n\n")

	s.WriteString(lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("📊 Status Classes"))
	s.WriteString("\n")

	if len(m.report.StatusCodes) > 0 {
		sorted := append([]model.StatusCodeCount(nil), m.report.StatusCodes...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })

		maxCount := int64(0)
		for _, item := range sorted {
			if item.Count > maxCount {
				maxCount = item.Count
			}
		}

		const barWidth = 20
		for _, item := range sorted {
			label, barStyle := statusClassLabel(item.Class)

			barLen := int64(0)
			if maxCount > 0 {
				barLen = item.Count * barWidth / maxCount
			}
			if barLen > barWidth {
				barLen = barWidth
			}
			if barLen < 1 && item.Count > 0 {
				barLen = 1
			}

			bar := strings.Repeat("█", int(barLen)) + strings.Repeat("░", barWidth-int(barLen))

			pctVal := float64(0)
			if totalReqs > 0 {
				pctVal = float64(item.Count) / float64(totalReqs) * 100
			}

			paddedLabel := fmt.Sprintf("%-16s", label)
			line := fmt.Sprintf("  %s %s %6d %s",
				lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(paddedLabel),
				barStyle.Render(bar),
				item.Count,
				lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(fmt.Sprintf("(%5.1f%%)", pctVal)))
			s.WriteString(line + "\n")
		}
	} else {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).Render("  Waiting for responses...") + "\n")
	}

	return s.String()
}

func quantileDuration(r *model.Report, q float64) time.Duration {
	if r.Histogram == nil || r.Histogram.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.Histogram.ValueAtQuantile(q)) * time.Microsecond
}
