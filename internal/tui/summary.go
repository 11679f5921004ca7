package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/surgeproj/surge/pkg/model"
)

// SummaryModel renders the final, static report once a run completes.
type SummaryModel struct {
	report   *model.Report
	duration time.Duration
}

func NewSummaryModel(report *model.Report, duration time.Duration) *SummaryModel {
	return &SummaryModel{report: report, duration: duration}
}

func (m *SummaryModel) Init() tea.Cmd { return nil }

func (m *SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return m, nil }

var (
	sumHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true).
			MarginBottom(1)

	sumStatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginRight(2)

	sumValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)
)

func (m *SummaryModel) View() string {
	var s strings.Builder

	logo := logoStyle.Render(asciiLogo)
	s.WriteString(headerBoxStyle.Render(logo))
	s.WriteString("\n")
	s.WriteString(subtitleStyle.Render("HTTP/2 closed-loop load generator"))
	s.WriteString("\n\n")

	s.WriteString(sumHeaderStyle.Render("📊 Run Summary"))
	s.WriteString("\n\n")

	var successRate float64
	if m.report.Requests > 0 {
		successRate = float64(m.report.Success) / float64(m.report.Requests) * 100
	}
	rps := float64(0)
	if m.duration.Seconds() > 0 {
		rps = float64(m.report.Requests) / m.duration.Seconds()
	}

	s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("🚀 Traffic & Throughput"))
	s.WriteString("\n")

	tData := [][]string{
		{"Total Requests", fmt.Sprintf("%d", m.report.Requests)},
		{"Success Rate", fmt.Sprintf("%.2f%%", successRate)},
		{"RPS (Avg)", fmt.Sprintf("%.2f", rps)},
		{"Assert Failures", fmt.Sprintf("%d", m.report.AssertFailures)},
		{"Script Failures", fmt.Sprintf("%d", m.report.ScriptFailures)},
		{"Duration", m.duration.String()},
	}
	for _, row := range tData {
		s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-15s", row[0]+":")), sumValueStyle.Render(row[1])))
	}
	s.WriteString("\n")

	s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true).Render("Latency Distribution:"))
	s.WriteString("\n")

	lData := [][]string{
		{"P50", fmtDuration(quantileDuration(m.report, 50))},
		{"P75", fmtDuration(quantileDuration(m.report, 75))},
		{"P90", fmtDuration(quantileDuration(m.report, 90))},
		{"P95", fmtDuration(quantileDuration(m.report, 95))},
		{"P99", fmtDuration(quantileDuration(m.report, 99))},
		{"Max", fmtDuration(quantileDuration(m.report, 100))},
	}
	for i := 0; i < len(lData); i += 2 {
		r1 := lData[i]
		s.WriteString(fmt.Sprintf("  %s %s", sumStatStyle.Render(fmt.Sprintf("%-5s", r1[0]+":")), sumValueStyle.Render(fmt.Sprintf("%-12s", r1[1]))))
		if i+1 < len(lData) {
			r2 := lData[i+1]
			s.WriteString(fmt.Sprintf("  %s %s", sumStatStyle.Render(fmt.Sprintf("%-5s", r2[0]+":")), sumValueStyle.Render(r2[1])))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.report.StatusCodes) > 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("📊 Status Classes"))
		s.WriteString("\n")

		sorted := append([]model.StatusCodeCount(nil), m.report.StatusCodes...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Class < sorted[j].Class })

		for _, row := range sorted {
			label, style := statusClassLabel(row.Class)
			s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-15s", label+":")), style.Bold(true).Render(fmt.Sprintf("%d", row.Count))))
		}
		s.WriteString("\n")

		if len(m.report.Errors) > 0 {
			s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("❌ Transport/Timeout Errors"))
			s.WriteString("\n")
			for _, row := range m.report.Errors {
				msg := row.Message
				if len(msg) > 50 {
					msg = msg[:47] + "..."
				}
				s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-30s", msg+":")), sumValueStyle.Render(fmt.Sprintf("%d", row.Count))))
			}
			s.WriteString("\n")
		}

		if len(m.report.AssertErrors) > 0 {
			s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).Render("❌ Assert/Script Errors"))
			s.WriteString("\n")
			for _, row := range m.report.AssertErrors {
				msg := row.Message
				if len(msg) > 50 {
					msg = msg[:47] + "..."
				}
				s.WriteString(fmt.Sprintf("  %s %s\n", sumStatStyle.Render(fmt.Sprintf("%-30s", msg+":")), sumValueStyle.Render(fmt.Sprintf("%d", row.Count))))
			}
		}
	}

	s.WriteString("\n")
	s.WriteString(highlight.Render("✨ Report saved to report.json"))
	s.WriteString("\n" + subtext.Render("Press Ctrl+C to exit."))

	return s.String()
}
