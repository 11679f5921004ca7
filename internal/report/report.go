// Package report renders a finished model.Report as report.json
// (encoding/json) and report.html (an interactive Chart.js dashboard),
// adapted from the teacher's internal/report/report.go.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/surgeproj/surge/pkg/model"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Surge Load Test Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: linear-gradient(135deg, #1a1a2e 0%, #16213e 50%, #0f3460 100%);
            min-height: 100vh;
            color: #e0e0e0;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
        }
        .header {
            text-align: center;
            margin-bottom: 40px;
            padding: 30px;
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
            backdrop-filter: blur(10px);
        }
        .header h1 {
            font-size: 3rem;
            background: linear-gradient(90deg, #00d9ff, #ff00ff);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
            margin-bottom: 10px;
        }
        .header p {
            color: #888;
            font-size: 1.1rem;
        }
        .summary-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .summary-card {
            background: rgba(255,255,255,0.08);
            border-radius: 15px;
            padding: 25px;
            text-align: center;
            border: 1px solid rgba(255,255,255,0.1);
            transition: transform 0.3s, box-shadow 0.3s;
        }
        .summary-card:hover {
            transform: translateY(-5px);
            box-shadow: 0 10px 30px rgba(0,217,255,0.2);
        }
        .summary-card .value {
            font-size: 2.5rem;
            font-weight: bold;
            background: linear-gradient(90deg, #00d9ff, #00ff88);
            -webkit-background-clip: text;
            -webkit-text-fill-color: transparent;
            background-clip: text;
        }
        .summary-card .label {
            color: #888;
            margin-top: 10px;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 1px;
        }
        .charts-grid {
            display: grid;
            grid-template-columns: repeat(2, 1fr);
            gap: 30px;
            margin-bottom: 40px;
        }
        @media (max-width: 1200px) {
            .charts-grid {
                grid-template-columns: 1fr;
            }
        }
        .chart-container {
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
            padding: 25px;
            border: 1px solid rgba(255,255,255,0.1);
        }
        .chart-container h3 {
            margin-bottom: 20px;
            color: #00d9ff;
            font-size: 1.3rem;
        }
        .chart-wrapper {
            position: relative;
            height: 300px;
        }
        .status-table {
            background: rgba(255,255,255,0.05);
            border-radius: 20px;
            padding: 25px;
            border: 1px solid rgba(255,255,255,0.1);
        }
        .status-table h3 {
            margin-bottom: 20px;
            color: #00d9ff;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th, td {
            padding: 15px;
            text-align: left;
            border-bottom: 1px solid rgba(255,255,255,0.1);
        }
        th {
            color: #00d9ff;
            font-weight: 600;
            text-transform: uppercase;
            font-size: 0.85rem;
            letter-spacing: 1px;
        }
        tr:hover {
            background: rgba(255,255,255,0.05);
        }
        .success-badge {
            background: linear-gradient(90deg, #00ff88, #00d9ff);
            color: #1a1a2e;
            padding: 5px 15px;
            border-radius: 20px;
            font-weight: bold;
            font-size: 0.85rem;
        }
        .error-badge {
            background: linear-gradient(90deg, #ff4757, #ff6b81);
            color: white;
            padding: 5px 15px;
            border-radius: 20px;
            font-weight: bold;
            font-size: 0.85rem;
        }
        .footer {
            text-align: center;
            padding: 30px;
            color: #666;
            font-size: 0.9rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>⚡ Surge Load Test Report</h1>
            <p>Generated at {{.GeneratedAt}}</p>
            <div style="margin-top: 20px; padding: 15px; background: rgba(0,0,0,0.2); border-radius: 10px; display: inline-block;">
                <div style="font-size: 1.2rem; margin-bottom: 5px;">
                    <span style="color: #00d9ff; font-weight: bold;">{{.BaseURL}}</span>
                </div>
                <div style="color: #888; font-size: 0.9rem;">
                    Duration: <span style="color: #00ff88">{{.TestDuration}}</span> •
                    Parallel: <span style="color: #00ff88">{{.Parallel}}</span> workers •
                    Target: <span style="color: #00ff88">{{.TargetRPS}}</span> req/s
                </div>
            </div>
        </div>

        <div class="summary-grid">
            <div class="summary-card">
                <div class="value">{{.TotalRequests}}</div>
                <div class="label">Total Requests</div>
            </div>
            <div class="summary-card">
                <div class="value">{{printf "%.1f" .SuccessRate}}%</div>
                <div class="label">Success Rate</div>
            </div>
            <div class="summary-card">
                <div class="value">{{printf "%.0f" .RPS}}</div>
                <div class="label">Requests/sec</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.P50}}</div>
                <div class="label">P50 Latency</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.P90}}</div>
                <div class="label">P90 Latency</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.P99}}</div>
                <div class="label">P99 Latency</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.Max}}</div>
                <div class="label">Max Latency</div>
            </div>
            <div class="summary-card">
                <div class="value">{{.SuccessCount}}</div>
                <div class="label">Successful</div>
            </div>
        </div>

        <div class="charts-grid">
            <div class="chart-container">
                <h3>📈 Requests Per Second (RPS)</h3>
                <div class="chart-wrapper">
                    <canvas id="rpsChart"></canvas>
                </div>
            </div>
            <div class="chart-container">
                <h3>⏱️ Latency Percentiles (ms)</h3>
                <div class="chart-wrapper">
                    <canvas id="latencyChart"></canvas>
                </div>
            </div>
            <div class="chart-container">
                <h3>✅ Success vs Failure</h3>
                <div class="chart-wrapper">
                    <canvas id="successChart"></canvas>
                </div>
            </div>
            <div class="chart-container">
                <h3>🔢 Status Class Distribution</h3>
                <div class="chart-wrapper">
                    <canvas id="statusChart"></canvas>
                </div>
            </div>
        </div>

        <div class="status-table">
            <h3>📊 Status Class Breakdown</h3>
            <table>
                <thead>
                    <tr>
                        <th>Status Class</th>
                        <th>Count</th>
                        <th>Percentage</th>
                        <th>Status</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .StatusCodesTable}}
                    <tr>
                        <td>{{.Code}}</td>
                        <td>{{.Count}}</td>
                        <td>{{printf "%.2f" .Percentage}}%</td>
                        <td>
                            {{if .IsSuccess}}
                            <span class="success-badge">Success</span>
                            {{else}}
                            <span class="error-badge">Error</span>
                            {{end}}
                        </td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        {{if .Errors}}
        <div class="status-table" style="margin-top: 30px; border-color: rgba(255, 71, 87, 0.3);">
            <h3 style="color: #ff4757;">⚠️ Transport/Timeout Errors</h3>
            <table>
                <thead>
                    <tr>
                        <th style="color: #ff4757;">Error Message</th>
                        <th style="color: #ff4757;">Count</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Errors}}
                    <tr>
                        <td style="color: #ff6b81; font-family: monospace;">{{.Message}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .AssertErrors}}
        <div class="status-table" style="margin-top: 30px; border-color: rgba(255, 187, 0, 0.3);">
            <h3 style="color: #ffbb00;">⚠️ Assert/Script Errors</h3>
            <table>
                <thead>
                    <tr>
                        <th style="color: #ffbb00;">Error Message</th>
                        <th style="color: #ffbb00;">Count</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .AssertErrors}}
                    <tr>
                        <td style="color: #ffd27a; font-family: monospace;">{{.Message}}</td>
                        <td>{{.Count}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer">
            <p>Generated by Surge - HTTP/2 closed-loop load generator</p>
        </div>
    </div>

    <script>
        Chart.defaults.color = '#888';
        Chart.defaults.borderColor = 'rgba(255,255,255,0.1)';

        const timeLabels = [{{.TimeLabels}}];
        const rpsData = [{{.RPSData}}];
        const p50Data = [{{.P50Data}}];
        const p90Data = [{{.P90Data}}];
        const p95Data = [{{.P95Data}}];
        const p99Data = [{{.P99Data}}];
        const successData = [{{.SuccessData}}];
        const failureData = [{{.FailureData}}];

        new Chart(document.getElementById('rpsChart'), {
            type: 'line',
            data: {
                labels: timeLabels,
                datasets: [{
                    label: 'RPS',
                    data: rpsData,
                    borderColor: '#00d9ff',
                    backgroundColor: 'rgba(0,217,255,0.1)',
                    fill: true,
                    tension: 0.4,
                    pointRadius: 3,
                    pointHoverRadius: 6
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    legend: { display: false }
                },
                scales: {
                    y: { beginAtZero: true, grid: { color: 'rgba(255,255,255,0.05)' } },
                    x: { grid: { color: 'rgba(255,255,255,0.05)' } }
                }
            }
        });

        new Chart(document.getElementById('latencyChart'), {
            type: 'line',
            data: {
                labels: timeLabels,
                datasets: [
                    { label: 'P50', data: p50Data, borderColor: '#00ff88', tension: 0.4, pointRadius: 2 },
                    { label: 'P90', data: p90Data, borderColor: '#ffbb00', tension: 0.4, pointRadius: 2 },
                    { label: 'P95', data: p95Data, borderColor: '#ff6b6b', tension: 0.4, pointRadius: 2 },
                    { label: 'P99', data: p99Data, borderColor: '#ff00ff', tension: 0.4, pointRadius: 2 }
                ]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    legend: { position: 'top', labels: { usePointStyle: true } }
                },
                scales: {
                    y: { beginAtZero: true, grid: { color: 'rgba(255,255,255,0.05)' } },
                    x: { grid: { color: 'rgba(255,255,255,0.05)' } }
                }
            }
        });

        new Chart(document.getElementById('successChart'), {
            type: 'bar',
            data: {
                labels: timeLabels,
                datasets: [
                    { label: 'Success', data: successData, backgroundColor: '#00ff88' },
                    { label: 'Failure', data: failureData, backgroundColor: '#ff4757' }
                ]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    legend: { position: 'top', labels: { usePointStyle: true } }
                },
                scales: {
                    x: { stacked: true, grid: { color: 'rgba(255,255,255,0.05)' } },
                    y: { stacked: true, beginAtZero: true, grid: { color: 'rgba(255,255,255,0.05)' } }
                }
            }
        });

        new Chart(document.getElementById('statusChart'), {
            type: 'doughnut',
            data: {
                labels: [{{.StatusLabels}}],
                datasets: [{
                    data: [{{.StatusData}}],
                    backgroundColor: ['#00ff88', '#00d9ff', '#ffbb00', '#ff6b6b', '#ff00ff', '#6c5ce7']
                }]
            },
            options: {
                responsive: true,
                maintainAspectRatio: false,
                plugins: {
                    legend: { position: 'right', labels: { usePointStyle: true } }
                }
            }
        });
    </script>
</body>
</html>`

// StatusCodeRow is one row of the status-class breakdown table.
type StatusCodeRow struct {
	Code       string
	Count      int64
	Percentage float64
	IsSuccess  bool
}

// ErrorRow is one row of an error breakdown table.
type ErrorRow struct {
	Message string
	Count   int64
}

// TemplateData holds everything the HTML template renders.
type TemplateData struct {
	GeneratedAt      string
	BaseURL          string
	TestDuration     string
	Parallel         uint8
	TargetRPS        uint32
	TotalRequests    int64
	SuccessCount     int64
	FailureCount     int64
	SuccessRate      float64
	RPS              float64
	P50              string
	P90              string
	P95              string
	P99              string
	Max              string
	StatusCodesTable []StatusCodeRow
	Errors           []ErrorRow
	AssertErrors     []ErrorRow
	TimeLabels       template.JS
	RPSData          template.JS
	P50Data          template.JS
	P90Data          template.JS
	P95Data          template.JS
	P99Data          template.JS
	SuccessData      template.JS
	FailureData      template.JS
	StatusLabels     template.JS
	StatusData       template.JS
}

// jsonReport is the shape written to report.json: Durations render as
// human-readable strings rather than the raw histogram, and the
// hdrhistogram.Histogram itself (internal bucket state) is omitted.
type jsonReport struct {
	Requests       int64                   `json:"requests"`
	Success        int64                   `json:"success"`
	Fail           int64                   `json:"fail"`
	AssertFailures int64                   `json:"assert_failures"`
	ScriptFailures int64                   `json:"script_failures"`
	SuccessRate    float64                 `json:"success_rate"`
	RPS            float64                 `json:"rps"`
	P50            string                  `json:"p50"`
	P75            string                  `json:"p75"`
	P90            string                  `json:"p90"`
	P95            string                  `json:"p95"`
	P99            string                  `json:"p99"`
	Max            string                  `json:"max"`
	StatusCodes    []model.StatusCodeCount `json:"status_codes"`
	Errors         []model.ErrorCount      `json:"errors"`
	AssertErrors   []model.ErrorCount      `json:"assert_errors"`
}

// GenerateJSON writes r as a compact JSON summary to filename, matching the
// teacher's saveReport helper in cmd/sayl/main.go.
func GenerateJSON(r *model.Report, duration time.Duration, filename string) error {
	jr := jsonReport{
		Requests:       r.Requests,
		Success:        r.Success,
		Fail:           r.Fail,
		AssertFailures: r.AssertFailures,
		ScriptFailures: r.ScriptFailures,
		P50:            formatDuration(quantile(r, 50)),
		P75:            formatDuration(quantile(r, 75)),
		P90:            formatDuration(quantile(r, 90)),
		P95:            formatDuration(quantile(r, 95)),
		P99:            formatDuration(quantile(r, 99)),
		Max:            formatDuration(quantile(r, 100)),
		StatusCodes:    r.StatusCodes,
		Errors:         r.Errors,
		AssertErrors:   r.AssertErrors,
	}
	if r.Requests > 0 {
		jr.SuccessRate = float64(r.Success) / float64(r.Requests) * 100
	}
	if duration.Seconds() > 0 {
		jr.RPS = float64(r.Requests) / duration.Seconds()
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file %q: %w", filename, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jr); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync report file: %w", err)
	}
	return f.Close()
}

// GenerateHTML renders r as an interactive Chart.js dashboard at filename.
func GenerateHTML(r *model.Report, cfg *model.Config, duration time.Duration, filename string) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var timeLabels, rpsData, p50Data, p90Data, p95Data, p99Data, successData, failureData []string
	sortedSeries := append([]model.SecondStats(nil), r.TimeSeries...)
	sort.Slice(sortedSeries, func(i, j int) bool { return sortedSeries[i].Second < sortedSeries[j].Second })

	for _, s := range sortedSeries {
		timeLabels = append(timeLabels, fmt.Sprintf("'%ds'", s.Second))
		rpsData = append(rpsData, fmt.Sprintf("%d", s.Requests))
		p50Data = append(p50Data, fmt.Sprintf("%.2f", secondQuantileMillis(s, 50)))
		p90Data = append(p90Data, fmt.Sprintf("%.2f", secondQuantileMillis(s, 90)))
		p95Data = append(p95Data, fmt.Sprintf("%.2f", secondQuantileMillis(s, 95)))
		p99Data = append(p99Data, fmt.Sprintf("%.2f", secondQuantileMillis(s, 99)))
		successData = append(successData, fmt.Sprintf("%d", s.Success))
		failureData = append(failureData, fmt.Sprintf("%d", s.Fail))
	}

	sortedClasses := append([]model.StatusCodeCount(nil), r.StatusCodes...)
	sort.Slice(sortedClasses, func(i, j int) bool { return sortedClasses[i].Class < sortedClasses[j].Class })

	var statusLabels, statusData []string
	var statusRows []StatusCodeRow
	for _, row := range sortedClasses {
		label := classLabel(row.Class)
		var pct float64
		if r.Requests > 0 {
			pct = float64(row.Count) / float64(r.Requests) * 100
		}
		statusLabels = append(statusLabels, fmt.Sprintf("'%s'", label))
		statusData = append(statusData, fmt.Sprintf("%d", row.Count))
		statusRows = append(statusRows, StatusCodeRow{
			Code:       label,
			Count:      row.Count,
			Percentage: pct,
			IsSuccess:  row.Class == model.Status2xx,
		})
	}

	errorRows := toErrorRows(r.Errors)
	assertErrorRows := toErrorRows(r.AssertErrors)

	var successRate, rps float64
	if r.Requests > 0 {
		successRate = float64(r.Success) / float64(r.Requests) * 100
	}
	if duration.Seconds() > 0 {
		rps = float64(r.Requests) / duration.Seconds()
	}

	data := TemplateData{
		GeneratedAt:      time.Now().Format("2006-01-02 15:04:05"),
		BaseURL:          cfg.Runner.BaseURL,
		TestDuration:     duration.String(),
		Parallel:         cfg.Parallel,
		TargetRPS:        cfg.Runner.TargetRPS,
		TotalRequests:    r.Requests,
		SuccessCount:     r.Success,
		FailureCount:     r.Fail,
		SuccessRate:      successRate,
		RPS:              rps,
		P50:              formatDuration(quantile(r, 50)),
		P90:              formatDuration(quantile(r, 90)),
		P95:              formatDuration(quantile(r, 95)),
		P99:              formatDuration(quantile(r, 99)),
		Max:              formatDuration(quantile(r, 100)),
		StatusCodesTable: statusRows,
		Errors:           errorRows,
		AssertErrors:     assertErrorRows,
		TimeLabels:       template.JS(strings.Join(timeLabels, ",")),
		RPSData:          template.JS(strings.Join(rpsData, ",")),
		P50Data:          template.JS(strings.Join(p50Data, ",")),
		P90Data:          template.JS(strings.Join(p90Data, ",")),
		P95Data:          template.JS(strings.Join(p95Data, ",")),
		P99Data:          template.JS(strings.Join(p99Data, ",")),
		SuccessData:      template.JS(strings.Join(successData, ",")),
		FailureData:      template.JS(strings.Join(failureData, ",")),
		StatusLabels:     template.JS(strings.Join(statusLabels, ",")),
		StatusData:       template.JS(strings.Join(statusData, ",")),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return tmpl.Execute(file, data)
}

func toErrorRows(counts []model.ErrorCount) []ErrorRow {
	rows := make([]ErrorRow, len(counts))
	for i, c := range counts {
		rows[i] = ErrorRow{Message: c.Message, Count: c.Count}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

func classLabel(class model.StatusClass) string {
	switch class {
	case model.Status2xx:
		return "2xx"
	case model.Status3xx:
		return "3xx"
	case model.Status4xx:
		return "4xx"
	case model.Status5xx:
		return "5xx"
	case model.StatusTimeout:
		return "Timeout"
	case model.StatusTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

func quantile(r *model.Report, q float64) time.Duration {
	if r.Histogram == nil || r.Histogram.TotalCount() == 0 {
		return 0
	}
	return time.Duration(r.Histogram.ValueAtQuantile(q)) * time.Microsecond
}

func secondQuantileMillis(s model.SecondStats, q float64) float64 {
	if s.Histogram == nil || s.Histogram.TotalCount() == 0 {
		return 0
	}
	return float64(s.Histogram.ValueAtQuantile(q)) / 1000
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
