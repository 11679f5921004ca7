package model

import (
	"github.com/HdrHistogram/hdrhistogram-go"
)

// SecondStats buckets throughput and latency for one wall-clock second of a
// run, letting the HTML/JSON writers render a requests-over-time chart.
type SecondStats struct {
	Second      int
	Requests    int64
	Success     int64
	Fail        int64
	Histogram   *hdrhistogram.Histogram
}

// StatusCodeCount is one (status class, count) row.
type StatusCodeCount struct {
	Class StatusClass
	Count int64
}

// ErrorCount is one (message, count) row, used for both transport errors and
// assertion-failure reasons.
type ErrorCount struct {
	Message string
	Count   int64
}

// Report is one worker's run summary. The aggregator merges N of these
// (counters sum, histograms merge) into a final process-wide Report.
type Report struct {
	Requests int64
	Success  int64
	Fail     int64

	AssertFailures int64
	ScriptFailures int64

	Histogram *hdrhistogram.Histogram

	StatusCodes []StatusCodeCount
	Errors      []ErrorCount
	AssertErrors []ErrorCount

	TimeSeries []SecondStats
}

// NewHistogram returns a histogram sized for microsecond latencies up to
// 30s, matching the precision the report writers render at.
func NewHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, 30_000_000, 3)
}

// Clone returns an independent copy, safe to hand to a live dashboard while
// the original keeps accumulating in the runner's tick loop.
func (r *Report) Clone() *Report {
	clone := &Report{
		Requests:       r.Requests,
		Success:        r.Success,
		Fail:           r.Fail,
		AssertFailures: r.AssertFailures,
		ScriptFailures: r.ScriptFailures,
		Histogram:      NewHistogram(),
	}
	if r.Histogram != nil {
		_ = clone.Histogram.Merge(r.Histogram)
	}
	clone.StatusCodes = append([]StatusCodeCount(nil), r.StatusCodes...)
	clone.Errors = append([]ErrorCount(nil), r.Errors...)
	clone.AssertErrors = append([]ErrorCount(nil), r.AssertErrors...)
	clone.TimeSeries = append([]SecondStats(nil), r.TimeSeries...)
	for i := range clone.TimeSeries {
		if h := clone.TimeSeries[i].Histogram; h != nil {
			clone.TimeSeries[i].Histogram = NewHistogram()
			_ = clone.TimeSeries[i].Histogram.Merge(h)
		}
	}
	return clone
}
