// Package aggregator merges per-worker reports into one process-wide
// Report: commutative counter sums and associative histogram merges, so
// the final result does not depend on arrival order.
package aggregator

import (
	"sync"

	"github.com/surgeproj/surge/pkg/model"
)

// ChannelCapacity sizes the bounded report channel NewChannel returns;
// capacity 8 bounds how far ahead of a Drain loop a burst of finishing
// workers can get. The orchestrator does not use this channel: each worker
// merges its final report directly into a mutex-guarded Aggregator.
const ChannelCapacity = 8

// NewChannel returns a bounded report channel sized to ChannelCapacity.
func NewChannel() chan *model.Report {
	return make(chan *model.Report, ChannelCapacity)
}

// Aggregator accumulates reports as they arrive; Merge is commutative and
// associative so draining in any order yields the same result. A mutex
// guards concurrent Merge calls from multiple workers' tick callbacks and
// concurrent Snapshot reads from the dashboard's poll loop.
type Aggregator struct {
	mu     sync.Mutex
	report *model.Report
}

func New() *Aggregator {
	return &Aggregator{report: &model.Report{Histogram: model.NewHistogram()}}
}

// Snapshot returns a copy of the current running total, safe to hand to a
// live dashboard while workers keep merging into the aggregator.
func (a *Aggregator) Snapshot() *model.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.report.Clone()
}

// Merge folds one worker's report into the running total.
func (a *Aggregator) Merge(r *model.Report) {
	if r == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.report.Requests += r.Requests
	a.report.Success += r.Success
	a.report.Fail += r.Fail
	a.report.AssertFailures += r.AssertFailures
	a.report.ScriptFailures += r.ScriptFailures

	if r.Histogram != nil {
		_ = a.report.Histogram.Merge(r.Histogram)
	}

	for _, row := range r.StatusCodes {
		a.report.StatusCodes = mergeStatusCount(a.report.StatusCodes, row)
	}
	for _, row := range r.Errors {
		a.report.Errors = mergeErrorCount(a.report.Errors, row)
	}
	for _, row := range r.AssertErrors {
		a.report.AssertErrors = mergeErrorCount(a.report.AssertErrors, row)
	}

	a.report.TimeSeries = mergeTimeSeries(a.report.TimeSeries, r.TimeSeries)
}

// Drain reads every report off ch until it is closed, merging each one, and
// returns the final aggregate.
func (a *Aggregator) Drain(ch <-chan *model.Report) *model.Report {
	for r := range ch {
		a.Merge(r)
	}
	return a.report
}

func mergeStatusCount(rows []model.StatusCodeCount, add model.StatusCodeCount) []model.StatusCodeCount {
	for i := range rows {
		if rows[i].Class == add.Class {
			rows[i].Count += add.Count
			return rows
		}
	}
	return append(rows, add)
}

func mergeErrorCount(rows []model.ErrorCount, add model.ErrorCount) []model.ErrorCount {
	for i := range rows {
		if rows[i].Message == add.Message {
			rows[i].Count += add.Count
			return rows
		}
	}
	return append(rows, add)
}

func mergeTimeSeries(into []model.SecondStats, add []model.SecondStats) []model.SecondStats {
	bySecond := make(map[int]int, len(into))
	for i, s := range into {
		bySecond[s.Second] = i
	}
	for _, s := range add {
		if i, ok := bySecond[s.Second]; ok {
			into[i].Requests += s.Requests
			into[i].Success += s.Success
			into[i].Fail += s.Fail
			if s.Histogram != nil {
				if into[i].Histogram == nil {
					into[i].Histogram = model.NewHistogram()
				}
				_ = into[i].Histogram.Merge(s.Histogram)
			}
			continue
		}
		bySecond[s.Second] = len(into)
		into = append(into, s)
	}
	return into
}
