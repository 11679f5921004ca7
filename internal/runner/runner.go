// Package runner implements the rate-paced dispatch loop: one per worker,
// ticking at a computed cadence, dispatching a batch of requests per tick,
// and folding every outcome into a Report.
package runner

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/surgeproj/surge/internal/binder"
	"github.com/surgeproj/surge/internal/circuitbreaker"
	"github.com/surgeproj/surge/internal/feed"
	"github.com/surgeproj/surge/internal/httpclient"
	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
)

// Runner drives one worker's rate-paced dispatch loop against a shared
// global variable store.
type Runner struct {
	WorkerID int
	Config   model.RunnerConfig
	Global   *script.Global
	Client   httpclient.Client
	Breaker  *circuitbreaker.Breaker
	Feeders  map[string]feed.Feeder

	// OnTick, if set, is called with this tick's incremental report (not
	// cumulative) after every dispatched batch, so the orchestrator can
	// merge it into a live aggregator for the dashboard without waiting
	// for Run to return.
	OnTick func(*model.Report)

	templateIdx uint64 // monotonic round-robin cursor across ticks
}

// Run executes the global init script once, then ticks until duration
// elapses or the circuit breaker trips, returning the worker's Report.
func (r *Runner) Run(ctx context.Context) *model.Report {
	report := &model.Report{Histogram: model.NewHistogram()}

	if r.Config.Global.Program != nil {
		initCtx := script.NewContext(r.Global)
		if err := r.Config.Global.Program.Execute(initCtx); err != nil {
			// A broken global init script is a config-time mistake; there is
			// nothing a request can do to recover, so the worker reports
			// zero work rather than dispatching against a half-seeded global.
			return report
		}
		initCtx.PromoteLocalToGlobal()
	}

	if len(r.Config.Requests) == 0 {
		return report
	}

	batchSize := int(r.Config.BatchSize.Resolve(r.Config.TargetRPS))

	// A token-bucket limiter paces batches at target_rps, burst-sized to
	// one batch: WaitN blocks until batchSize tokens are available, which
	// is exactly one tick's worth of capacity, then lets the next batch
	// through as soon as the bucket refills. Mirrors the teacher's
	// rate.NewLimiter pacing in its attack engine, generalized from a
	// per-request limiter to a per-batch one to fit the closed-loop design.
	limiter := rate.NewLimiter(rate.Limit(r.Config.TargetRPS), batchSize)

	runStart := time.Now()
	deadline := runStart.Add(r.Config.Duration)

	for time.Now().Before(deadline) {
		if err := limiter.WaitN(ctx, batchSize); err != nil {
			return report
		}

		templates := r.nextBatch(batchSize)
		samples := r.dispatchBatch(ctx, templates)

		var tickReport *model.Report
		if r.OnTick != nil {
			tickReport = &model.Report{Histogram: model.NewHistogram()}
		}
		for _, s := range samples {
			recordSample(report, s, runStart)
			if tickReport != nil {
				recordSample(tickReport, s, runStart)
			}
		}

		if r.OnTick != nil {
			r.OnTick(tickReport)
		}

		transportFailures := report.Fail - report.AssertFailures - report.ScriptFailures
		if r.Breaker.Check(report.Requests, transportFailures, report.AssertFailures+report.ScriptFailures) {
			break
		}
	}

	return report
}

func (r *Runner) nextBatch(batchSize int) []*model.RequestTemplate {
	n := len(r.Config.Requests)
	out := make([]*model.RequestTemplate, batchSize)
	for i := 0; i < batchSize; i++ {
		idx := atomic.AddUint64(&r.templateIdx, 1) - 1
		out[i] = r.Config.Requests[int(idx)%n]
	}
	return out
}

// dispatchBatch issues every request in the batch concurrently and waits
// for all of them (closed-loop on the batch, open-loop within it).
func (r *Runner) dispatchBatch(ctx context.Context, templates []*model.RequestTemplate) []model.Sample {
	samples := make([]model.Sample, len(templates))
	var wg sync.WaitGroup
	wg.Add(len(templates))
	for i, tmpl := range templates {
		go func(i int, tmpl *model.RequestTemplate) {
			defer wg.Done()
			samples[i] = r.dispatchOne(ctx, tmpl)
		}(i, tmpl)
	}
	wg.Wait()
	return samples
}

func (r *Runner) dispatchOne(ctx context.Context, tmpl *model.RequestTemplate) model.Sample {
	reqCtx := script.NewContext(r.Global)
	if r.Feeders != nil {
		feed.BindLocal(reqCtx, r.Feeders)
	}

	start := time.Now()
	sample := model.Sample{RequestName: tmpl.Name, Worker: r.WorkerID, Timestamp: start}

	if tmpl.Before != nil {
		if err := tmpl.Before.Execute(reqCtx); err != nil {
			return failSample(sample, start, err)
		}
	}

	httpReq, err := tmpl.NewHTTPRequest(reqCtx, r.Config.BaseURL)
	if err != nil {
		return failSample(sample, start, err)
	}

	resp, err := r.Client.Do(ctx, httpReq)
	sample.Latency = time.Since(start)
	if err != nil {
		if ctx.Err() != nil || isDeadlineExceeded(err) {
			sample.Outcome = model.OutcomeTimeout
			sample.StatusClass = model.StatusTimeout
		} else {
			sample.Outcome = model.OutcomeTransportError
			sample.StatusClass = model.StatusTransport
			sample.Reason = err.Error()
		}
		return sample
	}

	sample.StatusClass = model.ClassifyStatus(resp.StatusCode)
	sample.Retries = resp.RetryCount
	binder.FromResponse(reqCtx, resp)

	if tmpl.After != nil {
		if err := tmpl.After.Execute(reqCtx); err != nil {
			return failSample(sample, start, err)
		}
	}

	sample.Outcome = model.OutcomeOk
	return sample
}

func failSample(sample model.Sample, start time.Time, err error) model.Sample {
	sample.Latency = time.Since(start)
	sample.Reason = err.Error()
	switch err.(type) {
	case *script.AssertError:
		sample.Outcome = model.OutcomeAssertFail
	default:
		sample.Outcome = model.OutcomeScriptError
	}
	return sample
}

func isDeadlineExceeded(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func recordSample(report *model.Report, s model.Sample, runStart time.Time) {
	report.Requests++
	success := s.Outcome == model.OutcomeOk
	switch s.Outcome {
	case model.OutcomeOk:
		report.Success++
	case model.OutcomeAssertFail:
		report.Fail++
		report.AssertFailures++
	case model.OutcomeScriptError:
		report.Fail++
		report.ScriptFailures++
	case model.OutcomeTimeout, model.OutcomeTransportError:
		report.Fail++
	}

	micros := s.Latency.Microseconds()
	if micros < 1 {
		micros = 1
	}
	_ = report.Histogram.RecordValue(micros)

	report.StatusCodes = appendStatusCount(report.StatusCodes, s.StatusClass)
	if s.Reason != "" {
		if s.Outcome == model.OutcomeAssertFail || s.Outcome == model.OutcomeScriptError {
			report.AssertErrors = appendErrorCount(report.AssertErrors, s.Reason)
		} else {
			report.Errors = appendErrorCount(report.Errors, s.Reason)
		}
	}

	report.TimeSeries = bucketSecond(report.TimeSeries, int(s.Timestamp.Sub(runStart).Seconds()), success, micros)
}

// bucketSecond folds one sample's latency and success/fail count into the
// SecondStats row for its wall-clock second, appending a new row the first
// time a second is seen. Rows need not arrive in order since batches
// dispatch concurrently.
func bucketSecond(rows []model.SecondStats, second int, success bool, micros int64) []model.SecondStats {
	for i := range rows {
		if rows[i].Second == second {
			addToSecond(&rows[i], success, micros)
			return rows
		}
	}
	row := model.SecondStats{Second: second, Histogram: model.NewHistogram()}
	addToSecond(&row, success, micros)
	return append(rows, row)
}

func addToSecond(row *model.SecondStats, success bool, micros int64) {
	row.Requests++
	if success {
		row.Success++
	} else {
		row.Fail++
	}
	_ = row.Histogram.RecordValue(micros)
}

func appendStatusCount(rows []model.StatusCodeCount, class model.StatusClass) []model.StatusCodeCount {
	for i := range rows {
		if rows[i].Class == class {
			rows[i].Count++
			return rows
		}
	}
	return append(rows, model.StatusCodeCount{Class: class, Count: 1})
}

func appendErrorCount(rows []model.ErrorCount, msg string) []model.ErrorCount {
	for i := range rows {
		if rows[i].Message == msg {
			rows[i].Count++
			return rows
		}
	}
	return append(rows, model.ErrorCount{Message: msg, Count: 1})
}

// effectiveBatchCadence exists for tests exercising E6 (auto batch
// sizing): given target_rps and "auto", the tick period in milliseconds.
func effectiveBatchCadence(targetRPS uint32) (batchSize uint32, tickMillis float64) {
	bs := model.BatchSize{Auto: true}
	batchSize = bs.Resolve(targetRPS)
	tickMillis = math.Round(float64(batchSize) / float64(targetRPS) * 1000)
	return batchSize, tickMillis
}
