// Package orchestrator owns the lifecycle of a run: it builds one Runner
// per worker, wires each to its own script.Global, CSV feeders and circuit
// breaker, starts them concurrently, and exposes a live aggregator snapshot
// plus the final merged Report to whichever presentation layer (TUI or
// plain stdout) the caller chose.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/surgeproj/surge/internal/aggregator"
	"github.com/surgeproj/surge/internal/circuitbreaker"
	"github.com/surgeproj/surge/internal/feed"
	"github.com/surgeproj/surge/internal/httpclient"
	"github.com/surgeproj/surge/internal/logging"
	"github.com/surgeproj/surge/internal/runner"
	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
)

// SnapshotInterval is how often Run pushes a merged Report on Snapshots,
// matching the teacher's 100ms dashboard tick.
const SnapshotInterval = 100 * time.Millisecond

// Run drives every worker to completion and streams progress to the
// caller. Snapshots receives a merged Report roughly every
// SnapshotInterval while the run is active; Done receives exactly one
// final Report and is then closed, at which point Snapshots is also
// closed. Both channels are safe to read until closed.
type Run struct {
	Snapshots <-chan *model.Report
	Done      <-chan *model.Report
}

// Start launches cfg.Parallel workers against ctx and returns immediately;
// the caller drives the TUI (or a plain-text loop) off the returned
// channels while the workers run in the background.
func Start(ctx context.Context, cfg *model.Config) (*Run, error) {
	logger := logging.New(cfg.LogLevel)
	live := aggregator.New()
	final := aggregator.New()

	snapshots := make(chan *model.Report, aggregator.ChannelCapacity)
	done := make(chan *model.Report, 1)

	workers := make([]*runner.Runner, 0, cfg.Parallel)
	for i := 0; i < int(cfg.Parallel); i++ {
		w, err := buildWorker(i, cfg, live)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}

	logger.Info("starting %d worker(s) against %s at %d req/s for %s",
		len(workers), cfg.Runner.BaseURL, cfg.Runner.TargetRPS, cfg.Runner.Duration)

	runCtx, cancel := context.WithTimeout(ctx, cfg.Runner.Duration+workerGracePeriod)

	var wg sync.WaitGroup
	wg.Add(len(workers))
	for _, w := range workers {
		go func(w *runner.Runner) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					logger.Error("worker %d panicked, continuing without it: %v", w.WorkerID, p)
				}
			}()
			rep := w.Run(runCtx)
			final.Merge(rep)
			logger.Debug("worker %d finished: %d requests, %d success, %d fail",
				w.WorkerID, rep.Requests, rep.Success, rep.Fail)
			if w.Breaker != nil && w.Breaker.IsTripped() {
				logger.Warn("worker %d circuit breaker tripped: %s", w.WorkerID, w.Breaker.Reason())
			}
		}(w)
	}

	ticker := time.NewTicker(SnapshotInterval)
	go func() {
		defer cancel()
		defer ticker.Stop()
		defer close(snapshots)
		defer close(done)

		workersDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(workersDone)
		}()

		for {
			select {
			case <-ticker.C:
				select {
				case snapshots <- live.Snapshot():
				default:
					// a slow consumer shouldn't stall the run; drop this tick
				}
			case <-workersDone:
				done <- final.Snapshot()
				return
			}
		}
	}()

	return &Run{Snapshots: snapshots, Done: done}, nil
}

// workerGracePeriod bounds how long Start waits past the configured
// duration for in-flight requests and after-scripts to finish before
// forcing cancellation.
const workerGracePeriod = 30 * time.Second

func buildWorker(id int, cfg *model.Config, live *aggregator.Aggregator) (*runner.Runner, error) {
	breaker, err := circuitbreaker.New(cfg.Runner.CircuitBreaker)
	if err != nil {
		return nil, err
	}

	feeders := make(map[string]feed.Feeder, len(cfg.Runner.Data))
	for _, d := range cfg.Runner.Data {
		f, err := feed.NewCSVFeeder(d.Name, d.Path)
		if err != nil {
			return nil, err
		}
		feeders[d.Name] = f
	}

	h2c := isH2CTarget(cfg.Runner.BaseURL)
	client := httpclient.New(httpclient.Options{H2C: h2c})

	return &runner.Runner{
		WorkerID: id,
		Config:   cfg.Runner,
		Global:   script.NewGlobal(),
		Client:   client,
		Breaker:  breaker,
		Feeders:  feeders,
		OnTick:   live.Merge,
	}, nil
}

// isH2CTarget reports whether baseURL looks like a plaintext target, in
// which case the transport dials cleartext HTTP/2 (h2c) instead of
// negotiating HTTP/2 over TLS.
func isH2CTarget(baseURL string) bool {
	return len(baseURL) >= 7 && baseURL[:7] == "http://"
}
