package runner

import (
	"context"
	"testing"
	"time"

	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
)

// fakeClient always succeeds instantly with a 200 and no body.
type fakeClient struct{}

func (fakeClient) Do(ctx context.Context, req *model.HTTPRequest) (*model.HTTPResponse, error) {
	return &model.HTTPResponse{StatusCode: 200, Headers: map[string][]string{}}, nil
}

// slowClient blocks until the request's own context deadline (set from
// HTTPRequest.Timeout, the way internal/httpclient.client.Do does it) fires,
// simulating a server that never responds in time.
type slowClient struct{ delay time.Duration }

func (s slowClient) Do(ctx context.Context, req *model.HTTPRequest) (*model.HTTPResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	select {
	case <-time.After(s.delay):
		return &model.HTTPResponse{StatusCode: 200, Headers: map[string][]string{}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func mustProgram(t *testing.T, src string) *script.Program {
	t.Helper()
	p, err := script.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// TestCounterPropagation exercises E1: a global COUNTER incremented by every
// request's after-script should land close to target_rps * duration.
func TestCounterPropagation(t *testing.T) {
	global := script.NewGlobal()
	tmpl := model.NewRequestTemplate("noop", "GET", "/", nil, "", time.Second,
		nil, mustProgram(t, "def COUNTER = COUNTER + 1"))

	r := &Runner{
		WorkerID: 0,
		Config: model.RunnerConfig{
			TargetRPS: 10,
			Duration:  1 * time.Second,
			BatchSize: model.BatchSize{Fixed: 1},
			BaseURL:   "http://example.invalid",
			Global:    model.GlobalScript{Program: mustProgram(t, "def COUNTER = 0")},
			Requests:  []*model.RequestTemplate{tmpl},
		},
		Global: global,
		Client: fakeClient{},
	}

	report := r.Run(context.Background())

	if report.Requests < 9 || report.Requests > 11 {
		t.Fatalf("expected ~10 requests, got %d", report.Requests)
	}

	ctx := script.NewContext(global)
	counter, err := ctx.MustGet("COUNTER")
	if err != nil {
		t.Fatal(err)
	}
	n, _ := counter.AsInt()
	if n < 9 || n > 11 {
		t.Fatalf("expected COUNTER in [9,11], got %d", n)
	}
}

func TestAutoBatchCadence(t *testing.T) {
	batchSize, tickMillis := effectiveBatchCadence(100)
	if batchSize != 10 {
		t.Fatalf("expected batch size 10, got %d", batchSize)
	}
	if tickMillis != 100 {
		t.Fatalf("expected 100ms tick, got %v", tickMillis)
	}
}

func TestAssertFailureContinuesRun(t *testing.T) {
	global := script.NewGlobal()
	tmpl := model.NewRequestTemplate("noop", "GET", "/", nil, "", time.Second,
		nil, mustProgram(t, "assert responseStatus == 500"))

	r := &Runner{
		Config: model.RunnerConfig{
			TargetRPS: 5,
			Duration:  300 * time.Millisecond,
			BatchSize: model.BatchSize{Fixed: 1},
			BaseURL:   "http://example.invalid",
			Requests:  []*model.RequestTemplate{tmpl},
		},
		Global: global,
		Client: fakeClient{},
	}

	report := r.Run(context.Background())
	if report.Requests == 0 {
		t.Fatal("expected at least one request")
	}
	if report.AssertFailures != report.Requests {
		t.Fatalf("expected every request to assert-fail, got %d/%d", report.AssertFailures, report.Requests)
	}
	if report.Success != 0 {
		t.Fatalf("expected zero successes, got %d", report.Success)
	}
}

// TestRequestTimeoutPropagatesToOutcome exercises E4: a template's
// timeout: must reach the dispatched HTTPRequest so a server that's slower
// than it yields Outcome=Timeout instead of hanging for the run's duration.
func TestRequestTimeoutPropagatesToOutcome(t *testing.T) {
	global := script.NewGlobal()
	tmpl := model.NewRequestTemplate("slow", "GET", "/", nil, "", 100*time.Millisecond, nil, nil)

	r := &Runner{
		Global: global,
		Client: slowClient{delay: 1 * time.Second},
	}

	sample := r.dispatchOne(context.Background(), tmpl)
	if sample.Outcome != model.OutcomeTimeout {
		t.Fatalf("expected Outcome=Timeout, got %v", sample.Outcome)
	}
	if sample.Latency >= 1*time.Second {
		t.Fatalf("expected request to be cut off near the 100ms template timeout, took %v", sample.Latency)
	}
}
