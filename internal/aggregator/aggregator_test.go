package aggregator

import (
	"testing"

	"github.com/surgeproj/surge/pkg/model"
)

func sampleReport(requests, success int64) *model.Report {
	h := model.NewHistogram()
	_ = h.RecordValue(int64(requests) + 1)
	return &model.Report{
		Requests:  requests,
		Success:   success,
		Fail:      requests - success,
		Histogram: h,
	}
}

func TestMergeAssociativity(t *testing.T) {
	r1 := sampleReport(10, 9)
	r2 := sampleReport(20, 18)
	r3 := sampleReport(5, 5)

	direct := New()
	direct.Merge(r1)
	direct.Merge(r2)
	direct.Merge(r3)

	grouped := New()
	sub := New()
	sub.Merge(r1)
	sub.Merge(r2)
	grouped.Merge(sub.report)
	grouped.Merge(r3)

	if direct.report.Requests != grouped.report.Requests {
		t.Fatalf("requests mismatch: %d vs %d", direct.report.Requests, grouped.report.Requests)
	}
	if direct.report.Success != grouped.report.Success {
		t.Fatalf("success mismatch: %d vs %d", direct.report.Success, grouped.report.Success)
	}
	if direct.report.Histogram.TotalCount() != grouped.report.Histogram.TotalCount() {
		t.Fatalf("histogram count mismatch: %d vs %d",
			direct.report.Histogram.TotalCount(), grouped.report.Histogram.TotalCount())
	}
}

func TestDrainClosedChannel(t *testing.T) {
	ch := NewChannel()
	ch <- sampleReport(3, 3)
	ch <- sampleReport(7, 6)
	close(ch)

	a := New()
	final := a.Drain(ch)
	if final.Requests != 10 {
		t.Fatalf("expected 10 requests, got %d", final.Requests)
	}
	if final.Success != 9 {
		t.Fatalf("expected 9 success, got %d", final.Success)
	}
}
