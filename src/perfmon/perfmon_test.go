package perfmon

import (
	"errors"
	"testing"
	"time"

	"github.com/vizboard/vizboard/src/dataset"
)

func TestBudgetScaling(t *testing.T) {
	cases := []struct {
		points int
		want   time.Duration
	}{
		{0, 2 * time.Second},
		{100, 2 * time.Second},
		{10_000, 2 * time.Second},
		{20_000, 4 * time.Second},
		{50_000, 10 * time.Second},
	}
	for _, c := range cases {
		if got := Budget(c.points); got != c.want {
			t.Fatalf("Budget(%d) = %s, want %s", c.points, got, c.want)
		}
	}
}

func TestClassify(t *testing.T) {
	if got := Classify(time.Second, 100); got != ClassPass {
		t.Fatalf("1s/100pts = %s, want pass", got)
	}
	if got := Classify(3*time.Second, 100); got != ClassWarn {
		t.Fatalf("3s/100pts = %s, want warn", got)
	}
	if got := Classify(5*time.Second, 100); got != ClassFail {
		t.Fatalf("5s/100pts = %s, want fail", got)
	}
	// 20k points doubles the budget, so 3s passes.
	if got := Classify(3*time.Second, 20_000); got != ClassPass {
		t.Fatalf("3s/20k pts = %s, want pass", got)
	}
}

func TestTrackPreservesError(t *testing.T) {
	m := New()
	sentinel := errors.New("boom")
	if err := m.Track("parse", 10, func() error { return sentinel }); err != sentinel {
		t.Fatalf("Track returned %v, want sentinel", err)
	}
	if err := m.Track("parse", 10, func() error { return nil }); err != nil {
		t.Fatalf("Track returned %v, want nil", err)
	}
	if got := len(m.Samples()); got != 2 {
		t.Fatalf("samples = %d, want 2", got)
	}
}

func TestHistoryBounded(t *testing.T) {
	m := New()
	for i := 0; i < maxHistory+50; i++ {
		_ = m.Track("render", 1, func() error { return nil })
	}
	if got := len(m.Samples()); got != maxHistory {
		t.Fatalf("history = %d, want %d", got, maxHistory)
	}
}

func TestSummarize(t *testing.T) {
	m := New()
	_ = m.Track("parse", 10, func() error { return nil })
	_ = m.Track("render", 10, func() error { return nil })
	_ = m.Track("render", 10, func() error { return nil })
	sum := m.Summarize()
	if sum.Total != 3 {
		t.Fatalf("total = %d, want 3", sum.Total)
	}
	if sum.ByOp["render"] != 2 || sum.ByOp["parse"] != 1 {
		t.Fatalf("ByOp = %v", sum.ByOp)
	}
	if sum.MaxDuration < sum.AvgDuration {
		t.Fatalf("max %s < avg %s", sum.MaxDuration, sum.AvgDuration)
	}
	m.Reset()
	if m.Summarize().Total != 0 {
		t.Fatal("Reset left samples behind")
	}
}

func TestSampleDataset(t *testing.T) {
	rows := make([]dataset.Row, 1000)
	for i := range rows {
		rows[i] = dataset.Row{"v": dataset.Number(float64(i))}
	}
	ds := &dataset.Dataset{
		Columns: []string{"v"},
		Rows:    rows,
		Schema:  dataset.Schema{"v": dataset.TypeNumber},
	}
	out := SampleDataset(ds, 100)
	if out.Len() != 100 {
		t.Fatalf("sampled len = %d, want 100", out.Len())
	}
	first, _ := out.Rows[0]["v"].Float()
	last, _ := out.Rows[99]["v"].Float()
	if first != 0 || last != 999 {
		t.Fatalf("endpoints = %v..%v, want 0..999", first, last)
	}
	if got := SampleDataset(ds, 2000); got.Len() != 1000 {
		t.Fatalf("under-limit dataset resampled to %d rows", got.Len())
	}
}
