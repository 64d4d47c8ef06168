// Package perfmon tracks how long dataset and chart operations take
// and flags the slow ones. Tracking is advisory: a flagged operation
// still returns whatever it returned, and a failed measurement never
// breaks the operation it wraps.
package perfmon

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
	"github.com/shirou/gopsutil/mem"

	"github.com/vizboard/vizboard/src/logging"
)

// Class grades a tracked operation against its duration budget.
type Class int

const (
	ClassPass Class = iota
	ClassWarn
	ClassFail
)

func (c Class) String() string {
	switch c {
	case ClassWarn:
		return "warn"
	case ClassFail:
		return "fail"
	default:
		return "pass"
	}
}

// baseBudget is the allowance for datasets up to basePoints points.
// Larger inputs scale the budget linearly; smaller ones keep the floor.
const (
	baseBudget = 2 * time.Second
	basePoints = 10_000
	maxHistory = 512
)

// Budget returns the duration allowance for an operation over the
// given number of data points.
func Budget(points int) time.Duration {
	if points <= basePoints {
		return baseBudget
	}
	return time.Duration(float64(baseBudget) * float64(points) / float64(basePoints))
}

// Classify grades a measured duration against the budget for points.
func Classify(d time.Duration, points int) Class {
	budget := Budget(points)
	switch {
	case d > 2*budget:
		return ClassFail
	case d > budget:
		return ClassWarn
	default:
		return ClassPass
	}
}

// Sample is one tracked operation.
type Sample struct {
	Op       string
	Start    time.Time
	Duration time.Duration
	MemDelta int64
	Points   int
	Class    Class
}

// Monitor records samples into a bounded history.
type Monitor struct {
	mu      sync.Mutex
	history deque.Deque[Sample]
}

func New() *Monitor {
	return &Monitor{}
}

// Track runs fn, records a sample for it, and returns fn's error
// untouched. A slow run is logged and graded but never turned into an
// error, and any failure reading memory stats is simply recorded as a
// zero delta.
func (m *Monitor) Track(op string, points int, fn func() error) error {
	before := usedMemory()
	start := time.Now()
	err := fn()
	d := time.Since(start)
	after := usedMemory()
	var memDelta int64
	if before > 0 && after > 0 {
		memDelta = after - before
	}
	s := Sample{
		Op:       op,
		Start:    start,
		Duration: d,
		MemDelta: memDelta,
		Points:   points,
		Class:    Classify(d, points),
	}
	m.record(s)
	switch s.Class {
	case ClassWarn:
		logging.Warnf("perfmon: %s took %s for %d points (budget %s)", op, d, points, Budget(points))
	case ClassFail:
		logging.Errorf("perfmon: %s took %s for %d points, more than twice the %s budget", op, d, points, Budget(points))
	}
	return err
}

func (m *Monitor) record(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.history.Len() >= maxHistory {
		m.history.PopFront()
	}
	m.history.PushBack(s)
}

// Samples returns the recorded history, oldest first.
func (m *Monitor) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, m.history.Len())
	for i := 0; i < m.history.Len(); i++ {
		out[i] = m.history.At(i)
	}
	return out
}

// Reset clears the history.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history.Clear()
}

// Summary aggregates the current history.
type Summary struct {
	Total       int
	Warnings    int
	Failures    int
	AvgDuration time.Duration
	MaxDuration time.Duration
	ByOp        map[string]int
}

func (m *Monitor) Summarize() Summary {
	samples := m.Samples()
	sum := Summary{ByOp: make(map[string]int)}
	var total time.Duration
	for _, s := range samples {
		sum.Total++
		sum.ByOp[s.Op]++
		total += s.Duration
		if s.Duration > sum.MaxDuration {
			sum.MaxDuration = s.Duration
		}
		switch s.Class {
		case ClassWarn:
			sum.Warnings++
		case ClassFail:
			sum.Failures++
		}
	}
	if sum.Total > 0 {
		sum.AvgDuration = total / time.Duration(sum.Total)
	}
	return sum
}

func usedMemory() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return int64(vm.Used)
}
