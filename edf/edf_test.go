package edf

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-foundations/rtsched/kernel"
	"github.com/stretchr/testify/suite"
)

// bufWriter is a goroutine-safe io.Writer buffer for capturing tracer
// output under the simulated kernel's concurrent workers.
type bufWriter struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *bufWriter) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *bufWriter) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// testLogger forwards warnings to the test log; the EDFTestSuite does
// not assert on them.
type testLogger struct{ t *testing.T }

func (l testLogger) Warnf(format string, args ...interface{}) { l.t.Logf(format, args...) }

type EDFTestSuite struct {
	suite.Suite
}

func TestEDFSuite(t *testing.T) {
	suite.Run(t, new(EDFTestSuite))
}

// buildSystem wires workers with the given periods plus a
// controller, all on a fast SimKernel, and runs the system to
// completion.
func (s *EDFTestSuite) buildSystem(periods []kernel.Tick, hyperperiod kernel.Tick) (*bufWriter, *SimState) {
	k := kernel.New(100 * time.Microsecond)
	out := &bufWriter{}
	tracer := NewTracer(out)
	state := NewSimState(hyperperiod)
	logger := testLogger{s.T()}

	names := []string{"Temp", "Pressure", "Height", "Worker4", "Worker5"}
	specs := make([]WorkerSpec, len(periods))
	for i, p := range periods {
		specs[i] = WorkerSpec{
			Name:   names[i%len(names)],
			Period: p,
			Body:   func() int { return 1 },
		}
	}

	table := NewSharedTable(k, specs)

	const basePriority = 2
	ctrl := NewController(k, table, state, tracer, logger, len(specs), basePriority, kernel.Tick(100))
	k.CreateTask("controller", basePriority+len(specs), ctrl.Run)

	for i, spec := range specs {
		spec := spec
		i := i
		w := NewWorker(k, table, state, tracer, logger, i, spec)
		k.CreateTask(spec.Name, basePriority+i, w.Run)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = k.Run(ctx)

	return out, state
}

// TestWorkersCompleteAtHyperperiod checks that a three-worker system
// with periods {500, 750, 1000} terminates and marks itself complete
// at the hyperperiod (1500).
func (s *EDFTestSuite) TestWorkersCompleteAtHyperperiod() {
	out, state := s.buildSystem([]kernel.Tick{500, 750, 1000}, 1500)
	s.True(state.Complete())
	s.Contains(out.String(), "START Job")
}

// TestPriorityOrderTracksEarliestDeadline checks the controller
// emitted at least one priority-order line over the run, i.e. that it
// observed deadlines moving and rewrote priorities in response.
func (s *EDFTestSuite) TestPriorityOrderTracksEarliestDeadline() {
	out, _ := s.buildSystem([]kernel.Tick{500, 750, 1000}, 1500)
	lines := strings.Split(out.String(), "\n")
	found := false
	for _, line := range lines {
		if strings.Contains(line, "New Priority Order:") {
			found = true
		}
	}
	s.True(found, "expected at least one priority-order line")
}

// TestRankOrderWithTiedDeadlines pins the ranking directly on the
// comparator: at tick 0 with periods {500, 1000, 750}, TempTask
// (deadline 500) outranks HeightTask (750) outranks PressureTask
// (1000); after TempTask's first release its deadline becomes 1000,
// tying PressureTask, and the index tie-break keeps TempTask (index
// 0) above PressureTask (index 1).
func (s *EDFTestSuite) TestRankOrderWithTiedDeadlines() {
	atTickZero := []slot{
		{index: 0, name: "TempTask", nextDeadline: 500},
		{index: 1, name: "PressureTask", nextDeadline: 1000},
		{index: 2, name: "HeightTask", nextDeadline: 750},
	}
	bubbleSortByDeadline(atTickZero)
	s.Equal("TempTask", atTickZero[0].name)
	s.Equal("HeightTask", atTickZero[1].name)
	s.Equal("PressureTask", atTickZero[2].name)

	afterFirstRelease := []slot{
		{index: 0, name: "TempTask", nextDeadline: 1000},
		{index: 1, name: "PressureTask", nextDeadline: 1000},
		{index: 2, name: "HeightTask", nextDeadline: 1500},
	}
	bubbleSortByDeadline(afterFirstRelease)
	s.Equal("TempTask", afterFirstRelease[0].name)
	s.Equal("PressureTask", afterFirstRelease[1].name)
}

func (s *EDFTestSuite) TestBubbleSortByDeadlineOrdersAscending() {
	slots := []slot{
		{index: 2, nextDeadline: 300},
		{index: 0, nextDeadline: 100},
		{index: 1, nextDeadline: 100},
	}
	bubbleSortByDeadline(slots)
	s.Equal(kernel.Tick(100), slots[0].nextDeadline)
	s.Equal(0, slots[0].index)
	s.Equal(1, slots[1].index)
	s.Equal(kernel.Tick(300), slots[2].nextDeadline)
}
