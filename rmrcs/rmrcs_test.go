package rmrcs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/suite"
)

type RMRCSTestSuite struct {
	suite.Suite
}

func TestRMRCSSuite(t *testing.T) {
	suite.Run(t, new(RMRCSTestSuite))
}

// Three tasks whose hyperperiod is 105 must complete all 71 jobs
// with zero deadline misses.
func (s *RMRCSTestSuite) TestThreeTaskSetRunsWithoutMisses() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 1, Period: 3},
		{ID: 2, Arrival: 0, WCET: 2, Period: 5},
		{ID: 3, Arrival: 0, WCET: 2, Period: 7},
	}
	sim := NewSimulator[int](tasks, WCETOnly[int])
	s.Equal(105, sim.Hyperperiod())
	s.Len(sim.Jobs(), 35+21+15)

	result, err := sim.Run()
	s.Require().NoError(err)
	s.Empty(result.Misses)
}

// The exact pure-RM schedule for a set where no feasible extension
// exists.
func (s *RMRCSTestSuite) TestPureRMExactSchedule() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 1, Period: 2},
		{ID: 2, Arrival: 0, WCET: 1, Period: 4},
	}
	sim := NewSimulator[int](tasks, WCETOnly[int])
	s.Equal(4, sim.Hyperperiod())

	result, err := sim.Run()
	s.Require().NoError(err)

	want := []ScheduleEntry[int]{
		{Start: 0, End: 1, TaskID: 1, JobID: 1},
		{Start: 1, End: 2, TaskID: 2, JobID: 1, ContextSwitch: true},
		{Start: 2, End: 3, TaskID: 1, JobID: 2, ContextSwitch: true},
		{Start: 3, End: 4, TaskID: 0, JobID: 0},
	}
	if diff := cmp.Diff(want, result.Schedule); diff != "" {
		s.Fail("schedule mismatch", diff)
	}
	s.Equal(2, result.ContextSwitches)
	s.Equal(1, result.IdleTime)
}

// After the merge pass there must be exactly one T1j1 and one T1j2
// entry.
func (s *RMRCSTestSuite) TestMergeCollapsesSplitRuns() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 2, Period: 4},
		{ID: 2, Arrival: 0, WCET: 2, Period: 8},
	}
	sim := NewSimulator[int](tasks, WCETOnly[int])
	s.Equal(8, sim.Hyperperiod())

	result, err := sim.Run()
	s.Require().NoError(err)

	count := func(taskID, jobID int) int {
		n := 0
		for _, e := range result.Schedule {
			if e.TaskID == taskID && e.JobID == jobID {
				n++
			}
		}
		return n
	}
	s.Equal(1, count(1, 1))
	s.Equal(1, count(1, 2))
}

// A binary search for max extension is bounded by the closed-form
// slack formula: with T1 (period 2, wcet 1) ready and T2 (period 4,
// wcet 2) current, T1 has exactly enough room to run to completion by
// its own deadline and no more, so the maximum safe extension equals
// that slack exactly.
func (s *RMRCSTestSuite) TestOracleBoundedByDeadlineSlack() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 1, Period: 2},
		{ID: 2, Arrival: 0, WCET: 2, Period: 4},
	}
	h := CalculateHyperperiod(tasks)
	order := newPriorityOrder(tasks)
	jobs := GenerateJobs[int](tasks, h, WCETOnly[int])
	oracle := NewOracle[int](order, h)

	currentIdx := -1
	for i, j := range jobs {
		if j.TaskID == 2 && j.JobID == 1 {
			currentIdx = i
		}
	}
	s.Require().NotEqual(-1, currentIdx)

	delta := oracle.MaxExtension(jobs, currentIdx, 0)
	s.Equal(1, delta)
	s.False(oracle.Feasible(jobs, currentIdx, 0, 2))
}

// With all actual times equal to WCET, the actual-time variant must
// produce the same schedule as the WCET-only variant, modulo numeric
// formatting.
func (s *RMRCSTestSuite) TestActualTimesEqualWCETSchedulesMatch() {
	tasksInt := []Task{
		{ID: 1, Arrival: 0, WCET: 1, Period: 3},
		{ID: 2, Arrival: 0, WCET: 2, Period: 5},
	}
	tasksFloat := make([]Task, len(tasksInt))
	for i, t := range tasksInt {
		t.Actual = float64(t.WCET)
		t.HasActual = true
		tasksFloat[i] = t
	}

	intSim := NewSimulator[int](tasksInt, WCETOnly[int])
	floatSim := NewSimulator[float64](tasksFloat, ActualTime[float64])

	intResult, err := intSim.Run()
	s.Require().NoError(err)
	floatResult, err := floatSim.Run()
	s.Require().NoError(err)

	s.Require().Len(floatResult.Schedule, len(intResult.Schedule))
	for i := range intResult.Schedule {
		a, b := intResult.Schedule[i], floatResult.Schedule[i]
		s.Equal(a.TaskID, b.TaskID)
		s.Equal(a.JobID, b.JobID)
		s.Equal(a.ContextSwitch, b.ContextSwitch)
		s.InDelta(float64(a.Start), b.Start, Epsilon)
		s.InDelta(float64(a.End), b.End, Epsilon)
	}
	s.Equal(intResult.ContextSwitches, floatResult.ContextSwitches)
}

func (s *RMRCSTestSuite) TestHyperperiodInvariant() {
	tasks := []Task{{ID: 1, Period: 3}, {ID: 2, Period: 5}, {ID: 3, Period: 7}}
	h := CalculateHyperperiod(tasks)
	s.Equal(105, h)
	for _, t := range tasks {
		s.Zero(h % t.Period)
	}
}

func (s *RMRCSTestSuite) TestTimeConservation() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 1, Period: 3},
		{ID: 2, Arrival: 0, WCET: 2, Period: 5},
		{ID: 3, Arrival: 0, WCET: 2, Period: 7},
	}
	sim := NewSimulator[int](tasks, WCETOnly[int])
	result, err := sim.Run()
	s.Require().NoError(err)

	total := 0
	idleTotal := 0
	for _, e := range result.Schedule {
		total += e.End - e.Start
		if e.TaskID == 0 {
			idleTotal += e.End - e.Start
		}
	}
	s.Equal(sim.Hyperperiod(), total)
	s.Equal(result.IdleTime, idleTotal)
}

func (s *RMRCSTestSuite) TestMergeIdempotence() {
	entries := []ScheduleEntry[int]{
		{Start: 0, End: 1, TaskID: 1, JobID: 1},
		{Start: 1, End: 2, TaskID: 1, JobID: 1},
		{Start: 2, End: 3, TaskID: 2, JobID: 1, ContextSwitch: true},
	}
	once := MergeSchedule(entries)
	twice := MergeSchedule(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		s.Fail("merge is not idempotent", diff)
	}
	s.Len(once, 2)
}

func (s *RMRCSTestSuite) TestParseTasksBareForm() {
	r := strings.NewReader("0 1 3\n0 2 5\n0 2 7\n")
	tasks, err := ParseTasks(r)
	s.Require().NoError(err)
	s.Len(tasks, 3)
	s.Equal(3, tasks[0].Period)
}

func (s *RMRCSTestSuite) TestParseTasksCountPrefixedForm() {
	r := strings.NewReader("2\n0 1 3\n0 2 5\n")
	tasks, err := ParseTasks(r)
	s.Require().NoError(err)
	s.Len(tasks, 2)
}

// An overloaded task set must surface misses even for jobs that never
// get the CPU at all: T1 saturates it, so every T2 job starves.
func (s *RMRCSTestSuite) TestStarvedJobsRecordMisses() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 3, Period: 3},
		{ID: 2, Arrival: 0, WCET: 5, Period: 5},
	}
	sim := NewSimulator[int](tasks, WCETOnly[int])
	result, err := sim.Run()
	s.Require().NoError(err)
	s.NotEmpty(result.Misses)
	for _, m := range result.Misses {
		s.Equal(2, m.TaskID)
	}

	failFast := NewSimulator[int](tasks, WCETOnly[int])
	failFast.FailFast = true
	_, err = failFast.Run()
	s.Require().Error(err)
	s.ErrorIs(err, ErrDeadlineMiss)
}

func (s *RMRCSTestSuite) TestWriteScheduleGrammar() {
	tasks := []Task{
		{ID: 1, Arrival: 0, WCET: 1, Period: 2},
		{ID: 2, Arrival: 0, WCET: 1, Period: 4},
	}
	sim := NewSimulator[int](tasks, WCETOnly[int])
	result, err := sim.Run()
	s.Require().NoError(err)

	turnarounds, averages := Turnarounds(sim.Jobs(), result.Schedule)

	var sb strings.Builder
	s.Require().NoError(WriteSchedule(&sb, result, FormatInt, turnarounds, averages))

	want := `Schedule (Hyperperiod: 4):
TaskJob | Start-End | Context Switch
T1j1 0-1
T2j1 1-2 | CS
T1j2 2-3 | CS
Idle 3-4

Analysis:
Total Context Switches: 2
Total Idle Time: 1
Turnaround Times:
  T1 Job 1: 1
  T1 Job 2: 1
  Average for T1: 1.00
  T2 Job 1: 2
  Average for T2: 2.00
`
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		s.Fail("report grammar mismatch", diff)
	}
}

func (s *RMRCSTestSuite) TestParseTasksRejectsBadPeriod() {
	r := strings.NewReader("0 1 0\n")
	_, err := ParseTasks(r)
	s.Error(err)
}
