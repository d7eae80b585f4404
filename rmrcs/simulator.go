package rmrcs

import "github.com/pkg/errors"

// ErrDeadlineMiss is returned (or collected, depending on FailFast)
// when a job's deadline passes with remaining work left outside the
// oracle's own internal simulation, a sign the task set is not
// RM-feasible.
var ErrDeadlineMiss = errors.New("rmrcs: deadline miss")

// DeadlineMiss names the violating job. DetectedAt is the simulated
// time at which the miss was first observed: the first time advance
// past the deadline at which the job still had remaining work, or its
// late completion time when the job finished before any such sweep
// saw it.
type DeadlineMiss struct {
	TaskID, JobID int
	Deadline      int
	DetectedAt    float64
}

// Result is everything the RM-RCS simulator produces for one run.
type Result[T Number] struct {
	Hyperperiod     int
	Schedule        []ScheduleEntry[T]
	ContextSwitches int
	IdleTime        T
	Misses          []DeadlineMiss
}

// Simulator runs the event-driven RM-RCS main loop over one
// hyperperiod, optionally invoking an Oracle[T] to extend
// the currently running lower-priority job rather than preempting it
// immediately.
type Simulator[T Number] struct {
	tasks       []Task
	jobs        []Job[T]
	hyperperiod int
	order       *priorityOrder
	oracle      *Oracle[T]

	// FailFast aborts the run (returning ErrDeadlineMiss) the moment a
	// job misses its deadline outside the oracle, rather than
	// recording the miss and continuing.
	FailFast bool
}

// NewSimulator builds a Simulator for tasks using remainingOf to seed
// each generated job's initial remaining work.
func NewSimulator[T Number](tasks []Task, remainingOf RemainingFunc[T]) *Simulator[T] {
	h := CalculateHyperperiod(tasks)
	order := newPriorityOrder(tasks)
	jobs := GenerateJobs(tasks, h, remainingOf)
	return &Simulator[T]{
		tasks:       tasks,
		jobs:        jobs,
		hyperperiod: h,
		order:       order,
		oracle:      NewOracle[T](order, h),
	}
}

// Jobs returns the simulator's generated job table, for callers that
// need it for reporting (e.g. turnaround times).
func (s *Simulator[T]) Jobs() []Job[T] { return s.jobs }

// Hyperperiod returns H.
func (s *Simulator[T]) Hyperperiod() int { return s.hyperperiod }

// Run executes the main event loop to completion and returns the
// merged schedule with its analysis counters.
func (s *Simulator[T]) Run() (*Result[T], error) {
	var now T
	currentIdx := -1

	var schedule []ScheduleEntry[T]
	contextSwitches := 0
	var idleTime T
	var misses []DeadlineMiss
	missed := make([]bool, len(s.jobs))

	h := T(s.hyperperiod)

	// recordMisses sweeps the job table for deadlines that have passed
	// with work still remaining. Completed jobs are skipped here: a job
	// that finishes late without having been swept first is recorded by
	// the completion check below. missed[] keeps each job's miss
	// recorded once.
	recordMisses := func(at T) error {
		for i := range s.jobs {
			if missed[i] || s.jobs[i].completed() || float64(at) <= float64(s.jobs[i].Deadline)+Epsilon {
				continue
			}
			missed[i] = true
			miss := DeadlineMiss{
				TaskID: s.jobs[i].TaskID, JobID: s.jobs[i].JobID,
				Deadline: s.jobs[i].Deadline, DetectedAt: float64(at),
			}
			if s.FailFast {
				return errors.Wrapf(ErrDeadlineMiss, "task %d job %d missed deadline %d (detected at %.3f)",
					miss.TaskID, miss.JobID, miss.Deadline, miss.DetectedAt)
			}
			misses = append(misses, miss)
		}
		return nil
	}

	for float64(now) < float64(h) {
		readyIdx := pickReady(s.jobs, now, s.order)

		if readyIdx == -1 {
			// Step 2: idle case.
			next, ok := nextReadyRelease(s.jobs, now)
			if !ok {
				next = h
			}
			schedule = append(schedule, ScheduleEntry[T]{
				Start: now, End: next, TaskID: 0, JobID: 0,
			})
			idleTime += next - now
			now = next
			if err := recordMisses(now); err != nil {
				return nil, err
			}
			continue
		}

		// Step 3: extension case.
		if currentIdx != -1 && currentIdx != readyIdx &&
			!s.jobs[currentIdx].completed() &&
			s.order.higher(s.jobs[readyIdx].TaskID, s.jobs[currentIdx].TaskID) {

			delta := s.oracle.MaxExtension(s.jobs, currentIdx, now)
			if delta > T(0) && float64(delta) > Epsilon {
				schedule = append(schedule, ScheduleEntry[T]{
					Start: now, End: now + delta,
					TaskID: s.jobs[currentIdx].TaskID, JobID: s.jobs[currentIdx].JobID,
				})
				s.jobs[currentIdx].Remaining -= delta
				now += delta
				if err := recordMisses(now); err != nil {
					return nil, err
				}
				continue
			}
		}

		// Step 4: normal RM step.
		contextSwitch := currentIdx != -1 && s.jobs[currentIdx].TaskID != s.jobs[readyIdx].TaskID
		if contextSwitch {
			contextSwitches++
		}
		currentIdx = readyIdx

		event := nextEventBound(s.jobs, now, s.jobs[currentIdx].Deadline, s.hyperperiod)
		execTime := event - now
		if float64(execTime) > float64(s.jobs[currentIdx].Remaining) {
			execTime = s.jobs[currentIdx].Remaining
		}

		schedule = append(schedule, ScheduleEntry[T]{
			Start: now, End: now + execTime,
			TaskID: s.jobs[currentIdx].TaskID, JobID: s.jobs[currentIdx].JobID,
			ContextSwitch: contextSwitch,
		})

		s.jobs[currentIdx].Remaining -= execTime
		now += execTime

		// Step 5: completion / deadline check.
		if !missed[currentIdx] && s.jobs[currentIdx].completed() && float64(now) > float64(s.jobs[currentIdx].Deadline)+Epsilon {
			missed[currentIdx] = true
			miss := DeadlineMiss{
				TaskID: s.jobs[currentIdx].TaskID, JobID: s.jobs[currentIdx].JobID,
				Deadline: s.jobs[currentIdx].Deadline, DetectedAt: float64(now),
			}
			if s.FailFast {
				return nil, errors.Wrapf(ErrDeadlineMiss, "task %d job %d missed deadline %d (completed at %.3f)",
					miss.TaskID, miss.JobID, miss.Deadline, miss.DetectedAt)
			}
			misses = append(misses, miss)
		}
		if err := recordMisses(now); err != nil {
			return nil, err
		}
	}

	// A job that never got the CPU at all still counts as a miss if
	// its deadline fell inside the hyperperiod.
	for i := range s.jobs {
		if missed[i] || s.jobs[i].completed() || s.jobs[i].Deadline > s.hyperperiod {
			continue
		}
		missed[i] = true
		miss := DeadlineMiss{
			TaskID: s.jobs[i].TaskID, JobID: s.jobs[i].JobID,
			Deadline: s.jobs[i].Deadline, DetectedAt: float64(h),
		}
		if s.FailFast {
			return nil, errors.Wrapf(ErrDeadlineMiss, "task %d job %d missed deadline %d (unfinished at hyperperiod)",
				miss.TaskID, miss.JobID, miss.Deadline)
		}
		misses = append(misses, miss)
	}

	return &Result[T]{
		Hyperperiod:     s.hyperperiod,
		Schedule:        MergeSchedule(schedule),
		ContextSwitches: contextSwitches,
		IdleTime:        idleTime,
		Misses:          misses,
	}, nil
}
