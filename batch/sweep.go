// Package batch runs many independent RM-RCS simulations
// concurrently: a parameter sweep over candidate task sets,
// distributed across a small pool of goroutines by one of four
// strategies keyed to the task sets themselves (see
// DistributionStrategy).
package batch

import (
	"github.com/pkg/errors"

	"github.com/go-foundations/rtsched/rmrcs"
)

// SweepPoint is one candidate task set to simulate: a full RM-RCS
// task table plus a label identifying where it sits in the sweep
// (e.g. "wcet=2,period=5" for a parameter grid, or an index for a
// random search).
type SweepPoint struct {
	Label string
	Tasks []rmrcs.Task
}

// SweepOutcome summarizes one SweepPoint's simulation: the aggregate
// numbers a sweep cares about, not the full per-entry schedule, so
// thousands of points can be collected and compared cheaply.
type SweepOutcome struct {
	Label           string
	Hyperperiod     int
	ContextSwitches int
	IdleTime        float64
	MissCount       int
	Feasible        bool
}

// RunSweep simulates every point in points using numWorkers
// goroutines under strategy and returns one SweepOutcome per point,
// in input order. Each point is run with rmrcs.WCETOnly[int] and
// FailFast disabled, so an infeasible task set is reported as a
// SweepOutcome with Feasible=false rather than aborting the whole
// sweep.
func RunSweep(points []SweepPoint, numWorkers int, strategy DistributionStrategy) ([]SweepOutcome, error) {
	if len(points) == 0 {
		return nil, errors.New("batch: no sweep points")
	}
	return runPoints(points, numWorkers, strategy), nil
}

// evaluate simulates one sweep point.
func evaluate(point SweepPoint) SweepOutcome {
	sim := rmrcs.NewSimulator[int](point.Tasks, rmrcs.WCETOnly[int])

	result, err := sim.Run()
	if err != nil {
		return SweepOutcome{Label: point.Label, Hyperperiod: sim.Hyperperiod(), Feasible: false}
	}

	return SweepOutcome{
		Label:           point.Label,
		Hyperperiod:     result.Hyperperiod,
		ContextSwitches: result.ContextSwitches,
		IdleTime:        float64(result.IdleTime),
		MissCount:       len(result.Misses),
		Feasible:        len(result.Misses) == 0,
	}
}

// ScaleWCET returns a copy of tasks with every WCET multiplied by
// factor (rounded down, floored at 1), the way a sweep explores
// whether a task set stays feasible as execution cost grows.
func ScaleWCET(tasks []rmrcs.Task, factor float64) []rmrcs.Task {
	scaled := make([]rmrcs.Task, len(tasks))
	for i, t := range tasks {
		w := int(float64(t.WCET) * factor)
		if w < 1 {
			w = 1
		}
		t.WCET = w
		scaled[i] = t
	}
	return scaled
}
