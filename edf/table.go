// Package edf realises the EDF controller and its periodic workers: a
// fixed-priority preemptive kernel (package kernel) whose priorities
// are periodically rewritten by a control task so that the worker with
// the earliest absolute deadline always holds the highest priority.
package edf

import (
	"context"

	"github.com/go-foundations/rtsched/kernel"
)

// WorkerSpec describes one periodic worker: its name, its period in
// kernel ticks, and the job body it executes once per release. The
// sensor bodies differ only in which instrument they sample, so one
// parameterised worker serves them all.
type WorkerSpec struct {
	Name   string
	Period kernel.Tick
	Body   func() int
}

// SimState is the shared, write-once-per-field completion flag plus
// the fixed hyperperiod both the controller and every worker consult
// to decide when to self-terminate.
type SimState struct {
	Hyperperiod kernel.Tick
	complete    boolFlag
}

// NewSimState builds a SimState for the given hyperperiod.
func NewSimState(hyperperiod kernel.Tick) *SimState {
	return &SimState{Hyperperiod: hyperperiod}
}

// Complete reports whether the simulation has been marked finished.
func (s *SimState) Complete() bool { return s.complete.get() }

// SetComplete marks the simulation finished. Idempotent, monotonic:
// once true it is never observed false again.
func (s *SimState) SetComplete() { s.complete.set() }

type slot struct {
	index        int
	name         string
	period       kernel.Tick
	nextDeadline kernel.Tick
	handle       kernel.Handle
}

// SharedTable is the single shared mutable table of worker deadlines:
// one kernel mutex protects it, workers only ever write their own
// slot, and the controller is the table's sole reader of every slot.
type SharedTable struct {
	mu    kernel.Mutex
	slots []*slot
}

// NewSharedTable creates a table with one slot per spec, in order,
// seeded with an initial next-deadline of now+period for each. Slot
// handles are bound later, once the kernel tasks exist.
func NewSharedTable(svc kernel.Service, specs []WorkerSpec) *SharedTable {
	t := &SharedTable{mu: svc.NewMutex()}
	now := svc.Tick()
	for i, spec := range specs {
		t.slots = append(t.slots, &slot{
			index:        i,
			name:         spec.Name,
			period:       spec.Period,
			nextDeadline: now + spec.Period,
		})
	}
	return t
}

// bind records the kernel handle assigned to slot i once its task has
// been created.
func (t *SharedTable) bind(i int, h kernel.Handle) {
	t.slots[i].handle = h
}

// setDeadline writes the caller's own next-deadline field. A failure
// to acquire the mutex is logged by the caller and this cycle's
// update is simply skipped; the worker keeps running on its stale
// deadline until its next cycle.
func (t *SharedTable) setDeadline(ctx context.Context, index int, deadline kernel.Tick) error {
	if err := t.mu.Lock(ctx); err != nil {
		return err
	}
	defer t.mu.Unlock()
	t.slots[index].nextDeadline = deadline
	return nil
}

// snapshot returns a value-copy of every slot under the table mutex,
// safe for the controller to sort and inspect without further
// locking.
func (t *SharedTable) snapshot(ctx context.Context) ([]slot, error) {
	if err := t.mu.Lock(ctx); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()
	out := make([]slot, len(t.slots))
	for i, s := range t.slots {
		out[i] = *s
	}
	return out, nil
}
