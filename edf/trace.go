package edf

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-foundations/rtsched/kernel"
)

// Tracer serialises trace lines to a writer shared by every worker
// and the controller. Writes are mutex-guarded so concurrent job
// START/END lines from different workers never interleave mid-line.
type Tracer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTracer wraps w (typically os.Stdout) for trace output.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Start emits a job START line.
func (t *Tracer) Start(name string, tick kernel.Tick, job int, deadline kernel.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[%-12s] Tick=%-5d START Job %d (Deadline:%d)\n", name, tick, job, deadline)
}

// End emits a job END line.
func (t *Tracer) End(name string, tick kernel.Tick, job int, value int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[%-12s] Tick=%-5d END Job %d (Value:%d)\n", name, tick, job, value)
}

// PriorityUpdatesHeader opens a controller cycle's change block.
func (t *Tracer) PriorityUpdatesHeader(tick kernel.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[Scheduler] Tick=%-5d Priority Updates:\n", tick)
}

// PriorityTransition logs one worker's priority change.
func (t *Tracer) PriorityTransition(name string, oldPrio, newPrio int, deadline kernel.Tick) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "  - %-12s: %d -> %d (Deadline: %d)\n", name, oldPrio, newPrio, deadline)
}

// PriorityOrder logs the new rank order, "name(prio) > name(prio) > ...".
func (t *Tracer) PriorityOrder(names []string, prios []int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	parts := make([]string, len(names))
	for i := range names {
		parts[i] = fmt.Sprintf("%s(%d)", names[i], prios[i])
	}
	fmt.Fprintf(t.w, "  New Priority Order: %s\n", strings.Join(parts, " > "))
}

// ContextSwitch logs a top-rank change between two workers.
func (t *Tracer) ContextSwitch(newName, oldName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "  Context Switch: %s preempts %s (earlier deadline)\n\n", newName, oldName)
}
