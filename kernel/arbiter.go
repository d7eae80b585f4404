package kernel

import (
	"sync"
	"time"
)

// settleWindow is how long a newly-registered contender must wait,
// even while it is the only (or the nominally highest-priority)
// contender, before the arbiter grants it the CPU. Two tasks becoming
// ready within settleWindow of each other are treated as simultaneous
// and arbitrated by priority, not by whichever happened to register
// first; without it a lower-priority task that registers a few
// microseconds ahead of a higher-priority one would win the CPU
// outright, which is exactly backwards for a strictly preemptive
// fixed-priority kernel.
const settleWindow = time.Millisecond

// arbiter grants the single simulated CPU to the highest-priority task
// among those currently contending for it, holding every newcomer for
// settleWindow so a higher-priority contender that registers moments
// later still preempts it before it is ever granted the CPU. Ties
// remaining after the settle window are broken by registration order,
// which is never observed in practice because the controller task
// always registers at a strictly higher priority than every worker
// and the EDF comparator itself breaks worker deadline ties by task
// index before priorities ever collide.
type arbiter struct {
	mu         sync.Mutex
	cond       *sync.Cond
	contenders []*contender
}

// contender pairs a registered task with the time it joined
// contention, so acquire can enforce settleWindow.
type contender struct {
	ts      *taskState
	arrival time.Time
}

func newArbiter() *arbiter {
	a := &arbiter{}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// acquire blocks the calling goroutine until ts is the highest-priority
// registered contender and at least settleWindow has passed since it
// registered.
func (a *arbiter) acquire(ts *taskState) {
	a.mu.Lock()
	c := &contender{ts: ts, arrival: time.Now()}
	a.contenders = append(a.contenders, c)
	a.cond.Broadcast()

	// Force a re-check once the settle window elapses even if nothing
	// else ever broadcasts again, so a lone contender isn't stuck
	// waiting forever.
	timer := time.AfterFunc(settleWindow, func() {
		a.mu.Lock()
		a.cond.Broadcast()
		a.mu.Unlock()
	})
	defer timer.Stop()

	for !(a.isHighestLocked(ts) && time.Since(c.arrival) >= settleWindow) {
		a.cond.Wait()
	}
	a.mu.Unlock()
}

// release removes ts from contention and wakes every other waiter so
// the new highest-priority contender can proceed.
func (a *arbiter) release(ts *taskState) {
	a.mu.Lock()
	for i, c := range a.contenders {
		if c.ts == ts {
			a.contenders = append(a.contenders[:i], a.contenders[i+1:]...)
			break
		}
	}
	a.cond.Broadcast()
	a.mu.Unlock()
}

// reorder wakes every waiter to re-evaluate priority order after an
// external SetPriority call.
func (a *arbiter) reorder() {
	a.mu.Lock()
	a.cond.Broadcast()
	a.mu.Unlock()
}

func (a *arbiter) isHighestLocked(ts *taskState) bool {
	mine := ts.priority.Load()
	registeredEarlier := true
	for _, c := range a.contenders {
		if c.ts == ts {
			registeredEarlier = false
			continue
		}
		p := c.ts.priority.Load()
		if p > mine || (p == mine && registeredEarlier) {
			return false
		}
	}
	return true
}
