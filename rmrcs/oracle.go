package rmrcs

// Oracle implements the feasibility predicate and maximum-extension
// binary search: whether continuing the currently
// running, lower-priority job for Δ more time units still leaves
// every job schedulable by RM within the hyperperiod.
type Oracle[T Number] struct {
	order       *priorityOrder
	hyperperiod int
}

// NewOracle builds an Oracle sharing order and hyperperiod with the
// simulator that owns it.
func NewOracle[T Number](order *priorityOrder, hyperperiod int) *Oracle[T] {
	return &Oracle[T]{order: order, hyperperiod: hyperperiod}
}

// Feasible reports whether extending jobs[currentIdx] by delta more
// time units, starting at now, keeps every job's deadline
// achievable. jobs is never mutated; Feasible operates on its own
// clone of the job table, so the oracle has no side effect on real
// simulation state.
func (o *Oracle[T]) Feasible(jobs []Job[T], currentIdx int, now T, delta T) bool {
	clone := make([]Job[T], len(jobs))
	copy(clone, jobs)

	clone[currentIdx].Remaining -= delta
	if float64(clone[currentIdx].Remaining) < -Epsilon {
		return false
	}

	return o.simulateNoExtension(clone, now+delta)
}

// simulateNoExtension runs plain RM from t to the end of the
// hyperperiod with no further extensions, the oracle's own internal
// simulation. It returns false the instant any
// job would pass its deadline with remaining work left, and false if,
// once simulation reaches the hyperperiod, any job within the
// hyperperiod still has remaining work.
func (o *Oracle[T]) simulateNoExtension(jobs []Job[T], t T) bool {
	h := T(o.hyperperiod)

	for float64(t) < float64(h) {
		idx := pickReady(jobs, t, o.order)
		if idx == -1 {
			next, ok := nextReadyRelease(jobs, t)
			if !ok {
				break
			}
			t = next
			continue
		}

		event := nextEventBound(jobs, t, jobs[idx].Deadline, o.hyperperiod)
		execTime := event - t
		if float64(execTime) > float64(jobs[idx].Remaining) {
			execTime = jobs[idx].Remaining
		}

		t += execTime
		jobs[idx].Remaining -= execTime

		if jobs[idx].completed() && float64(t) > float64(jobs[idx].Deadline)+Epsilon {
			return false
		}
	}

	for i := range jobs {
		if !jobs[i].completed() && jobs[i].Deadline <= o.hyperperiod {
			return false
		}
	}
	return true
}

// MaxExtension finds, via binary search, the largest Δ in [0, hi]
// for which Feasible holds, halting once the search interval narrows
// below Epsilon.
func (o *Oracle[T]) MaxExtension(jobs []Job[T], currentIdx int, now T) T {
	higher := readyHigherPriority(jobs, currentIdx, now, o.order)

	var e T
	d := o.hyperperiod
	for _, idx := range higher {
		e += jobs[idx].Remaining
		if jobs[idx].Deadline < d {
			d = jobs[idx].Deadline
		}
	}

	hi := jobs[currentIdx].Remaining
	slackBound := T(d) - now - e
	if float64(slackBound) < float64(hi) {
		hi = slackBound
	}
	if float64(hi) <= 0 {
		return 0
	}

	// The closed-form slack bound is itself often the tightest
	// feasible extension (the ready higher-priority jobs run
	// back-to-back and just meet their earliest deadline); check it
	// directly before bisecting so integer Δ with hi-lo == 1 is not
	// skipped by the loop below.
	if o.Feasible(jobs, currentIdx, now, hi) {
		return hi
	}

	var lo T
	for float64(hi-lo) >= Epsilon {
		mid := lo + (hi-lo)/2
		if mid <= lo || mid >= hi {
			break
		}
		if o.Feasible(jobs, currentIdx, now, mid) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}
