package rmrcs

// pickReady selects the index of the highest-RM-priority job with
// Release <= now and remaining work, or -1 if none is ready.
func pickReady[T Number](jobs []Job[T], now T, order *priorityOrder) int {
	best := -1
	for i := range jobs {
		if float64(jobs[i].Release) > float64(now) || jobs[i].completed() {
			continue
		}
		if best == -1 || order.higher(jobs[i].TaskID, jobs[best].TaskID) {
			best = i
		}
	}
	return best
}

// nextReadyRelease returns the earliest future release among jobs
// that still have work to do, the event the idle case advances to.
func nextReadyRelease[T Number](jobs []Job[T], now T) (T, bool) {
	found := false
	var next T
	for i := range jobs {
		if float64(jobs[i].Release) <= float64(now) || jobs[i].completed() {
			continue
		}
		r := T(jobs[i].Release)
		if !found || float64(r) < float64(next) {
			next = r
			found = true
		}
	}
	return next, found
}

// nextEventBound returns the nearest future boundary at or before the
// end of the hyperperiod: the running job's own deadline, or any
// job's future release time, whichever comes first. It does not
// filter by remaining work; a release is a boundary whether or not
// the released job still needs the CPU.
func nextEventBound[T Number](jobs []Job[T], now T, currentDeadline int, hyperperiod int) T {
	bound := T(hyperperiod)

	if float64(currentDeadline) > float64(now) && float64(currentDeadline) < float64(bound) {
		bound = T(currentDeadline)
	}

	for i := range jobs {
		r := T(jobs[i].Release)
		if float64(r) > float64(now) && float64(r) < float64(bound) {
			bound = r
		}
	}

	return bound
}

// readyHigherPriority returns the indices of jobs ready at now (
// released, with remaining work) whose task has strictly higher RM
// priority than currentIdx's task, used by the extension oracle to
// bound the maximum safe extension.
func readyHigherPriority[T Number](jobs []Job[T], currentIdx int, now T, order *priorityOrder) []int {
	currentTask := jobs[currentIdx].TaskID
	var out []int
	for i := range jobs {
		if i == currentIdx {
			continue
		}
		if float64(jobs[i].Release) > float64(now) || jobs[i].completed() {
			continue
		}
		if order.higher(jobs[i].TaskID, currentTask) {
			out = append(out, i)
		}
	}
	return out
}
