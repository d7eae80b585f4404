package rmrcs

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}

// CalculateHyperperiod returns H = lcm(period_i) over tasks.
func CalculateHyperperiod(tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}
	h := tasks[0].Period
	for _, t := range tasks[1:] {
		h = lcm(h, t.Period)
	}
	return h
}

// RemainingFunc decides a newly generated job's initial Remaining
// (and WCET) value. The WCET-only variant always returns the task's
// WCET; the actual-time variant returns WCET for the first job of
// each task and Actual (or WCET, if no actual.txt value was given)
// for every job after.
type RemainingFunc[T Number] func(t Task, firstJob bool) T

// WCETOnly is the RemainingFunc for the WCET-only simulator variant:
// every job, including the first, runs its full WCET.
func WCETOnly[T Number](t Task, firstJob bool) T {
	return T(t.WCET)
}

// ActualTime is the RemainingFunc for the actual-time variant: the
// first job of a task always runs its full WCET (the safety-critical
// first release is analysed under worst case); subsequent jobs use
// the observed actual execution time, defaulting to WCET when none
// was supplied.
func ActualTime[T Number](t Task, firstJob bool) T {
	if firstJob || !t.HasActual {
		return T(t.WCET)
	}
	return T(t.Actual)
}

// GenerateJobs expands tasks into their full job set over one
// hyperperiod: for task i, one job per release_k = arrival_i +
// k*period_i that falls before H, with deadline_k = release_k +
// period_i. That is exactly H/period_i jobs when arrival_i <
// period_i, and fewer for a larger arrival offset.
func GenerateJobs[T Number](tasks []Task, hyperperiod int, remainingOf RemainingFunc[T]) []Job[T] {
	var jobs []Job[T]
	for _, t := range tasks {
		numJobs := (hyperperiod - t.Arrival + t.Period - 1) / t.Period
		for j := 0; j < numJobs; j++ {
			release := t.Arrival + j*t.Period
			if release >= hyperperiod {
				continue
			}
			firstJob := j == 0
			rem := remainingOf(t, firstJob)
			jobs = append(jobs, Job[T]{
				TaskID:    t.ID,
				JobID:     j + 1,
				Release:   release,
				Deadline:  release + t.Period,
				Remaining: rem,
				WCET:      T(t.WCET),
				FirstJob:  firstJob,
			})
		}
	}
	return jobs
}
