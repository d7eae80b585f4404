package batch

import (
	"sort"
	"sync"

	"github.com/go-foundations/rtsched/rmrcs"
)

// DistributionStrategy selects how sweep points are spread across the
// evaluation goroutines.
type DistributionStrategy int

const (
	// RoundRobin deals points to workers in input order, one each.
	RoundRobin DistributionStrategy = iota

	// Chunked hands each worker one contiguous run of points, which
	// keeps a sweep grouped when the scaled variants of one tasks.txt
	// sit next to each other in the input.
	Chunked

	// WorkStealing gives each worker its own queue and lets a worker
	// that runs dry steal from its neighbours, evening out sweeps
	// where a few task sets have hyperperiods far longer than the
	// rest.
	WorkStealing

	// PriorityBased serves points in descending estimated simulation
	// cost, so the task sets with the most jobs to expand start first
	// and small points fill in around them.
	PriorityBased
)

// indexedPoint carries a point together with its slot in the caller's
// input, so outcomes land in input order no matter which worker
// finishes first.
type indexedPoint struct {
	point SweepPoint
	pos   int
	cost  int
}

// simulationCost estimates how much work simulating a point is: the
// number of jobs its task set expands to over one hyperperiod, which
// is what the event loop's running time scales with.
func simulationCost(p SweepPoint) int {
	h := rmrcs.CalculateHyperperiod(p.Tasks)
	cost := 0
	for _, t := range p.Tasks {
		cost += h / t.Period
	}
	return cost
}

// runPoints evaluates every point across numWorkers goroutines under
// strategy and writes each outcome into its point's input slot. The
// full point list is known before any worker starts, so every
// strategy reduces to a partition (or ordering) decided up front;
// workers only ever remove work, which is what makes the
// exit-on-empty checks below race-free.
func runPoints(points []SweepPoint, numWorkers int, strategy DistributionStrategy) []SweepOutcome {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(points) {
		numWorkers = len(points)
	}
	outcomes := make([]SweepOutcome, len(points))

	var wg sync.WaitGroup
	switch strategy {
	case Chunked:
		for w := 0; w < numWorkers; w++ {
			lo := w * len(points) / numWorkers
			hi := (w + 1) * len(points) / numWorkers
			if lo == hi {
				continue
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					outcomes[i] = evaluate(points[i])
				}
			}(lo, hi)
		}

	case WorkStealing:
		queues := make([]*pointDeque, numWorkers)
		for w := range queues {
			queues[w] = &pointDeque{}
		}
		for i, p := range points {
			queues[i%numWorkers].push(indexedPoint{point: p, pos: i})
		}
		for w := 0; w < numWorkers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for {
					item, ok := queues[w].pop()
					if !ok {
						item, ok = stealFrom(queues, w)
					}
					if !ok {
						return
					}
					outcomes[item.pos] = evaluate(item.point)
				}
			}(w)
		}

	case PriorityBased:
		// Every point is known up front, so "most expensive first" is
		// a sort feeding one shared queue rather than a live heap.
		byCost := make([]indexedPoint, len(points))
		for i, p := range points {
			byCost[i] = indexedPoint{point: p, pos: i, cost: simulationCost(p)}
		}
		sort.SliceStable(byCost, func(a, b int) bool {
			return byCost[a].cost > byCost[b].cost
		})
		queue := make(chan indexedPoint, len(byCost))
		for _, item := range byCost {
			queue <- item
		}
		close(queue)
		for w := 0; w < numWorkers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for item := range queue {
					outcomes[item.pos] = evaluate(item.point)
				}
			}()
		}

	default: // RoundRobin
		for w := 0; w < numWorkers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := w; i < len(points); i += numWorkers {
					outcomes[i] = evaluate(points[i])
				}
			}(w)
		}
	}

	wg.Wait()
	return outcomes
}

// stealFrom scans the other workers' queues for work, starting just
// past the thief so two idle workers don't hammer the same victim.
func stealFrom(queues []*pointDeque, thief int) (indexedPoint, bool) {
	for off := 1; off < len(queues); off++ {
		if item, ok := queues[(thief+off)%len(queues)].steal(); ok {
			return item, true
		}
	}
	return indexedPoint{}, false
}
