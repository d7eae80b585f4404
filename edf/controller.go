package edf

import (
	"context"

	"github.com/go-foundations/rtsched/kernel"
)

// Controller is the EDF control task: every CheckPeriod ticks it
// re-sorts workers by next deadline and rewrites kernel priorities so
// the earliest deadline holds the highest priority. It must be
// created at a priority strictly above every worker's initial and
// maximum assignable priority, so its decisions are never delayed by
// the workers it manages.
type Controller struct {
	svc          kernel.Service
	table        *SharedTable
	state        *SimState
	tracer       *Tracer
	logger       Logger
	checkPeriod  kernel.Tick
	basePriority int
	n            int

	hasPrevHighest  bool
	prevHighest     kernel.Handle
	prevHighestName string
}

// NewController builds a Controller for n workers, lowest assignable
// worker priority basePriority, checking every checkPeriod ticks.
func NewController(svc kernel.Service, table *SharedTable, state *SimState, tracer *Tracer, logger Logger, n int, basePriority int, checkPeriod kernel.Tick) *Controller {
	return &Controller{
		svc:          svc,
		table:        table,
		state:        state,
		tracer:       tracer,
		logger:       logger,
		checkPeriod:  checkPeriod,
		basePriority: basePriority,
		n:            n,
	}
}

// Run is the controller's kernel task body.
func (c *Controller) Run(h kernel.Handle) {
	lastCheck := c.svc.Tick()

	for {
		currentTick := c.svc.DelayUntil(h, &lastCheck, c.checkPeriod)

		if c.state.Complete() || currentTick > c.state.Hyperperiod {
			c.state.SetComplete()
			c.svc.Terminate(h)
			return
		}

		c.cycle(currentTick)
	}
}

func (c *Controller) cycle(currentTick kernel.Tick) {
	slots, err := c.table.snapshot(context.Background())
	if err != nil {
		c.logger.Warnf("edf: controller failed to read worker table: %v", err)
		return
	}

	bubbleSortByDeadline(slots)

	highestPrio := c.basePriority + c.n - 1
	changed := false
	var newHighest kernel.Handle
	hasNewHighest := false
	var newHighestName string

	type transition struct {
		name     string
		old, new int
		deadline kernel.Tick
	}
	var transitions []transition

	liveNames := make([]string, 0, c.n)
	livePrios := make([]int, 0, c.n)

	for rank, s := range slots {
		if !c.svc.IsAlive(s.handle) {
			continue
		}

		newPrio := highestPrio - rank
		if rank == 0 {
			newHighest = s.handle
			hasNewHighest = true
			newHighestName = s.name
		}

		oldPrio, err := c.svc.GetPriority(s.handle)
		if err != nil {
			continue
		}

		if oldPrio != newPrio {
			if err := c.svc.SetPriority(s.handle, newPrio); err != nil {
				c.logger.Warnf("edf: controller failed to set priority for %s: %v", s.name, err)
				continue
			}
			changed = true
			transitions = append(transitions, transition{s.name, oldPrio, newPrio, s.nextDeadline})
		}

		liveNames = append(liveNames, s.name)
		livePrios = append(livePrios, newPrio)
	}

	if changed {
		c.tracer.PriorityUpdatesHeader(currentTick)
		for _, t := range transitions {
			c.tracer.PriorityTransition(t.name, t.old, t.new, t.deadline)
		}
		c.tracer.PriorityOrder(liveNames, livePrios)

		if hasNewHighest && c.hasPrevHighest && newHighest != c.prevHighest {
			c.tracer.ContextSwitch(newHighestName, c.prevHighestName)
		}
	}

	if hasNewHighest {
		c.prevHighest = newHighest
		c.prevHighestName = newHighestName
		c.hasPrevHighest = true
	}
}
