package edf

import (
	"context"

	"github.com/go-foundations/rtsched/kernel"
)

// Logger is the minimal diagnostic-logging surface the worker and
// controller need; logging.Logger satisfies it structurally.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// Worker runs one periodic worker's per-period protocol against a
// kernel.Service and a SharedTable: publish the next deadline, sleep
// to the next release, run the job body, trace start and end.
type Worker struct {
	svc    kernel.Service
	table  *SharedTable
	state  *SimState
	tracer *Tracer
	logger Logger
	spec   WorkerSpec
	index  int
}

// NewWorker builds a Worker bound to slot index in table.
func NewWorker(svc kernel.Service, table *SharedTable, state *SimState, tracer *Tracer, logger Logger, index int, spec WorkerSpec) *Worker {
	return &Worker{svc: svc, table: table, state: state, tracer: tracer, logger: logger, spec: spec, index: index}
}

// Run is the worker's kernel task body.
func (w *Worker) Run(h kernel.Handle) {
	w.table.bind(w.index, h)

	lastWake := w.svc.Tick()
	jobCounter := 1

	for {
		if w.state.Complete() {
			w.svc.Terminate(h)
			return
		}

		nextDeadline := lastWake + w.spec.Period
		if err := w.table.setDeadline(context.Background(), w.index, nextDeadline); err != nil {
			w.logger.Warnf("edf: worker %s failed to publish deadline: %v", w.spec.Name, err)
		}

		currentTick := w.svc.DelayUntil(h, &lastWake, w.spec.Period)

		if currentTick > w.state.Hyperperiod {
			w.state.SetComplete()
			w.svc.Terminate(h)
			return
		}

		w.tracer.Start(w.spec.Name, currentTick, jobCounter, nextDeadline)
		value := w.spec.Body()
		endTick := w.svc.Tick()
		w.tracer.End(w.spec.Name, endTick, jobCounter, value)

		jobCounter++
	}
}
