// Package kernel provides a small simulated preemptive real-time kernel:
// single CPU, strictly preemptive fixed-priority scheduling, no time
// slicing between tasks of equal priority. It supplies the primitives
// the EDF controller and periodic workers are built against — task
// creation, absolute-tick delay, tick readout, dynamic priority
// get/set, liveness and a mutex.
//
// Nothing in package edf imports goroutines, channels or time.Sleep
// directly; every suspension point goes through this Service.
package kernel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTaskDead is returned by priority operations on a task that has
// already self-terminated.
var ErrTaskDead = errors.New("kernel: task is no longer alive")

// Tick is an abstract kernel tick. By convention one tick corresponds
// to one millisecond of task-period configuration, scaled by whatever
// TickDuration the kernel was constructed with.
type Tick int64

// Handle identifies a task created by the kernel. The zero Handle is
// never returned by CreateTask.
type Handle struct {
	task *taskState
}

// Mutex is a kernel-provided lock with an unbounded-wait Lock: the
// only way Lock fails is context cancellation.
type Mutex interface {
	Lock(ctx context.Context) error
	Unlock()
}

// Service is every capability the EDF controller and periodic workers
// consume from the kernel.
type Service interface {
	// CreateTask registers a new kernel task running body at the given
	// initial priority. body is started when Run is called.
	CreateTask(name string, initialPriority int, body func(h Handle)) Handle

	// DelayUntil blocks the calling task until *lastWake + period, then
	// advances *lastWake by period (drift-free absolute-tick sleep), and
	// returns the tick at which the caller resumed.
	DelayUntil(h Handle, lastWake *Tick, period Tick) Tick

	// Tick returns the kernel's current tick count.
	Tick() Tick

	// SetPriority changes a task's dynamic priority, observed atomically
	// by every other task in the system.
	SetPriority(h Handle, priority int) error

	// GetPriority reads a task's current dynamic priority.
	GetPriority(h Handle) (int, error)

	// IsAlive reports whether the task has not yet self-terminated.
	IsAlive(h Handle) bool

	// Terminate marks h as no longer alive and drops it from CPU
	// contention. Idempotent.
	Terminate(h Handle)

	// NewMutex creates a kernel mutex.
	NewMutex() Mutex

	// Run starts every registered task and blocks until all of them
	// return. Task bodies do not observe ctx, so cancelling it does not
	// end Run early, and a panic in a body is not recovered.
	Run(ctx context.Context) error
}

type taskState struct {
	name     string
	priority atomic.Int32
	alive    atomic.Bool
	handle   Handle
	body     func(Handle)
}

// acquire blocks until ts is the highest-priority contender registered
// with arb, then returns holding the CPU token.
func (ts *taskState) acquire(arb *arbiter) {
	arb.acquire(ts)
}

// release drops ts from CPU contention.
func (ts *taskState) release(arb *arbiter) {
	arb.release(ts)
}

// SimKernel is the concrete Service implementation: one goroutine per
// task, arbitrated by a single priority-ordered CPU token so that,
// among tasks currently contending for the CPU, only the numerically
// highest-priority one ever executes — emulating strict preemption
// with no time slicing at equal priority.
type SimKernel struct {
	tickDuration time.Duration
	start        time.Time

	mu    sync.Mutex
	tasks []*taskState

	arb *arbiter
}

// New creates a kernel where one Tick equals tickDuration of wall time.
// A small tickDuration (sub-millisecond) lets tests run a multi-second
// logical hyperperiod in well under a second of real time.
func New(tickDuration time.Duration) *SimKernel {
	if tickDuration <= 0 {
		tickDuration = time.Millisecond
	}
	return &SimKernel{
		tickDuration: tickDuration,
		start:        time.Now(),
		arb:          newArbiter(),
	}
}

func (k *SimKernel) CreateTask(name string, initialPriority int, body func(h Handle)) Handle {
	k.mu.Lock()
	defer k.mu.Unlock()
	ts := &taskState{name: name, body: body}
	ts.priority.Store(int32(initialPriority))
	ts.alive.Store(true)
	ts.handle = Handle{task: ts}
	k.tasks = append(k.tasks, ts)
	return ts.handle
}

// Run starts every task registered so far and waits for them all to
// return: tasks are created up front, then the scheduler is handed
// control.
func (k *SimKernel) Run(ctx context.Context) error {
	k.mu.Lock()
	pending := make([]*taskState, len(k.tasks))
	copy(pending, k.tasks)
	k.mu.Unlock()

	eg, _ := errgroup.WithContext(ctx)
	for _, ts := range pending {
		ts := ts
		eg.Go(func() error {
			ts.body(ts.handle)
			return nil
		})
	}
	return eg.Wait()
}

func (k *SimKernel) Tick() Tick {
	return Tick(time.Since(k.start) / k.tickDuration)
}

// DelayUntil releases the CPU, sleeps in bounded slices so priority
// changes made while sleeping are not missed indefinitely, then
// re-acquires the CPU under the (possibly now different) priority
// ordering before returning.
func (k *SimKernel) DelayUntil(h Handle, lastWake *Tick, period Tick) Tick {
	h.task.release(k.arb)
	target := *lastWake + period
	for {
		now := k.Tick()
		if now >= target {
			break
		}
		remaining := target - now
		sleepFor := time.Duration(remaining) * k.tickDuration
		const maxSlice = 5 * time.Millisecond
		if sleepFor > maxSlice {
			sleepFor = maxSlice
		}
		time.Sleep(sleepFor)
	}
	*lastWake = target
	h.task.acquire(k.arb)
	return k.Tick()
}

func (k *SimKernel) SetPriority(h Handle, priority int) error {
	if !h.task.alive.Load() {
		return ErrTaskDead
	}
	h.task.priority.Store(int32(priority))
	k.arb.reorder()
	return nil
}

func (k *SimKernel) GetPriority(h Handle) (int, error) {
	if !h.task.alive.Load() {
		return 0, ErrTaskDead
	}
	return int(h.task.priority.Load()), nil
}

func (k *SimKernel) IsAlive(h Handle) bool {
	return h.task.alive.Load()
}

func (k *SimKernel) Terminate(h Handle) {
	h.task.alive.Store(false)
	h.task.release(k.arb)
}

func (k *SimKernel) NewMutex() Mutex {
	return &simMutex{ch: make(chan struct{}, 1)}
}

type simMutex struct {
	ch chan struct{}
}

func (m *simMutex) Lock(ctx context.Context) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *simMutex) Unlock() {
	select {
	case <-m.ch:
	default:
	}
}
