package kernel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type KernelTestSuite struct {
	suite.Suite
}

func TestKernelTestSuite(t *testing.T) {
	suite.Run(t, new(KernelTestSuite))
}

func (ts *KernelTestSuite) TestPriorityGetSet() {
	k := New(time.Millisecond)
	var h Handle
	k.CreateTask("A", 1, func(handle Handle) { h = handle })
	h = Handle{task: k.tasks[0]}

	prio, err := k.GetPriority(h)
	ts.NoError(err)
	ts.Equal(1, prio)

	ts.NoError(k.SetPriority(h, 5))
	prio, err = k.GetPriority(h)
	ts.NoError(err)
	ts.Equal(5, prio)
}

func (ts *KernelTestSuite) TestTerminateMakesDead() {
	k := New(time.Millisecond)
	k.CreateTask("A", 1, func(Handle) {})
	h := Handle{task: k.tasks[0]}

	ts.True(k.IsAlive(h))
	k.Terminate(h)
	ts.False(k.IsAlive(h))

	_, err := k.GetPriority(h)
	ts.ErrorIs(err, ErrTaskDead)
}

// TestArbitrationRespectsPriority builds two tasks that both contend
// for the CPU at the same moment: the lower-priority task must not be
// observed "inside its critical section" while the higher-priority
// task is still runnable.
func (ts *KernelTestSuite) TestArbitrationRespectsPriority() {
	k := New(100 * time.Microsecond)

	var mu sync.Mutex
	var order []string

	ready := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)

	lowHandle := k.CreateTask("low", 1, func(h Handle) {
		defer wg.Done()
		<-ready
		h.task.acquire(k.arb)
		mu.Lock()
		order = append(order, "low")
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		h.task.release(k.arb)
	})
	_ = lowHandle

	k.CreateTask("high", 10, func(h Handle) {
		defer wg.Done()
		<-ready
		time.Sleep(200 * time.Microsecond) // let "low" register contention first
		h.task.acquire(k.arb)
		mu.Lock()
		order = append(order, "high")
		mu.Unlock()
		h.task.release(k.arb)
	})

	close(ready)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ts.NoError(k.Run(ctx))

	wg.Wait()
	ts.Equal([]string{"high", "low"}, order)
}

func (ts *KernelTestSuite) TestDelayUntilAdvancesLastWake() {
	k := New(time.Millisecond)
	h := k.CreateTask("A", 1, func(Handle) {})

	var lastWake Tick
	woke := k.DelayUntil(h, &lastWake, 5)
	ts.Equal(Tick(5), lastWake)
	ts.GreaterOrEqual(woke, Tick(5))
}
