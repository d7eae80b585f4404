// Package sensors provides the trio of random instrument readings the
// EDF demo's periodic workers publish each job: temperature, pressure
// and height. Each is a uniformly distributed integer backed by a
// package-local *rand.Rand so concurrent workers never contend on the
// global generator.
package sensors

import (
	"math/rand"
	"sync"
	"time"
)

// Source reads one instrument value. Workers treat it as an opaque job
// body; the EDF controller never calls it directly.
type Source func() int

type generator struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newGenerator() *generator {
	return &generator{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.Intn(n)
}

var shared = newGenerator()

// Temperature returns a value in [10, 90].
func Temperature() int { return shared.intn(81) + 10 }

// Pressure returns a value in [2, 10].
func Pressure() int { return shared.intn(9) + 2 }

// Height returns a value in [100, 1000].
func Height() int { return shared.intn(901) + 100 }
