package edf

import "sync/atomic"

// boolFlag is a write-once-monotonic boolean: set() may be called any
// number of times but only ever transitions false -> true. get() never
// blocks; readers tolerate a stale false.
type boolFlag struct {
	v atomic.Bool
}

func (f *boolFlag) set()      { f.v.Store(true) }
func (f *boolFlag) get() bool { return f.v.Load() }
