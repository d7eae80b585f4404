package batch

import "sync"

// pointDeque is the per-worker queue behind the WorkStealing
// strategy: the owner pops its newest entry, thieves take the oldest,
// so a stolen point is the one that has waited longest in the
// victim's queue.
type pointDeque struct {
	mu    sync.Mutex
	items []indexedPoint
}

// push appends an entry at the owner's end.
func (d *pointDeque) push(item indexedPoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, item)
}

// pop removes and returns the owner's end entry.
func (d *pointDeque) pop() (indexedPoint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return indexedPoint{}, false
	}
	item := d.items[n-1]
	d.items = d.items[:n-1]
	return item, true
}

// steal removes and returns the oldest entry, for a worker whose own
// queue ran dry.
func (d *pointDeque) steal() (indexedPoint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return indexedPoint{}, false
	}
	item := d.items[0]
	d.items = d.items[1:]
	return item, true
}
