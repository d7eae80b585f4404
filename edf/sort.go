package edf

// bubbleSortByDeadline orders slots by (nextDeadline ascending, index
// ascending); the stable tie-break prevents priority oscillation
// between two workers with identical deadlines. A literal bubble
// sort: N stays small enough that anything fancier buys nothing.
func bubbleSortByDeadline(slots []slot) {
	n := len(slots)
	for i := 0; i < n-1; i++ {
		for j := 0; j < n-i-1; j++ {
			if less(slots[j+1], slots[j]) {
				slots[j], slots[j+1] = slots[j+1], slots[j]
			}
		}
	}
}

// less reports whether a sorts strictly before b: earlier deadline,
// or equal deadline and lower task index.
func less(a, b slot) bool {
	if a.nextDeadline != b.nextDeadline {
		return a.nextDeadline < b.nextDeadline
	}
	return a.index < b.index
}
