package runtime

// RangeIter is the handle returned by the range builtins. It carries the
// bounds; iteration state lives in the loop that consumes it.
type RangeIter struct {
	Start int64
	Stop  int64
	Step  int64
}

// Range1 implements range(stop).
func Range1(stop int64) *RangeIter {
	return &RangeIter{Start: 0, Stop: stop, Step: 1}
}

// Range2 implements range(start, stop).
func Range2(start, stop int64) *RangeIter {
	return &RangeIter{Start: start, Stop: stop, Step: 1}
}

// Range3 implements range(start, stop, step). A zero step yields an
// empty range rather than a fault.
func Range3(start, stop, step int64) *RangeIter {
	if step == 0 {
		return &RangeIter{Start: start, Stop: start, Step: 1}
	}
	return &RangeIter{Start: start, Stop: stop, Step: step}
}

// Len is the number of values the range produces.
func (r *RangeIter) Len() int64 {
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	}
	if r.Start <= r.Stop {
		return 0
	}
	return (r.Start - r.Stop - r.Step - 1) / -r.Step
}

// At is the i-th value of the range.
func (r *RangeIter) At(i int64) int64 { return r.Start + i*r.Step }

// RangeCleanup releases a range handle. Handles hold no owned resources,
// so this only exists to keep emitted acquire/release pairs symmetric.
func RangeCleanup(r *RangeIter) {}
