package runtime

import (
	rt "runtime"
)

// The memory profiler feeds the chunk-size calculator. Readings race with
// allocation activity; stale values only shift chunk-size choices, never
// correctness.

// MemoryPressure is the ratio of live heap bytes to the heap memory
// obtained from the OS, in [0, 1]. Returns 0 before the heap exists.
func MemoryPressure() float64 {
	var stats rt.MemStats
	rt.ReadMemStats(&stats)
	if stats.HeapSys == 0 {
		return 0
	}
	r := float64(stats.HeapAlloc) / float64(stats.HeapSys)
	if r > 1 {
		return 1
	}
	return r
}
