package runtime

import (
	rt "runtime"
	"sync"
)

// BodyFunc is the synthesized per-index body the parallel lowering hands
// to the worker pool.
type BodyFunc = func(args ...any) any

// ParallelRangeForEach splits [start, end) with the given step across a
// worker per CPU and invokes body once per index. It blocks until every
// index has been visited. Iteration order across workers is unspecified;
// within a worker it is ascending.
func ParallelRangeForEach(start, end, step int64, body BodyFunc) {
	if step == 0 {
		return
	}
	total := rangeCount(start, end, step)
	if total == 0 {
		return
	}

	workers := int64(rt.GOMAXPROCS(0))
	if workers > total {
		workers = total
	}
	if workers <= 1 {
		for i := int64(0); i < total; i++ {
			body(start + i*step)
		}
		return
	}

	per := (total + workers - 1) / workers
	var wg sync.WaitGroup
	for w := int64(0); w < workers; w++ {
		lo := w * per
		hi := lo + per
		if hi > total {
			hi = total
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int64) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				body(start + i*step)
			}
		}(lo, hi)
	}
	wg.Wait()
}

func rangeCount(start, end, step int64) int64 {
	if step > 0 {
		if end <= start {
			return 0
		}
		return (end - start + step - 1) / step
	}
	if start <= end {
		return 0
	}
	return (start - end - step - 1) / -step
}
