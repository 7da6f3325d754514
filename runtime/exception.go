package runtime

import "sync"

// The current-exception register backs the raise/except lowering: raise
// records a value here, handlers read and clear it. The in-flight flag
// itself lives in an IR global; this register only carries the payload.
var (
	excMu      sync.Mutex
	currentExc *Value
)

// SetCurrentException records the in-flight exception value, releasing
// any value already recorded.
func SetCurrentException(v *Value) {
	excMu.Lock()
	defer excMu.Unlock()
	if currentExc != nil {
		Free(currentExc)
	}
	currentExc = v
}

// GetCurrentException returns a clone of the in-flight exception value,
// or None when nothing is in flight.
func GetCurrentException() *Value {
	excMu.Lock()
	defer excMu.Unlock()
	if currentExc == nil {
		return None()
	}
	return Clone(currentExc)
}

// ClearCurrentException drops the recorded exception.
func ClearCurrentException() {
	excMu.Lock()
	defer excMu.Unlock()
	if currentExc != nil {
		Free(currentExc)
		currentExc = nil
	}
}
