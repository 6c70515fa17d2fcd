package refold

import (
	"fmt"
	"time"
)

// DefaultTries is how many times a failing external step is attempted
// before the backbone it belongs to is given up on.
const DefaultTries = 5

// Attempt runs action up to tries times and returns nil as soon as one run
// succeeds. After every failure, cleanup runs (when non-nil) and the next
// attempt is delayed by a linearly growing backoff: wait after the first
// failure, twice that after the second, and so on. Once the bound is
// exhausted the last error is wrapped and returned; action is never started
// a tries+1'th time.
func Attempt(tries int, wait time.Duration, action func() error, cleanup func()) error {
	if tries < 1 {
		return fmt.Errorf("Retry bound must be positive; got %d.", tries)
	}
	var err error
	for i := 1; i <= tries; i++ {
		if err = action(); err == nil {
			return nil
		}
		if cleanup != nil {
			cleanup()
		}
		if i < tries && wait > 0 {
			time.Sleep(time.Duration(i) * wait)
		}
	}
	return fmt.Errorf("Giving up after %d attempts. Last error: %s", tries, err)
}

// Device is the accelerator handle external tools run against. A Refolder
// owns exactly one for its lifetime; there is no process-global device
// state.
type Device struct {
	// ID is the ordinal external tools should bind to. A negative ID lets
	// each tool pick for itself.
	ID int

	// Flush releases cached accelerator memory. It runs between retry
	// attempts of a failing external call, so repeated failures do not
	// accumulate stale allocations. Nil means nothing to flush.
	Flush func()
}

func (d Device) flush() {
	if d.Flush != nil {
		d.Flush()
	}
}
