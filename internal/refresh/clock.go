package refresh

import "time"

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Clock schedules callbacks after a delay.
//
// The controller never sleeps; it arms a single timer through the clock and
// lets the strategy loop wait for it. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a [Clock] backed by [time.AfterFunc].
func SystemClock() Clock {
	return systemClock{}
}
