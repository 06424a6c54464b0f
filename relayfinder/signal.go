package relayfinder

// signal is a buffered single-element channel: sending never blocks and a
// pending signal coalesces with the next send, so a receiver observes the
// edge once per scheduling tick rather than once per sender.
type signal chan struct{}

func newSignal() signal {
	return make(signal, 1)
}

func (s signal) send() {
	select {
	case s <- struct{}{}:
	default:
	}
}

// ScheduledWorkTimes records the next absolute time each housekeeping sweep
// is due, so the scheduler can compute the next wakeup as the minimum of
// the four.
type ScheduledWorkTimes struct {
	NextRefill          int64 // unix nano
	NextRefresh         int64
	NextBackoffSweep    int64
	NextCandidateSweep  int64
}
