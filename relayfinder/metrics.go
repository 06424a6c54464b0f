package relayfinder

import "sync/atomic"

// MetricsTracer is the optional capability RelayFinder reports relay-related
// events through. Modeled as a duck-typed interface with a no-op default
// rather than a base type to inherit from, so callers that don't need
// tracing never construct one.
type MetricsTracer interface {
	CandidateAdded()
	CandidateVetFailed()
	ReservationOpened()
	ReservationRefreshed()
	ReservationExpired()
	BackoffEntryAdded()
}

type noopMetrics struct{}

func (noopMetrics) CandidateAdded()       {}
func (noopMetrics) CandidateVetFailed()   {}
func (noopMetrics) ReservationOpened()    {}
func (noopMetrics) ReservationRefreshed() {}
func (noopMetrics) ReservationExpired()   {}
func (noopMetrics) BackoffEntryAdded()    {}

// Snapshot is a point-in-time counter dump.
type Snapshot struct {
	CandidatesAdded       int64
	CandidatesVetFailed   int64
	ReservationsOpened    int64
	ReservationsRefreshed int64
	ReservationsExpired   int64
	BackoffEntriesAdded   int64
}

// counters accumulates the same events fed to the optional MetricsTracer so
// Metrics() always has something to report even without one configured.
type counters struct {
	candidatesAdded       atomic.Int64
	candidatesVetFailed   atomic.Int64
	reservationsOpened    atomic.Int64
	reservationsRefreshed atomic.Int64
	reservationsExpired   atomic.Int64
	backoffEntriesAdded   atomic.Int64
}

func (c *counters) snapshot() Snapshot {
	return Snapshot{
		CandidatesAdded:       c.candidatesAdded.Load(),
		CandidatesVetFailed:   c.candidatesVetFailed.Load(),
		ReservationsOpened:    c.reservationsOpened.Load(),
		ReservationsRefreshed: c.reservationsRefreshed.Load(),
		ReservationsExpired:   c.reservationsExpired.Load(),
		BackoffEntriesAdded:   c.backoffEntriesAdded.Load(),
	}
}
