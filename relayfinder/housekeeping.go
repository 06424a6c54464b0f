package relayfinder

import (
	"context"
	"time"
)

const minSchedulerSleep = 100 * time.Millisecond

// housekeepingLoop is a single routine computing, on each wakeup, the next
// absolute time any of the four sweeps is due, sleeping until then (clamped
// to at least 100ms).
func (f *RelayFinder) housekeepingLoop(ctx context.Context) {
	now := time.Now()
	f.work.NextRefill = now.Add(f.cfg.minInterval).UnixNano()
	f.work.NextRefresh = now.Add(f.cfg.rsvpRefreshInterval).UnixNano()
	f.work.NextBackoffSweep = now.Add(f.cfg.backoff).UnixNano()
	f.work.NextCandidateSweep = now.Add(f.cfg.maxCandidateAge).UnixNano()

	for {
		next := f.nextDue()
		sleep := time.Until(next)
		if sleep < minSchedulerSleep {
			sleep = minSchedulerSleep
		}

		timer := time.NewTimer(sleep)
		select {
		case <-f.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			f.runDueSweeps(ctx)
		}
	}
}

func (f *RelayFinder) nextDue() time.Time {
	min := f.work.NextRefill
	for _, t := range []int64{f.work.NextRefresh, f.work.NextBackoffSweep, f.work.NextCandidateSweep} {
		if t < min {
			min = t
		}
	}
	return time.Unix(0, min)
}

func (f *RelayFinder) runDueSweeps(ctx context.Context) {
	now := time.Now()

	if now.UnixNano() >= f.work.NextRefill {
		f.rateToken.send()
		f.work.NextRefill = now.Add(f.cfg.minInterval).UnixNano()
	}
	if now.UnixNano() >= f.work.NextRefresh {
		f.refreshDueRelays(ctx)
		f.work.NextRefresh = now.Add(f.cfg.rsvpRefreshInterval).UnixNano()
	}
	if now.UnixNano() >= f.work.NextBackoffSweep {
		f.sweepBackoff(now)
		f.work.NextBackoffSweep = now.Add(f.cfg.backoff).UnixNano()
	}
	if now.UnixNano() >= f.work.NextCandidateSweep {
		f.sweepOldCandidates(now)
		f.work.NextCandidateSweep = now.Add(f.cfg.maxCandidateAge).UnixNano()
	}
}

func (f *RelayFinder) sweepBackoff(now time.Time) {
	f.candidateMx.Lock()
	defer f.candidateMx.Unlock()
	for id, until := range f.backoff {
		if now.After(until) {
			delete(f.backoff, id)
		}
	}
}

func (f *RelayFinder) sweepOldCandidates(now time.Time) {
	f.candidateMx.Lock()
	dropped := false
	for id, c := range f.candidates {
		if c.expired(f.cfg.maxCandidateAge, now) {
			delete(f.candidates, id)
			dropped = true
		}
	}
	f.candidateMx.Unlock()

	if dropped {
		f.needCandidates.send()
	}
}
