package comm

import "sync/atomic"

// Stats counts channel activity. It is written by the tick loop and may be
// read from any goroutine.
type Stats struct {
	ticks           atomic.Int64
	starvedTicks    atomic.Int64
	broadcasts      atomic.Int64
	publishFailures atomic.Int64
	requests        atomic.Int64
	payments        atomic.Int64
	decodeFailures  atomic.Int64
	abandoned       atomic.Int64
}

type StatsSnapshot struct {
	Ticks           int64
	StarvedTicks    int64
	Broadcasts      int64
	PublishFailures int64
	Requests        int64
	Payments        int64
	DecodeFailures  int64
	Abandoned       int64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Ticks:           s.ticks.Load(),
		StarvedTicks:    s.starvedTicks.Load(),
		Broadcasts:      s.broadcasts.Load(),
		PublishFailures: s.publishFailures.Load(),
		Requests:        s.requests.Load(),
		Payments:        s.payments.Load(),
		DecodeFailures:  s.decodeFailures.Load(),
		Abandoned:       s.abandoned.Load(),
	}
}
