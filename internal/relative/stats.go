package relative

import "sync/atomic"

// Stats counts what happened to the reports a Mode has seen.
type Stats struct {
	Reports   uint64 // tablet reports that passed the report id gate
	Discarded uint64 // tablet reports dropped by the gate
	Ignored   uint64 // non-tablet reports
	Resets    uint64 // idle resets
	Baselines uint64 // reports that only established a baseline
	Moves     uint64 // successful SetPosition calls
	Dropped   uint64 // frames lost to cursor port failures or bad output
}

type counters struct {
	reports   atomic.Uint64
	discarded atomic.Uint64
	ignored   atomic.Uint64
	resets    atomic.Uint64
	baselines atomic.Uint64
	moves     atomic.Uint64
	dropped   atomic.Uint64
}

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (m *Mode) Stats() Stats {
	return Stats{
		Reports:   m.stats.reports.Load(),
		Discarded: m.stats.discarded.Load(),
		Ignored:   m.stats.ignored.Load(),
		Resets:    m.stats.resets.Load(),
		Baselines: m.stats.baselines.Load(),
		Moves:     m.stats.moves.Load(),
		Dropped:   m.stats.dropped.Load(),
	}
}
