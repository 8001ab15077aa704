package alert

import "sync/atomic"

// Counters are the operator-facing pipeline counters exposed on /metrics/pipeline.
type Counters struct {
	completed      atomic.Int64
	failed         atomic.Int64
	unpersisted    atomic.Int64
	recoveryPasses atomic.Int64
}

type Snapshot struct {
	CompletedRuns   int64 `json:"completedRuns"`
	FailedRuns      int64 `json:"failedRuns"`
	UnpersistedRuns int64 `json:"unpersistedRuns"`
	RecoveryPasses  int64 `json:"recoveryPasses"`
}

func (c *Counters) Completed()    { c.completed.Add(1) }
func (c *Counters) Failed()       { c.failed.Add(1) }
func (c *Counters) Unpersisted()  { c.unpersisted.Add(1) }
func (c *Counters) RecoveryPass() { c.recoveryPasses.Add(1) }

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		CompletedRuns:   c.completed.Load(),
		FailedRuns:      c.failed.Load(),
		UnpersistedRuns: c.unpersisted.Load(),
		RecoveryPasses:  c.recoveryPasses.Load(),
	}
}
