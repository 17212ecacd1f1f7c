package pipeline

// Run holds the counters of one pipeline run. It is owned by the
// aggregator: workers never touch it directly, they hand (unit, outcome)
// pairs to Merge and the aggregator updates its Run under its own lock.
type Run struct {
	// Total is the number of units the source was built with.
	Total int

	// Completed is the number of units merged so far.
	Completed int

	// Success counts units that produced a payload.
	Success int

	// Empty counts units that completed with nothing there.
	Empty int

	// Failed counts units recorded with a permanent failure.
	Failed int
}

// Observe counts one merged outcome status. Callers hold the aggregator
// lock.
func (r *Run) Observe(s Status) {
	r.Completed++
	switch s {
	case StatusSuccess:
		r.Success++
	case StatusEmpty:
		r.Empty++
	default:
		r.Failed++
	}
}

// Aggregator collects worker outcomes into the final output structure.
// Merge is invoked concurrently by pool workers and must apply each
// (unit, outcome) pair exactly once; the source's exactly-once delivery
// guarantees no pair arrives twice.
type Aggregator[U, R any] interface {
	Merge(unit U, out Outcome[R])
}
