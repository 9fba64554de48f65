package types

// This file defines how the store reports what it is doing.

/*
Metrics is an interface that defines what the store wants to measure.
Each method represents an event in an entry's lifecycle. The store calls these methods
whenever something happens, possibly from many goroutines at once.
*/
type Metrics interface {

	// Hit is called when a lookup finds a live entry.
	Hit()

	// Miss is called when a lookup finds nothing, or finds an entry that already expired.
	Miss()

	// Expire is called when an entry is deleted because its TTL passed,
	// either on lookup (passive) or by a sweeper (active).
	Expire()

	// Sweep is called once per sweeper pass with the number of sampled and expired keys.
	Sweep(sampled, expired int)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

We don't want to force every user of the store to implement metrics, and we don't want
nil checks on the hot path either. So the default is an implementation that ignores all events.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Expire()        {}
func (NoopMetrics) Sweep(int, int) {}
