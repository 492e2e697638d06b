package supervisor

import "time"

const (

	// First respawn delay after a worker death. Doubles with every
	// consecutive short-lived run of the same slot.
	backoffBase = 200 * time.Millisecond

	// Ceiling for the respawn delay.
	backoffMax = 5 * time.Second
)

// Counts worker restarts across the whole pool in a sliding window.
//
// The budget distinguishes isolated worker deaths, which are routine, from
// a pool that cannot hold its workers up. Exceeding it means the fault is
// systemic and restarting will not fix it.
type budget struct {
	max    int
	window time.Duration
	events []time.Time
}

func newBudget(max int, window time.Duration) *budget {
	return &budget{max: max, window: window}
}

// Records a restart at the given time.
func (b *budget) note(now time.Time) {
	b.prune(now)
	b.events = append(b.events, now)
}

// Reports whether the restarts recorded within the window exceed the
// budget.
func (b *budget) exceeded(now time.Time) bool {
	b.prune(now)
	return len(b.events) > b.max
}

// Drops events that have slid out of the window.
func (b *budget) prune(now time.Time) {
	cutoff := now.Add(-b.window)
	kept := b.events[:0]
	for _, e := range b.events {
		if e.After(cutoff) {
			kept = append(kept, e)
		}
	}
	b.events = kept
}

// Returns the respawn delay for a slot on its nth consecutive short-lived
// run.
func backoff(streak int) time.Duration {
	d := backoffBase
	for i := 1; i < streak && d < backoffMax; i++ {
		d *= 2
	}
	if d > backoffMax {
		d = backoffMax
	}
	return d
}
