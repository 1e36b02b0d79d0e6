package resolver

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Tracker remembers the last frequency resolved for each entity so callers
// can react to handoffs. Entities not observed for ttl are forgotten.
type Tracker struct {
	last *expirable.LRU[string, string]
}

// NewTracker creates a tracker holding at most size entities
func NewTracker(size int, ttl time.Duration) *Tracker {
	return &Tracker{last: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Observe records the entity's current controller and reports whether it
// differs from the previous observation. A nil result means uncontrolled.
func (t *Tracker) Observe(entityID string, freq *ControllingFrequency) bool {
	current := ""
	if freq != nil {
		current = freq.Callsign + "@" + freq.Frequency
	}
	previous, seen := t.last.Get(entityID)
	t.last.Add(entityID, current)
	if !seen {
		return current != ""
	}
	return previous != current
}

// Len returns the number of tracked entities
func (t *Tracker) Len() int {
	return t.last.Len()
}
