package reconcile

// LevelBand is an inclusive altitude filter in the units the ownership data uses
type LevelBand struct {
	Min int
	Max int
}

// Options are the externally configured switches for one reconciliation pass
type Options struct {
	BookingOverride       bool // show every boundary as booked and suppress dynamic sectors
	FallbackPositionsOnly bool // keep only assignments whose callsign is in FallbackCallsigns
	FallbackCallsigns     map[string]bool
	CombinedSectors       bool       // render the combined polygon set of each position
	SelectedLevel         *LevelBand // nil means all levels
	DynamicActive         bool       // dynamic position sectors are enabled
}

// overlaps reports whether a band with optional bounds intersects the
// selected level. Missing bounds are open ended.
func (o Options) overlaps(lo, hi *int) bool {
	if o.SelectedLevel == nil {
		return true
	}
	if lo != nil && *lo > o.SelectedLevel.Max {
		return false
	}
	if hi != nil && *hi < o.SelectedLevel.Min {
		return false
	}
	return true
}
