package sourcing

// DefaultDomesticLatencyMS is used for a country's own round-trip time
// when no measurement exists.
const DefaultDomesticLatencyMS = 5.0

type pairKey struct {
	from, to string
}

// LatencyTable holds bilateral round-trip times in milliseconds.
// Lookups fall back to the reverse direction when only one direction was
// measured; a missing pair means the route is infeasible for RealTime.
type LatencyTable struct {
	ms              map[pairKey]float64
	domesticDefault float64
}

// NewLatencyTable creates an empty table with the standard domestic default.
func NewLatencyTable() *LatencyTable {
	return &LatencyTable{
		ms:              make(map[pairKey]float64),
		domesticDefault: DefaultDomesticLatencyMS,
	}
}

// Set records the measured latency for an ordered pair.
func (t *LatencyTable) Set(from, to string, ms float64) {
	t.ms[pairKey{from, to}] = ms
}

// Len returns the number of measured ordered pairs.
func (t *LatencyTable) Len() int {
	return len(t.ms)
}

// Lookup returns the latency between two countries. Domestic pairs fall
// back to the default when unmeasured; bilateral pairs fall back to the
// reverse direction. ok is false when the pair is unmeasured in both
// directions.
func (t *LatencyTable) Lookup(from, to string) (ms float64, ok bool) {
	if v, found := t.ms[pairKey{from, to}]; found {
		return v, true
	}
	if from == to {
		return t.domesticDefault, true
	}
	if v, found := t.ms[pairKey{to, from}]; found {
		return v, true
	}
	return 0, false
}
