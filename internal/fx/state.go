package fx

// State is the position of a Provider in its acquisition state machine:
//
//	Stale -> Fresh                  (usable cache hit)
//	Stale -> Fetching -> Fetched    (remote success, persisted)
//	Stale -> Fetching -> FellBack   (remote failure or disabled, not persisted)
//
// A held snapshot that expires is acquired again starting from Stale.
type State int

const (
	StateStale State = iota // Nothing usable resolved yet
	StateFresh              // Served from a fresh cache entry
	StateFetching           // Remote fetch in flight
	StateFetched            // Served from a successful remote fetch
	StateFellBack           // Served from the static fallback table
)

func (s State) String() string {
	switch s {
	case StateStale:
		return "STALE"
	case StateFresh:
		return "FRESH"
	case StateFetching:
		return "FETCHING"
	case StateFetched:
		return "FETCHED"
	case StateFellBack:
		return "FELL_BACK"
	default:
		return "UNKNOWN"
	}
}

// Resolved reports whether the state is terminal.
func (s State) Resolved() bool {
	return s == StateFresh || s == StateFetched || s == StateFellBack
}
