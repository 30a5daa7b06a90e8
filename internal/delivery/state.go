package delivery

// State is the position of one request in the delivery state machine:
//
//	Received → Announced → Fetching → Delivered → Cleaned
//	Received → Announced → Fetching → Failed
type State int

// Request states.
const (
	StateReceived State = iota
	StateAnnounced
	StateFetching
	StateDelivered
	StateCleaned
	StateFailed
)

var stateNames = [...]string{
	StateReceived:  "received",
	StateAnnounced: "announced",
	StateFetching:  "fetching",
	StateDelivered: "delivered",
	StateCleaned:   "cleaned",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCleaned || s == StateFailed
}
