package request

// FlowKind names which of the four marketplace flows a request belongs to.
// It is a discriminator only; the engine never branches on it.
type FlowKind string

const (
	FlowMaintenance FlowKind = "maintenance"
	FlowRental      FlowKind = "rental"
	FlowTracking    FlowKind = "tracking"
	FlowTender      FlowKind = "tender"
)

func (k FlowKind) String() string {
	return string(k)
}

func (k FlowKind) IsValid() bool {
	switch k {
	case FlowMaintenance, FlowRental, FlowTracking, FlowTender:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusOpen           Status = "OPEN"
	StatusOffersReceived Status = "OFFERS_RECEIVED"
	StatusMatched        Status = "MATCHED"
	StatusClosed         Status = "CLOSED"
	StatusCancelled      Status = "CANCELLED"
	StatusExpired        Status = "EXPIRED"
)

// transitions is the single authoritative table; nothing else in the codebase
// compares status strings.
var transitions = map[Status][]Status{
	StatusOpen:           {StatusOffersReceived, StatusClosed, StatusCancelled, StatusExpired},
	StatusOffersReceived: {StatusMatched, StatusClosed, StatusCancelled, StatusExpired},
	StatusMatched:        {},
	StatusClosed:         {},
	StatusCancelled:      {},
	StatusExpired:        {},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
