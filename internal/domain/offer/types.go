package offer

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusWithdrawn Status = "WITHDRAWN"
)

// Every destination from PENDING is terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusAccepted, StatusRejected, StatusExpired, StatusWithdrawn},
	StatusAccepted:  {},
	StatusRejected:  {},
	StatusExpired:   {},
	StatusWithdrawn: {},
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
