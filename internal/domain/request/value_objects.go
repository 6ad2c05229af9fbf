package request

import (
	"encoding/json"
	"errors"
)

var ErrInvalidTerms = errors.New("terms payload must be a JSON object")

// Terms is the opaque, flow-specific payload (budget range, location, time
// window). The engine stores it and hands it to collaborators; it never
// interprets individual fields beyond checking the envelope is well-formed.
type Terms struct {
	raw json.RawMessage
}

func NewTerms(raw json.RawMessage) (Terms, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return Terms{}, ErrInvalidTerms
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Terms{}, ErrInvalidTerms
	}
	return Terms{raw: raw}, nil
}

// ReconstructTerms rebuilds a Terms from storage without re-validation.
func ReconstructTerms(raw json.RawMessage) Terms {
	return Terms{raw: raw}
}

func (t Terms) Raw() json.RawMessage {
	return t.raw
}

func (t Terms) IsZero() bool {
	return len(t.raw) == 0
}
