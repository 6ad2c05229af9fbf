package response

import (
	"encoding/json"
	"time"

	"fleet-match/internal/usecase/queries"

	"github.com/google/uuid"
)

type RequestResponse struct {
	ID          uuid.UUID       `json:"id"`
	RequesterID uuid.UUID       `json:"requesterId"`
	FlowKind    string          `json:"flowKind"`
	Terms       json.RawMessage `json:"terms"`
	Status      string          `json:"status"`
	ClosesAt    *time.Time      `json:"closesAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func FromRequestView(rm *queries.RequestView) *RequestResponse {
	return &RequestResponse{
		ID:          rm.ID,
		RequesterID: rm.RequesterID,
		FlowKind:    rm.FlowKind,
		Terms:       rm.Terms,
		Status:      rm.Status,
		ClosesAt:    rm.ClosesAt,
		CreatedAt:   rm.CreatedAt,
		UpdatedAt:   rm.UpdatedAt,
	}
}
