package response

import (
	"encoding/json"
	"time"

	"fleet-match/internal/usecase/queries"

	"github.com/google/uuid"
)

type OfferResponse struct {
	ID          uuid.UUID       `json:"id"`
	RequestID   uuid.UUID       `json:"requestId"`
	ProviderID  uuid.UUID       `json:"providerId"`
	Terms       json.RawMessage `json:"terms"`
	Status      string          `json:"status"`
	SubmittedAt time.Time       `json:"submittedAt"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func FromOfferView(rm *queries.OfferView) *OfferResponse {
	return &OfferResponse{
		ID:          rm.ID,
		RequestID:   rm.RequestID,
		ProviderID:  rm.ProviderID,
		Terms:       rm.Terms,
		Status:      rm.Status,
		SubmittedAt: rm.SubmittedAt,
		ExpiresAt:   rm.ExpiresAt,
		UpdatedAt:   rm.UpdatedAt,
	}
}
