package response

import (
	"time"

	"fleet-match/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"requestId"`
	OfferID     uuid.UUID `json:"offerId"`
	RequesterID uuid.UUID `json:"requesterId"`
	ProviderID  uuid.UUID `json:"providerId"`
	Status      string    `json:"status"`
	ConfirmedAt time.Time `json:"confirmedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func FromBookingView(rm *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:          rm.ID,
		RequestID:   rm.RequestID,
		OfferID:     rm.OfferID,
		RequesterID: rm.RequesterID,
		ProviderID:  rm.ProviderID,
		Status:      rm.Status,
		ConfirmedAt: rm.ConfirmedAt,
		UpdatedAt:   rm.UpdatedAt,
	}
}
