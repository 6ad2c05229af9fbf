package queries

import (
	"encoding/json"
	"time"

	"fleet-match/internal/domain/booking"
	"fleet-match/internal/domain/offer"
	"fleet-match/internal/domain/request"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type RequestView struct {
	ID          uuid.UUID       `json:"id"`
	RequesterID uuid.UUID       `json:"requester_id"`
	FlowKind    string          `json:"flow_kind"`
	Terms       json.RawMessage `json:"terms"`
	Status      string          `json:"status"`
	ClosesAt    *time.Time      `json:"closes_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OfferView struct {
	ID          uuid.UUID       `json:"id"`
	RequestID   uuid.UUID       `json:"request_id"`
	ProviderID  uuid.UUID       `json:"provider_id"`
	Terms       json.RawMessage `json:"terms"`
	Status      string          `json:"status"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type BookingView struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"request_id"`
	OfferID     uuid.UUID `json:"offer_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	Status      string    `json:"status"`
	ConfirmedAt time.Time `json:"confirmed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewRequestView(r *request.Request) *RequestView {
	return &RequestView{
		ID:          r.ID(),
		RequesterID: r.RequesterID(),
		FlowKind:    r.FlowKind().String(),
		Terms:       r.Terms().Raw(),
		Status:      r.Status().String(),
		ClosesAt:    r.ClosesAt(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func NewOfferView(o *offer.Offer) *OfferView {
	return &OfferView{
		ID:          o.ID(),
		RequestID:   o.RequestID(),
		ProviderID:  o.ProviderID(),
		Terms:       o.Terms().Raw(),
		Status:      o.Status().String(),
		SubmittedAt: o.SubmittedAt(),
		ExpiresAt:   o.ExpiresAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

func NewBookingView(b *booking.Booking) *BookingView {
	return &BookingView{
		ID:          b.ID(),
		RequestID:   b.RequestID(),
		OfferID:     b.OfferID(),
		RequesterID: b.RequesterID(),
		ProviderID:  b.ProviderID(),
		Status:      b.Status().String(),
		ConfirmedAt: b.ConfirmedAt(),
		UpdatedAt:   b.UpdatedAt(),
	}
}
