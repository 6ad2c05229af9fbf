package request

import (
	"encoding/json"

	"github.com/google/uuid"
)

type SubmitOfferRequest struct {
	Terms      json.RawMessage `json:"terms" binding:"required"`
	TTLSeconds int64           `json:"ttl_seconds" binding:"required,gt=0"`
}

type AcceptOfferRequest struct {
	OfferID uuid.UUID `json:"offer_id" binding:"required"`
}

type RejectOfferRequest struct {
	Reason string `json:"reason,omitempty"`
}
