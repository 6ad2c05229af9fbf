package request

import (
	"encoding/json"
	"time"
)

type CreateRequestRequest struct {
	FlowKind string          `json:"flow_kind" binding:"required"`
	Terms    json.RawMessage `json:"terms" binding:"required"`
	ClosesAt *time.Time      `json:"closes_at,omitempty"`
}

type CloseRequestRequest struct {
	Cancel bool   `json:"cancel"`
	Reason string `json:"reason,omitempty"`
}
