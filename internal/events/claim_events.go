package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/live-commerce/claim-service/internal/domain"
)

type ClaimEventType string

const (
	// Admission outcomes
	ClaimAcceptedEvent   ClaimEventType = "claim.accepted"
	ClaimWaitlistedEvent ClaimEventType = "claim.waitlisted"
	ClaimRejectedEvent   ClaimEventType = "claim.rejected"

	// Lifecycle
	ClaimCancelledEvent ClaimEventType = "claim.cancelled"
	ClaimPromotedEvent  ClaimEventType = "claim.promoted"
	ClaimReleasedEvent  ClaimEventType = "claim.released"
	ClaimDeletedEvent   ClaimEventType = "claim.deleted"

	// Inbound commands
	ClaimSubmittedEvent ClaimEventType = "claim.submitted"
)

type ClaimEvent struct {
	ID            uuid.UUID      `json:"id"`
	SessionID     uuid.UUID      `json:"session_id"` // live broadcast session
	ClaimID       uuid.UUID      `json:"claim_id"`
	EventType     ClaimEventType `json:"event_type"`
	Payload       interface{}    `json:"payload"`
	Timestamp     time.Time      `json:"timestamp"`
	Service       string         `json:"service"`
	CorrelationID uuid.UUID      `json:"correlation_id"`
}

type ClaimDecidedPayload struct {
	Claim     domain.Claim `json:"claim"`
	Available int          `json:"available"`
}

type ClaimTransitionPayload struct {
	Claim      domain.Claim       `json:"claim"`
	From       domain.ClaimStatus `json:"from"`
	JoyReserve bool               `json:"joy_reserve"`
}

type ClaimDeletedPayload struct {
	ClaimID uuid.UUID `json:"claim_id"`
	ItemID  uuid.UUID `json:"item_id"`
}

type ClaimSubmittedPayload struct {
	SessionID     uuid.UUID `json:"session_id"`
	ItemID        uuid.UUID `json:"item_id"`
	VariantID     uuid.UUID `json:"variant_id,omitempty"`
	Quantity      int       `json:"quantity"`
	CustomerLabel string    `json:"customer_label"`
}
