package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/live-commerce/claim-service/internal/domain"
)

type ClaimResponse struct {
	ID            uuid.UUID `json:"id"`
	SessionID     uuid.UUID `json:"session_id"`
	ItemID        uuid.UUID `json:"item_id"`
	VariantID     string    `json:"variant_id,omitempty"`
	CustomerLabel string    `json:"customer_label"`
	Quantity      int       `json:"quantity"`
	Status        string    `json:"status"`
	JoyReserve    bool      `json:"joy_reserve"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func mapClaim(claim *domain.Claim) ClaimResponse {
	response := ClaimResponse{
		ID:            claim.ID,
		SessionID:     claim.SessionID,
		ItemID:        claim.ItemID,
		CustomerLabel: claim.CustomerLabel,
		Quantity:      claim.Quantity,
		Status:        string(claim.Status),
		JoyReserve:    claim.JoyReserve,
		Reason:        claim.Reason,
		CreatedAt:     claim.CreatedAt,
		UpdatedAt:     claim.UpdatedAt,
	}
	if claim.VariantID != uuid.Nil {
		response.VariantID = claim.VariantID.String()
	}
	return response
}

func mapClaims(claims []*domain.Claim) []ClaimResponse {
	responses := make([]ClaimResponse, len(claims))
	for i, claim := range claims {
		responses[i] = mapClaim(claim)
	}
	return responses
}
