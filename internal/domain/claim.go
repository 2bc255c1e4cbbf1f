package domain

import (
	"time"

	"github.com/google/uuid"
)

type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusAccepted  ClaimStatus = "accepted"
	ClaimStatusWaitlist  ClaimStatus = "waitlist"
	ClaimStatusRejected  ClaimStatus = "rejected"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// ValidStatus reports whether s is one of the five known claim statuses.
func ValidStatus(s ClaimStatus) bool {
	switch s {
	case ClaimStatusPending, ClaimStatusAccepted, ClaimStatusWaitlist,
		ClaimStatusRejected, ClaimStatusCancelled:
		return true
	}
	return false
}

// Claim is one viewer's request for a quantity of an item during a live
// session. Quantity and CreatedAt are immutable after creation; only the
// transition engine mutates Status.
type Claim struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	SessionID     uuid.UUID   `json:"session_id" db:"session_id"`
	ItemID        uuid.UUID   `json:"item_id" db:"item_id"`
	VariantID     uuid.UUID   `json:"variant_id,omitempty" db:"variant_id"` // uuid.Nil when the item has no variants
	CustomerLabel string      `json:"customer_label" db:"customer_label"`
	Quantity      int         `json:"quantity" db:"quantity"`
	Status        ClaimStatus `json:"status" db:"status"`
	JoyReserve    bool        `json:"joy_reserve" db:"joy_reserve"`
	Reason        string      `json:"reason,omitempty" db:"reason"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

func NewClaim(sessionID, itemID, variantID uuid.UUID, quantity int, customerLabel string) *Claim {
	now := time.Now()
	return &Claim{
		ID:            uuid.New(),
		SessionID:     sessionID,
		ItemID:        itemID,
		VariantID:     variantID,
		CustomerLabel: customerLabel,
		Quantity:      quantity,
		Status:        ClaimStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HoldsReservation reports whether the claim currently holds reserved stock.
// Only accepted claims do.
func (c *Claim) HoldsReservation() bool {
	return c.Status == ClaimStatusAccepted
}

// Deletable claims hold no reservation and never will again.
func (c *Claim) Deletable() bool {
	return c.Status == ClaimStatusCancelled || c.Status == ClaimStatusRejected
}

func (c *Claim) SetStatus(status ClaimStatus, reason string) {
	c.Status = status
	c.Reason = reason
	c.UpdatedAt = time.Now()
}

func (c *Claim) MarkJoyReserve() {
	c.JoyReserve = true
	c.UpdatedAt = time.Now()
}

type CreateClaimRequest struct {
	SessionID     uuid.UUID `json:"session_id"`
	ItemID        uuid.UUID `json:"item_id" validate:"required"`
	VariantID     uuid.UUID `json:"variant_id,omitempty"`
	Quantity      int       `json:"quantity" validate:"required,min=1"`
	CustomerLabel string    `json:"customer_label" validate:"required"`
}

type UpdateClaimStatusRequest struct {
	Status     ClaimStatus `json:"status" validate:"required"`
	Reason     string      `json:"reason,omitempty"`
	JoyReserve bool        `json:"joy_reserve,omitempty"`
}
