package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClaimLifecycleFlags(t *testing.T) {
	claim := NewClaim(uuid.New(), uuid.New(), uuid.Nil, 2, "viewer one")

	assert.Equal(t, ClaimStatusPending, claim.Status)
	assert.False(t, claim.HoldsReservation())
	assert.False(t, claim.Deletable())

	claim.SetStatus(ClaimStatusAccepted, "")
	assert.True(t, claim.HoldsReservation())
	assert.False(t, claim.Deletable())

	claim.SetStatus(ClaimStatusCancelled, "changed mind")
	claim.MarkJoyReserve()
	assert.False(t, claim.HoldsReservation())
	assert.True(t, claim.Deletable())
	assert.True(t, claim.JoyReserve)
	assert.Equal(t, "changed mind", claim.Reason)
}

func TestItemAvailableClampsAndSums(t *testing.T) {
	item := InventoryItem{Stock: 5, ReservedStock: 7}
	assert.Equal(t, 0, item.Available(), "availability never reports negative")

	withVariants := InventoryItem{Variants: []Variant{
		{Stock: 3, ReservedStock: 1},
		{Stock: 2, ReservedStock: 2},
	}}
	assert.Equal(t, 2, withVariants.Available())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(ClaimStatusWaitlist))
	assert.False(t, ValidStatus("shipped"))
}
