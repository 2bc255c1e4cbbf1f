package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/live-commerce/claim-service/internal/domain"
)

func newClaim(sessionID uuid.UUID, status domain.ClaimStatus, createdAt time.Time) *domain.Claim {
	return &domain.Claim{
		ID:            uuid.New(),
		SessionID:     sessionID,
		ItemID:        uuid.New(),
		CustomerLabel: "viewer",
		Quantity:      1,
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestMemoryStore_InsertGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	claim := newClaim(uuid.New(), domain.ClaimStatusAccepted, time.Now())

	require.NoError(t, s.Insert(ctx, claim))

	got, err := s.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, got.ID)
	assert.Equal(t, domain.ClaimStatusAccepted, got.Status)

	got.SetStatus(domain.ClaimStatusCancelled, "changed mind")
	require.NoError(t, s.Update(ctx, got, domain.ClaimStatusAccepted))

	got, err = s.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusCancelled, got.Status)
	assert.Equal(t, "changed mind", got.Reason)

	require.NoError(t, s.Delete(ctx, claim.ID))
	_, err = s.Get(ctx, claim.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestMemoryStore_InsertDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	claim := newClaim(uuid.New(), domain.ClaimStatusAccepted, time.Now())

	require.NoError(t, s.Insert(ctx, claim))
	assert.Error(t, s.Insert(ctx, claim))
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	claim := newClaim(uuid.New(), domain.ClaimStatusAccepted, time.Now())
	require.NoError(t, s.Insert(ctx, claim))

	got, err := s.Get(ctx, claim.ID)
	require.NoError(t, err)
	got.Status = domain.ClaimStatusCancelled

	again, err := s.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusAccepted, again.Status,
		"mutating a returned claim must not touch the stored record")
}

func TestMemoryStore_ListBySessionOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	sessionID := uuid.New()
	base := time.Now()

	third := newClaim(sessionID, domain.ClaimStatusWaitlist, base.Add(2*time.Second))
	first := newClaim(sessionID, domain.ClaimStatusAccepted, base)
	second := newClaim(sessionID, domain.ClaimStatusWaitlist, base.Add(time.Second))
	other := newClaim(uuid.New(), domain.ClaimStatusAccepted, base)

	for _, c := range []*domain.Claim{third, first, second, other} {
		require.NoError(t, s.Insert(ctx, c))
	}

	claims, err := s.ListBySession(ctx, sessionID, "")
	require.NoError(t, err)
	require.Len(t, claims, 3)
	assert.Equal(t, first.ID, claims[0].ID)
	assert.Equal(t, second.ID, claims[1].ID)
	assert.Equal(t, third.ID, claims[2].ID)

	waitlisted, err := s.ListWaitlisted(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, waitlisted, 2)
	assert.Equal(t, second.ID, waitlisted[0].ID)
	assert.Equal(t, third.ID, waitlisted[1].ID)
}

func TestMemoryStore_ListTieBreaksByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	sessionID := uuid.New()
	at := time.Now()

	first := newClaim(sessionID, domain.ClaimStatusWaitlist, at)
	second := newClaim(sessionID, domain.ClaimStatusWaitlist, at)
	require.NoError(t, s.Insert(ctx, first))
	require.NoError(t, s.Insert(ctx, second))

	claims, err := s.ListBySession(ctx, sessionID, domain.ClaimStatusWaitlist)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, first.ID, claims[0].ID)
	assert.Equal(t, second.ID, claims[1].ID)
}

func TestMemoryStore_UpdateUnknown(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	claim := newClaim(uuid.New(), domain.ClaimStatusAccepted, time.Now())

	assert.True(t, domain.IsNotFound(s.Update(ctx, claim, domain.ClaimStatusAccepted)))
	assert.True(t, domain.IsNotFound(s.Delete(ctx, claim.ID)))
}

func TestMemoryStore_UpdateCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	claim := newClaim(uuid.New(), domain.ClaimStatusAccepted, time.Now())
	require.NoError(t, s.Insert(ctx, claim))

	winner, err := s.Get(ctx, claim.ID)
	require.NoError(t, err)
	loser, err := s.Get(ctx, claim.ID)
	require.NoError(t, err)

	winner.SetStatus(domain.ClaimStatusCancelled, "")
	require.NoError(t, s.Update(ctx, winner, domain.ClaimStatusAccepted))

	loser.SetStatus(domain.ClaimStatusRejected, "")
	err = s.Update(ctx, loser, domain.ClaimStatusAccepted)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	stored, err := s.Get(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusCancelled, stored.Status)
}
