package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/live-commerce/claim-service/internal/domain"
)

// ClaimStore persists claim records and their status history. The engine owns
// all mutations; the store only keeps them. List results are ordered
// oldest-first by creation time.
type ClaimStore interface {
	Insert(ctx context.Context, claim *domain.Claim) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Claim, error)

	// Update persists claim only if its stored status still equals expect,
	// otherwise ErrConcurrencyConflict. Transitions use this compare-and-set
	// so two simultaneous updates of one claim cannot both apply.
	Update(ctx context.Context, claim *domain.Claim, expect domain.ClaimStatus) error

	Delete(ctx context.Context, id uuid.UUID) error

	// ListBySession returns a session's claims, optionally filtered by status
	// (empty filter means all).
	ListBySession(ctx context.Context, sessionID uuid.UUID, status domain.ClaimStatus) ([]*domain.Claim, error)

	// ListWaitlisted returns a session's waitlist oldest-first, the order the
	// promoter retries in.
	ListWaitlisted(ctx context.Context, sessionID uuid.UUID) ([]*domain.Claim, error)
}
