package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/live-commerce/claim-service/internal/domain"
)

// MemoryStore is a map-backed ClaimStore. It is the store used in tests and
// is good enough for a single-node deployment without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	claims  map[uuid.UUID]*domain.Claim
	seq     map[uuid.UUID]uint64 // insertion order, tie-breaker for equal CreatedAt
	nextSeq uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		claims: make(map[uuid.UUID]*domain.Claim),
		seq:    make(map[uuid.UUID]uint64),
	}
}

func (s *MemoryStore) Insert(_ context.Context, claim *domain.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.ID]; exists {
		return domain.NewValidationError("id", "claim already exists")
	}

	cp := *claim
	s.claims[claim.ID] = &cp
	s.seq[claim.ID] = s.nextSeq
	s.nextSeq++
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, ok := s.claims[id]
	if !ok {
		return nil, domain.NewNotFoundError("claim", id.String())
	}
	cp := *claim
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, claim *domain.Claim, expect domain.ClaimStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.claims[claim.ID]
	if !ok {
		return domain.NewNotFoundError("claim", claim.ID.String())
	}
	if current.Status != expect {
		return domain.ErrConcurrencyConflict
	}
	cp := *claim
	s.claims[claim.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[id]; !ok {
		return domain.NewNotFoundError("claim", id.String())
	}
	delete(s.claims, id)
	delete(s.seq, id)
	return nil
}

func (s *MemoryStore) ListBySession(_ context.Context, sessionID uuid.UUID, status domain.ClaimStatus) ([]*domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Claim
	for _, claim := range s.claims {
		if claim.SessionID != sessionID {
			continue
		}
		if status != "" && claim.Status != status {
			continue
		}
		cp := *claim
		out = append(out, &cp)
	}
	s.sortOldestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListWaitlisted(ctx context.Context, sessionID uuid.UUID) ([]*domain.Claim, error) {
	return s.ListBySession(ctx, sessionID, domain.ClaimStatusWaitlist)
}

func (s *MemoryStore) sortOldestFirst(claims []*domain.Claim) {
	sort.Slice(claims, func(i, j int) bool {
		if claims[i].CreatedAt.Equal(claims[j].CreatedAt) {
			return s.seq[claims[i].ID] < s.seq[claims[j].ID]
		}
		return claims[i].CreatedAt.Before(claims[j].CreatedAt)
	})
}
