package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/live-commerce/claim-service/internal/domain"
	"github.com/live-commerce/claim-service/internal/events"
	"github.com/live-commerce/claim-service/internal/ledger"
	"github.com/live-commerce/claim-service/internal/store"
)

const serviceName = "claim-service"

// ReasonInsufficientStock is recorded on claims auto-waitlisted or rejected
// by admission.
const ReasonInsufficientStock = "insufficient stock at time of claim"

// publishRetries bounds broker retries for a single event. Events are
// advisory, so after the budget the event is dropped with a warning.
const publishRetries = 3

// EventPublisher pushes claim lifecycle events to the broker, retrying
// transient failures up to maxRetries attempts. A nil publisher disables
// publishing.
type EventPublisher interface {
	PublishWithRetry(event events.ClaimEvent, maxRetries int) error
}

// StockFlusher receives counter snapshots for asynchronous persistence.
// A nil flusher disables persistence.
type StockFlusher interface {
	Enqueue(snapshot domain.StockSnapshot)
}

// Config holds the engine's policy switches.
type Config struct {
	// AutoWaitlist sends over-claimed requests to the waitlist instead of
	// rejecting them outright.
	AutoWaitlist bool

	// AutoPromote retries a session's waitlist whenever a transition frees
	// stock.
	AutoPromote bool

	// ResellJoyReserved lets stock freed by a joy-reserve cancellation feed
	// automatic promotion. Off by default: joy-reserved stock stays parked
	// until the seller acts.
	ResellJoyReserved bool
}

// ClaimService is the reservation engine: admission of new claims, the status
// transition machine, and waitlist promotion. The ledger and claim store are
// injected so callers (and tests) control their lifetimes.
type ClaimService struct {
	ledger    *ledger.Ledger
	claims    store.ClaimStore
	publisher EventPublisher
	flusher   StockFlusher
	cfg       Config
	log       zerolog.Logger
}

func NewClaimService(stock *ledger.Ledger, claims store.ClaimStore, publisher EventPublisher, flusher StockFlusher, cfg Config, log zerolog.Logger) *ClaimService {
	return &ClaimService{
		ledger:    stock,
		claims:    claims,
		publisher: publisher,
		flusher:   flusher,
		cfg:       cfg,
		log:       log,
	}
}

// CreateClaim runs admission for a newly submitted claim: validate, read
// availability, reserve with commit-time re-validation, persist. The decision
// and its ledger effect are one logical unit; a reserve that loses a race
// falls through to waitlist or rejection instead of retrying.
func (s *ClaimService) CreateClaim(ctx context.Context, request domain.CreateClaimRequest) (*domain.Claim, error) {
	if err := s.validateCreate(request); err != nil {
		return nil, err
	}

	claim := domain.NewClaim(request.SessionID, request.ItemID, request.VariantID,
		request.Quantity, strings.TrimSpace(request.CustomerLabel))

	available, err := s.ledger.GetAvailable(request.ItemID, request.VariantID)
	if err != nil {
		return nil, err
	}

	accepted := false
	if available >= request.Quantity {
		err := s.ledger.AdjustReservation(request.ItemID, request.VariantID, request.Quantity)
		switch {
		case err == nil:
			accepted = true
		case errors.Is(err, domain.ErrInsufficientStock):
			// Lost the race for the last units; decide as if insufficient.
		default:
			return nil, err
		}
	}

	switch {
	case accepted:
		claim.SetStatus(domain.ClaimStatusAccepted, "")
	case s.cfg.AutoWaitlist:
		claim.SetStatus(domain.ClaimStatusWaitlist, ReasonInsufficientStock)
	default:
		claim.SetStatus(domain.ClaimStatusRejected, ReasonInsufficientStock)
	}

	if err := s.claims.Insert(ctx, claim); err != nil {
		if accepted {
			// Keep ledger and store in step: undo the reservation.
			if relErr := s.ledger.AdjustReservation(request.ItemID, request.VariantID, -request.Quantity); relErr != nil {
				s.log.Error().Err(relErr).Str("claim_id", claim.ID.String()).
					Msg("compensating release failed")
			}
		}
		return nil, err
	}

	if accepted {
		s.flushStock(claim.ItemID, claim.VariantID)
	}

	s.publishDecision(claim)

	s.log.Info().
		Str("claim_id", claim.ID.String()).
		Str("item_id", claim.ItemID.String()).
		Int("quantity", claim.Quantity).
		Str("status", string(claim.Status)).
		Msg("claim admitted")

	return claim, nil
}

// UpdateClaimStatus applies one edge of the transition table to an existing
// claim, with its stock side-effect. Transitioning a claim to its current
// status is a no-op and returns the claim unchanged, which makes retried
// requests (double-click cancels) safe.
func (s *ClaimService) UpdateClaimStatus(ctx context.Context, claimID uuid.UUID, target domain.ClaimStatus, reason string, joyReserve bool) (*domain.Claim, error) {
	if !domain.ValidStatus(target) {
		return nil, domain.NewValidationError("status", "unknown status")
	}

	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}

	if claim.Status == target {
		return claim, nil
	}

	tr, ok := transitionFor(claim.Status, target)
	if !ok {
		return nil, domain.NewInvalidTransitionError(claim.Status, target)
	}

	delta := 0
	switch tr.Effect {
	case effectRelease:
		delta = -claim.Quantity
	case effectReserve:
		delta = claim.Quantity
	}

	// The two writes are ordered by effect. A reserve happens before the
	// claim commits: compensating a lost commit is a release, which cannot
	// fail. A release waits until after the commit, because re-reserving
	// after a lost commit can fail once another admission takes the freed
	// units, which would strand an accepted claim without its reservation.
	if delta > 0 {
		if err := s.ledger.AdjustReservation(claim.ItemID, claim.VariantID, delta); err != nil {
			// Insufficient stock on re-reserve leaves the claim where it was;
			// the caller surfaces the error.
			return nil, err
		}
	}

	from := claim.Status
	claim.SetStatus(target, reason)
	if target == domain.ClaimStatusCancelled && joyReserve {
		claim.MarkJoyReserve()
	}

	if err := s.claims.Update(ctx, claim, from); err != nil {
		if delta > 0 {
			if compErr := s.ledger.AdjustReservation(claim.ItemID, claim.VariantID, -delta); compErr != nil {
				s.log.Error().Err(compErr).Str("claim_id", claim.ID.String()).
					Msg("compensating release failed")
			}
		}
		return nil, err
	}

	if delta < 0 {
		// The committed claim held this reservation exclusively, so the
		// release cannot underflow.
		if err := s.ledger.AdjustReservation(claim.ItemID, claim.VariantID, delta); err != nil {
			s.log.Error().Err(err).Str("claim_id", claim.ID.String()).
				Msg("release after commit failed")
		}
	}

	if delta != 0 {
		s.flushStock(claim.ItemID, claim.VariantID)
	}

	s.publishTransition(claim, from)

	s.log.Info().
		Str("claim_id", claim.ID.String()).
		Str("from", string(from)).
		Str("to", string(target)).
		Bool("joy_reserve", claim.JoyReserve).
		Msg("claim transitioned")

	if tr.Effect == effectRelease && s.cfg.AutoPromote {
		if !claim.JoyReserve || s.cfg.ResellJoyReserved {
			if _, err := s.PromoteWaitlist(ctx, claim.SessionID); err != nil {
				s.log.Warn().Err(err).Str("session_id", claim.SessionID.String()).
					Msg("opportunistic promotion failed")
			}
		}
	}

	return claim, nil
}

// DeleteClaim removes a claim that holds no reservation. Deleting an accepted
// or waitlisted claim is refused so a reservation can never leak.
func (s *ClaimService) DeleteClaim(ctx context.Context, claimID uuid.UUID) error {
	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return err
	}

	if !claim.Deletable() {
		return &domain.InvalidTransitionError{
			From:    claim.Status,
			To:      claim.Status,
			Message: "only cancelled or rejected claims can be deleted",
		}
	}

	if err := s.claims.Delete(ctx, claimID); err != nil {
		return err
	}

	s.publish(events.ClaimDeletedEvent, claim.SessionID, claim.ID, events.ClaimDeletedPayload{
		ClaimID: claim.ID,
		ItemID:  claim.ItemID,
	})

	return nil
}

// ListClaims returns a session's claims oldest-first, optionally filtered by
// status.
func (s *ClaimService) ListClaims(ctx context.Context, sessionID uuid.UUID, status domain.ClaimStatus) ([]*domain.Claim, error) {
	if status != "" && !domain.ValidStatus(status) {
		return nil, domain.NewValidationError("status", "unknown status")
	}
	return s.claims.ListBySession(ctx, sessionID, status)
}

// PromoteWaitlist retries a session's waitlisted claims oldest-first through
// the transition engine. A claim that still lacks stock stays waitlisted and
// the sweep moves on, so one sold-out item cannot block promotion for others.
// Returns how many claims were promoted.
func (s *ClaimService) PromoteWaitlist(ctx context.Context, sessionID uuid.UUID) (int, error) {
	waitlisted, err := s.claims.ListWaitlisted(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, claim := range waitlisted {
		_, err := s.UpdateClaimStatus(ctx, claim.ID, domain.ClaimStatusAccepted, "promoted from waitlist", false)
		switch {
		case err == nil:
			promoted++
		case errors.Is(err, domain.ErrInsufficientStock):
			// Still short; leave on the waitlist.
		default:
			s.log.Warn().Err(err).Str("claim_id", claim.ID.String()).
				Msg("waitlist promotion skipped")
		}
	}

	if promoted > 0 {
		s.log.Info().Str("session_id", sessionID.String()).Int("promoted", promoted).
			Msg("waitlist promoted")
	}

	return promoted, nil
}

// GetAvailableStock is the advisory read the UI shows before a claim is
// submitted; the authoritative check happens inside CreateClaim.
func (s *ClaimService) GetAvailableStock(itemID, variantID uuid.UUID) (int, error) {
	return s.ledger.GetAvailable(itemID, variantID)
}

// Items reports every registered item with derived totals.
func (s *ClaimService) Items() []domain.InventoryItem {
	return s.ledger.Items()
}

func (s *ClaimService) validateCreate(request domain.CreateClaimRequest) error {
	if request.Quantity <= 0 {
		return domain.NewValidationError("quantity", "must be a positive integer")
	}
	if strings.TrimSpace(request.CustomerLabel) == "" {
		return domain.NewValidationError("customer_label", "must not be empty")
	}
	if request.ItemID == uuid.Nil {
		return domain.NewValidationError("item_id", "required")
	}

	active, err := s.ledger.IsActive(request.ItemID)
	if err != nil {
		return domain.NewValidationError("item_id", "unknown item")
	}
	if !active {
		return domain.NewValidationError("item_id", "item is not active")
	}

	hasVariants, err := s.ledger.HasVariants(request.ItemID)
	if err != nil {
		return domain.NewValidationError("item_id", "unknown item")
	}
	if hasVariants && request.VariantID == uuid.Nil {
		return domain.NewValidationError("variant_id", "required for this item")
	}
	if request.VariantID != uuid.Nil {
		ok, err := s.ledger.HasVariant(request.ItemID, request.VariantID)
		if err != nil || !ok {
			return domain.NewValidationError("variant_id", "unknown variant")
		}
	}

	return nil
}

func (s *ClaimService) publishDecision(claim *domain.Claim) {
	eventType := events.ClaimRejectedEvent
	switch claim.Status {
	case domain.ClaimStatusAccepted:
		eventType = events.ClaimAcceptedEvent
	case domain.ClaimStatusWaitlist:
		eventType = events.ClaimWaitlistedEvent
	}

	available, _ := s.ledger.GetAvailable(claim.ItemID, claim.VariantID)
	s.publish(eventType, claim.SessionID, claim.ID, events.ClaimDecidedPayload{
		Claim:     *claim,
		Available: available,
	})
}

func (s *ClaimService) publishTransition(claim *domain.Claim, from domain.ClaimStatus) {
	var eventType events.ClaimEventType
	switch claim.Status {
	case domain.ClaimStatusCancelled:
		eventType = events.ClaimCancelledEvent
	case domain.ClaimStatusRejected:
		eventType = events.ClaimRejectedEvent
	case domain.ClaimStatusAccepted:
		eventType = events.ClaimPromotedEvent
	case domain.ClaimStatusWaitlist:
		eventType = events.ClaimReleasedEvent
	default:
		return
	}

	s.publish(eventType, claim.SessionID, claim.ID, events.ClaimTransitionPayload{
		Claim:      *claim,
		From:       from,
		JoyReserve: claim.JoyReserve,
	})
}

func (s *ClaimService) publish(eventType events.ClaimEventType, sessionID, claimID uuid.UUID, payload interface{}) {
	if s.publisher == nil {
		return
	}

	event := events.ClaimEvent{
		ID:            uuid.New(),
		SessionID:     sessionID,
		ClaimID:       claimID,
		EventType:     eventType,
		Service:       serviceName,
		CorrelationID: uuid.New(),
		Payload:       payload,
	}

	if err := s.publisher.PublishWithRetry(event, publishRetries); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(eventType)).
			Msg("event publish failed")
	}
}

func (s *ClaimService) flushStock(itemID, variantID uuid.UUID) {
	if s.flusher == nil {
		return
	}

	snapshot, err := s.ledger.Snapshot(itemID, variantID)
	if err != nil {
		s.log.Warn().Err(err).Str("item_id", itemID.String()).
			Msg("stock snapshot failed")
		return
	}
	s.flusher.Enqueue(snapshot)
}
