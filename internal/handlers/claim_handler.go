package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/live-commerce/claim-service/internal/domain"
	"github.com/live-commerce/claim-service/internal/events"
	"github.com/live-commerce/claim-service/internal/httpx"
	"github.com/live-commerce/claim-service/internal/messaging"
	"github.com/live-commerce/claim-service/internal/service"
)

type ClaimHandler struct {
	claimService *service.ClaimService
}

func NewClaimHandler(claimService *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
	}
}

func (h *ClaimHandler) HealthCheck(c *fiber.Ctx) error {
	return httpx.SuccessResponse(c, "Claim service is healthy", map[string]interface{}{
		"service": "claim-service",
		"status":  "healthy",
	})
}

func (h *ClaimHandler) CreateClaim(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return httpx.BadRequestResponse(c, "Invalid session ID", map[string]interface{}{
			"session_id": c.Params("session_id"),
		})
	}

	var request domain.CreateClaimRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}
	request.SessionID = sessionID

	claim, err := h.claimService.CreateClaim(c.Context(), request)
	if err != nil {
		return h.respondError(c, err)
	}

	return httpx.CreatedResponse(c, "Claim admitted", mapClaim(claim))
}

func (h *ClaimHandler) UpdateClaimStatus(c *fiber.Ctx) error {
	claimID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequestResponse(c, "Invalid claim ID", map[string]interface{}{
			"claim_id": c.Params("id"),
		})
	}

	var request domain.UpdateClaimStatusRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequestResponse(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	claim, err := h.claimService.UpdateClaimStatus(c.Context(), claimID, request.Status, request.Reason, request.JoyReserve)
	if err != nil {
		return h.respondError(c, err)
	}

	return httpx.SuccessResponse(c, "Claim updated", mapClaim(claim))
}

func (h *ClaimHandler) DeleteClaim(c *fiber.Ctx) error {
	claimID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequestResponse(c, "Invalid claim ID", map[string]interface{}{
			"claim_id": c.Params("id"),
		})
	}

	if err := h.claimService.DeleteClaim(c.Context(), claimID); err != nil {
		return h.respondError(c, err)
	}

	return httpx.SuccessResponse(c, "Claim deleted", nil)
}

func (h *ClaimHandler) ListClaims(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return httpx.BadRequestResponse(c, "Invalid session ID", map[string]interface{}{
			"session_id": c.Params("session_id"),
		})
	}

	status := domain.ClaimStatus(c.Query("status"))

	claims, err := h.claimService.ListClaims(c.Context(), sessionID, status)
	if err != nil {
		return h.respondError(c, err)
	}

	return httpx.SuccessResponse(c, "Claims retrieved", map[string]interface{}{
		"claims": mapClaims(claims),
		"total":  len(claims),
	})
}

func (h *ClaimHandler) PromoteWaitlist(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("session_id"))
	if err != nil {
		return httpx.BadRequestResponse(c, "Invalid session ID", map[string]interface{}{
			"session_id": c.Params("session_id"),
		})
	}

	promoted, err := h.claimService.PromoteWaitlist(c.Context(), sessionID)
	if err != nil {
		return h.respondError(c, err)
	}

	return httpx.SuccessResponse(c, "Waitlist promotion finished", map[string]interface{}{
		"promoted": promoted,
	})
}

func (h *ClaimHandler) GetAvailableStock(c *fiber.Ctx) error {
	itemID, err := uuid.Parse(c.Params("item_id"))
	if err != nil {
		return httpx.BadRequestResponse(c, "Invalid item ID", map[string]interface{}{
			"item_id": c.Params("item_id"),
		})
	}

	variantID := uuid.Nil
	if raw := c.Query("variant_id"); raw != "" {
		variantID, err = uuid.Parse(raw)
		if err != nil {
			return httpx.BadRequestResponse(c, "Invalid variant ID", map[string]interface{}{
				"variant_id": raw,
			})
		}
	}

	available, err := h.claimService.GetAvailableStock(itemID, variantID)
	if err != nil {
		return h.respondError(c, err)
	}

	return httpx.SuccessResponse(c, "Available stock retrieved", map[string]interface{}{
		"item_id":   itemID,
		"available": available,
	})
}

func (h *ClaimHandler) ListItems(c *fiber.Ctx) error {
	return httpx.SuccessResponse(c, "Items retrieved", map[string]interface{}{
		"items": h.claimService.Items(),
	})
}

func (h *ClaimHandler) respondError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return httpx.BadRequestResponse(c, "Validation failed", map[string]interface{}{
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	}

	if domain.IsNotFound(err) {
		return httpx.NotFoundResponse(c, err.Error())
	}

	if domain.IsInvalidTransition(err) || errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInvalidAdjustment) || errors.Is(err, domain.ErrConcurrencyConflict) {
		return httpx.ConflictResponse(c, err.Error(), nil)
	}

	log.Error().Err(err).Msg("request failed")
	return httpx.InternalServerErrorResponse(c, "Request failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// StartConsuming binds the claim command queue. Claims captured by the chat
// ingest pipeline arrive here and run the same admission path as the HTTP
// endpoint.
func (h *ClaimHandler) StartConsuming(consumer *messaging.Consumer) error {
	routingKeys := []string{
		"live.chat-ingest.claim.submitted",
	}

	return consumer.ConsumeEvents(routingKeys, h.HandleClaimEvent)
}

func (h *ClaimHandler) HandleClaimEvent(event events.ClaimEvent) error {
	switch event.EventType {
	case events.ClaimSubmittedEvent:
		return h.handleClaimSubmitted(event)
	default:
		log.Debug().Str("event_type", string(event.EventType)).Msg("unhandled event type")
		return nil
	}
}

func (h *ClaimHandler) handleClaimSubmitted(event events.ClaimEvent) error {
	request, err := mapToCreateClaimRequest(event)
	if err != nil {
		return fmt.Errorf("claim.submitted payload mapping error: %v", err)
	}

	claim, err := h.claimService.CreateClaim(context.Background(), request)
	if err != nil {
		// Admission decides waitlist/reject itself; an error here is a bad
		// payload or unknown item and will not succeed on redelivery.
		if domain.IsValidation(err) {
			log.Warn().Err(err).Str("session_id", request.SessionID.String()).
				Msg("dropping invalid claim command")
			return nil
		}
		return err
	}

	log.Info().Str("claim_id", claim.ID.String()).Str("status", string(claim.Status)).
		Msg("claim admitted from chat ingest")
	return nil
}

func mapToCreateClaimRequest(event events.ClaimEvent) (domain.CreateClaimRequest, error) {
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return domain.CreateClaimRequest{}, err
	}

	var payload events.ClaimSubmittedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.CreateClaimRequest{}, err
	}

	request := domain.CreateClaimRequest{
		SessionID:     payload.SessionID,
		ItemID:        payload.ItemID,
		VariantID:     payload.VariantID,
		Quantity:      payload.Quantity,
		CustomerLabel: payload.CustomerLabel,
	}
	if request.SessionID == uuid.Nil {
		request.SessionID = event.SessionID
	}
	return request, nil
}
