package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/live-commerce/claim-service/internal/domain"
)

func TestTransitionFor_LegalEdges(t *testing.T) {
	cases := []struct {
		from   domain.ClaimStatus
		to     domain.ClaimStatus
		effect stockEffect
	}{
		{domain.ClaimStatusAccepted, domain.ClaimStatusCancelled, effectRelease},
		{domain.ClaimStatusAccepted, domain.ClaimStatusRejected, effectRelease},
		{domain.ClaimStatusAccepted, domain.ClaimStatusWaitlist, effectRelease},
		{domain.ClaimStatusWaitlist, domain.ClaimStatusAccepted, effectReserve},
		{domain.ClaimStatusWaitlist, domain.ClaimStatusCancelled, effectNone},
		{domain.ClaimStatusWaitlist, domain.ClaimStatusRejected, effectNone},
		{domain.ClaimStatusPending, domain.ClaimStatusAccepted, effectReserve},
		{domain.ClaimStatusPending, domain.ClaimStatusWaitlist, effectNone},
		{domain.ClaimStatusPending, domain.ClaimStatusRejected, effectNone},
		{domain.ClaimStatusPending, domain.ClaimStatusCancelled, effectNone},
	}

	for _, tc := range cases {
		tr, ok := transitionFor(tc.from, tc.to)
		assert.True(t, ok, "%s -> %s should be legal", tc.from, tc.to)
		assert.Equal(t, tc.effect, tr.Effect, "%s -> %s effect", tc.from, tc.to)
	}
}

func TestTransitionFor_TerminalStatesHaveNoExits(t *testing.T) {
	targets := []domain.ClaimStatus{
		domain.ClaimStatusPending,
		domain.ClaimStatusAccepted,
		domain.ClaimStatusWaitlist,
		domain.ClaimStatusRejected,
		domain.ClaimStatusCancelled,
	}

	for _, terminal := range []domain.ClaimStatus{domain.ClaimStatusCancelled, domain.ClaimStatusRejected} {
		for _, to := range targets {
			if to == terminal {
				continue
			}
			_, ok := transitionFor(terminal, to)
			assert.False(t, ok, "%s -> %s must be illegal", terminal, to)
		}
	}
}

func TestTransitionFor_NothingEntersPending(t *testing.T) {
	for _, from := range []domain.ClaimStatus{
		domain.ClaimStatusAccepted,
		domain.ClaimStatusWaitlist,
		domain.ClaimStatusRejected,
		domain.ClaimStatusCancelled,
	} {
		_, ok := transitionFor(from, domain.ClaimStatusPending)
		assert.False(t, ok, "%s -> pending must be illegal", from)
	}
}
