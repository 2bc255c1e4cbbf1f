package service

import (
	"github.com/live-commerce/claim-service/internal/domain"
)

// stockEffect is the ledger side-effect of a status transition.
type stockEffect int

const (
	effectNone    stockEffect = iota
	effectRelease             // AdjustReservation(-quantity), claim stops holding stock
	effectReserve             // AdjustReservation(+quantity), re-checked and may fail
)

type transition struct {
	From   domain.ClaimStatus
	To     domain.ClaimStatus
	Effect stockEffect
}

// transitionTable is the complete set of legal status edges. Cancelled and
// rejected are terminal: no edge leaves them. Accepted is the only status
// holding a live reservation, so every edge out of it releases and the two
// edges into it reserve.
var transitionTable = []transition{
	{From: domain.ClaimStatusAccepted, To: domain.ClaimStatusCancelled, Effect: effectRelease},
	{From: domain.ClaimStatusAccepted, To: domain.ClaimStatusRejected, Effect: effectRelease},
	{From: domain.ClaimStatusAccepted, To: domain.ClaimStatusWaitlist, Effect: effectRelease},

	{From: domain.ClaimStatusWaitlist, To: domain.ClaimStatusAccepted, Effect: effectReserve},
	{From: domain.ClaimStatusWaitlist, To: domain.ClaimStatusCancelled, Effect: effectNone},
	{From: domain.ClaimStatusWaitlist, To: domain.ClaimStatusRejected, Effect: effectNone},

	// Pending claims (imports, never produced by admission) hold nothing, so
	// accepting one goes through the same re-check as waitlist promotion.
	{From: domain.ClaimStatusPending, To: domain.ClaimStatusAccepted, Effect: effectReserve},
	{From: domain.ClaimStatusPending, To: domain.ClaimStatusWaitlist, Effect: effectNone},
	{From: domain.ClaimStatusPending, To: domain.ClaimStatusRejected, Effect: effectNone},
	{From: domain.ClaimStatusPending, To: domain.ClaimStatusCancelled, Effect: effectNone},
}

// transitionFor returns the table entry for a from/to pair. Same-to-same is
// handled by the caller as a no-op before consulting the table.
func transitionFor(from, to domain.ClaimStatus) (transition, bool) {
	for _, tr := range transitionTable {
		if tr.From == from && tr.To == to {
			return tr, true
		}
	}
	return transition{}, false
}
