package services

import (
	"vivahahub/internal/domain"
	"vivahahub/internal/domain/models"
)

// Escrow actions checked through a single policy instead of per-handler role
// lookups.
const (
	ActionView    = "view"
	ActionRelease = "release"
	ActionRefund  = "refund"
	ActionDispute = "dispute"
)

// Authorize decides whether the actor may perform action on the account.
// Payer = account.UserID (customer), payee = account.VendorID (vendor).
//   - view/statement: either participant, or admin
//   - release: payer or admin; the vendor may not self-release
//   - refund: payer, payee, or admin (a vendor can give back their own pending funds)
//   - dispute: payer, payee, or admin
func Authorize(actor domain.RequestContext, account models.EscrowAccount, action string) error {
	if actor.IsAdmin() {
		// Covers both operator sessions and the internal auto-release actor.
		return nil
	}
	if actor.UserID <= 0 {
		return domain.UnauthorizedError{}
	}

	uid := int64(actor.UserID)
	switch action {
	case ActionView:
		if account.IsParticipant(uid) {
			return nil
		}
	case ActionRelease:
		if uid == account.UserID {
			return nil
		}
	case ActionRefund, ActionDispute:
		if account.IsParticipant(uid) {
			return nil
		}
	}
	return domain.ForbiddenError{Resource: "escrow account", Action: action}
}
