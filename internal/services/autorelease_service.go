package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vivahahub/internal/domain"
	"vivahahub/internal/repositories"
	"vivahahub/internal/utils"
)

// AutoReleaseService sweeps accounts whose auto-release deadline has passed
// and releases the remaining balance to the vendor as the system actor. The
// sweep is safe to repeat and safe to run next to API traffic: every release
// goes through the guarded accumulator update, so an overlapping manual
// release just shrinks what the sweep finds.
type AutoReleaseService struct {
	Escrow EscrowService
	Now    func() time.Time
}

// NewAutoReleaseService wires the sweep onto the shared DB handle.
func NewAutoReleaseService(db *sql.DB) AutoReleaseService {
	return AutoReleaseService{
		Escrow: EscrowService{
			EscrowRepo:       repositories.EscrowRepository{DB: db},
			TxRepo:           repositories.EscrowTransactionRepository{DB: db},
			BookingRepo:      repositories.BookingRepository{DB: db},
			NotificationRepo: repositories.NotificationRepository{DB: db},
			RequestID:        "auto-release",
		},
	}
}

func (s AutoReleaseService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run loops until ctx is done. One failed sweep only logs; the next tick
// retries.
func (s AutoReleaseService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	utils.LogEvent("auto-release", "escrow", "sweep", "worker started interval="+interval.String())
	for {
		select {
		case <-ctx.Done():
			utils.LogEvent("auto-release", "escrow", "sweep", "worker stopped")
			return
		case <-ticker.C:
			if n, err := s.Sweep(); err != nil {
				utils.LogEvent("auto-release", "escrow", "sweep", "sweep failed: "+err.Error())
			} else if n > 0 {
				utils.LogEvent("auto-release", "escrow", "sweep", fmt.Sprintf("released %d accounts", n))
			}
		}
	}
}

// Sweep releases the remaining available balance of every overdue account and
// returns how many accounts it settled. Accounts that a concurrent release
// already drained are skipped, not errors.
func (s AutoReleaseService) Sweep() (int, error) {
	overdue, err := s.Escrow.EscrowRepo.ListAutoReleasable(s.now())
	if err != nil {
		return 0, err
	}

	actor := domain.RequestContext{UserID: 0, Role: domain.RoleAdmin}
	released := 0
	for _, account := range overdue {
		remaining := account.AvailableBalance()
		if remaining <= 0 {
			continue
		}
		_, err := s.Escrow.Release(actor, ReleaseInput{
			EscrowID: account.ID,
			Amount:   remaining,
			Notes:    "auto-release after deadline " + utils.FormatDate(account.AutoReleaseDate),
		})
		if err != nil {
			if domain.IsBusinessRule(err) || domain.IsNotFound(err) {
				// Raced with a manual release or refund; nothing left to do.
				continue
			}
			return released, err
		}
		released++
	}
	return released, nil
}
