package rules

import (
	"fmt"

	apperrors "github.com/dompetkecil/scoring/internal/errors"
	"github.com/dompetkecil/scoring/internal/scoring/event"
	"github.com/dompetkecil/scoring/internal/scoring/projection"
)

// BalanceChecker rejects cash withdrawals that would drop a player's
// projected balance below the configured floor.
type BalanceChecker struct{}

// Balance recomputes a player's projected balance over persisted ledger
// entries: starting_cash + sum(IN) - sum(OUT).
func (BalanceChecker) Balance(entries []projection.Entry, startingCash int64, playerID string) int64 {
	balance := startingCash
	for _, entry := range entries {
		if entry.PlayerID != playerID {
			continue
		}
		switch entry.Direction {
		case event.DirectionIn:
			balance += entry.Amount
		case event.DirectionOut:
			balance -= entry.Amount
		}
	}
	return balance
}

// Check rejects the proposed outgoing amount when the resulting balance
// would breach the floor. The event under validation has not yet produced
// its own ledger entry, so entries reflect history only.
func (c BalanceChecker) Check(entries []projection.Entry, startingCash, cashMin int64, playerID string, outgoing int64) error {
	balance := c.Balance(entries, startingCash, playerID)
	if balance-outgoing < cashMin {
		return apperrors.NewRule(apperrors.CodeDomainRule, "BALANCE_FLOOR_BREACH",
			fmt.Sprintf("withdrawal of %d would drop balance %d below floor %d", outgoing, balance, cashMin))
	}
	return nil
}
