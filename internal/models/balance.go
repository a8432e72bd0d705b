package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Balance caches the signed debt between two users in one context (a group,
// or nil for friend-to-friend). Always stored with User1ID < User2ID;
// a positive BalanceAmount means user1 owes user2. Derived state only —
// recomputable from the Expense/Payment/Share/Settlement history.
type Balance struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	User1ID       uint            `gorm:"not null;index:idx_balance_pair_group,unique" json:"user1_id"`
	User2ID       uint            `gorm:"not null;index:idx_balance_pair_group,unique;index" json:"user2_id"`
	BalanceAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance_amount"`
	Currency      string          `gorm:"size:3;default:'INR'" json:"currency"`
	GroupID       *uint           `gorm:"index:idx_balance_pair_group,unique" json:"group_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// BalanceForUser returns the balance from the given user's perspective:
// positive means the user is owed money, negative means the user owes.
func (b *Balance) BalanceForUser(userID uint) (decimal.Decimal, error) {
	switch userID {
	case b.User1ID:
		return b.BalanceAmount.Neg(), nil
	case b.User2ID:
		return b.BalanceAmount, nil
	}
	return decimal.Zero, fmt.Errorf("user %d not part of balance %d/%d", userID, b.User1ID, b.User2ID)
}

// UserTotalBalance aggregates a pair's Balance rows across every context
// (all groups plus the friend context). Same canonical ordering and sign
// convention as Balance: positive means user1 owes user2.
type UserTotalBalance struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	User1ID      uint            `gorm:"not null;index:idx_total_balance_pair,unique" json:"user1_id"`
	User2ID      uint            `gorm:"not null;index:idx_total_balance_pair,unique;index" json:"user2_id"`
	TotalBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_balance"`
	LastUpdated  time.Time       `gorm:"autoUpdateTime" json:"last_updated"`
}

// TotalForUser mirrors Balance.BalanceForUser for the aggregate row.
func (t *UserTotalBalance) TotalForUser(userID uint) (decimal.Decimal, error) {
	switch userID {
	case t.User1ID:
		return t.TotalBalance.Neg(), nil
	case t.User2ID:
		return t.TotalBalance, nil
	}
	return decimal.Zero, fmt.Errorf("user %d not part of total balance %d/%d", userID, t.User1ID, t.User2ID)
}
