package service

import (
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"splitkar/internal/domain"
	"splitkar/internal/models"
	"splitkar/internal/repository"
)

// BalanceService keeps the derived Balance and UserTotalBalance views
// consistent with the ledger. Incremental application (ApplyExpense,
// ApplySettlement and their inverses) is the fast path; Recalculate replays
// a user's full ledger history and is the ground truth the fast path must
// agree with.
type BalanceService struct {
	db          *gorm.DB
	balances    *repository.BalanceRepository
	expenses    *repository.ExpenseRepository
	settlements *repository.SettlementRepository

	// Recalculation zeroes rows and replays history, which does not
	// interleave safely with itself, so it is serialized per user.
	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex
}

func NewBalanceService(db *gorm.DB, balances *repository.BalanceRepository, expenses *repository.ExpenseRepository, settlements *repository.SettlementRepository) *BalanceService {
	return &BalanceService{
		db:          db,
		balances:    balances,
		expenses:    expenses,
		settlements: settlements,
		userLocks:   make(map[uint]*sync.Mutex),
	}
}

func (s *BalanceService) lockFor(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// pairDelta is one pairwise liability produced by an expense: userA owes
// userB the amount (always expressed from userA's side).
type pairDelta struct {
	userA, userB uint
	amount       decimal.Decimal
}

// expenseDeltas apportions each share holder's net owed amount across the
// expense's payers in proportion to what each payer funded. A share holder
// who also paid only owes (or is owed) the difference; pairs within
// tolerance of settled are skipped, and nobody owes themselves.
func expenseDeltas(e *models.Expense) []pairDelta {
	if e.TotalAmount.IsZero() {
		return nil
	}
	paidBy := make(map[uint]decimal.Decimal, len(e.Payments))
	for _, p := range e.Payments {
		paidBy[p.PayerID] = paidBy[p.PayerID].Add(p.AmountPaid)
	}

	var deltas []pairDelta
	for _, share := range e.Shares {
		net := share.AmountOwed.Sub(paidBy[share.UserID])
		if net.Abs().LessThan(domain.Tolerance) {
			continue
		}
		for _, payment := range e.Payments {
			if payment.PayerID == share.UserID {
				continue
			}
			ratio := payment.AmountPaid.Div(e.TotalAmount)
			deltas = append(deltas, pairDelta{
				userA:  share.UserID,
				userB:  payment.PayerID,
				amount: net.Mul(ratio),
			})
		}
	}
	return deltas
}

// ApplyExpense adds the expense's pairwise liabilities to the balances of
// its group context (nil group = friend context).
func (s *BalanceService) ApplyExpense(tx *gorm.DB, e *models.Expense) error {
	repo := s.balances.WithTx(tx)
	for _, d := range expenseDeltas(e) {
		if err := repo.AddDelta(d.userA, d.userB, d.amount, e.GroupID, e.Currency); err != nil {
			return err
		}
	}
	return nil
}

// ClearExpense subtracts the expense's pairwise liabilities, exactly
// negating a prior ApplyExpense. Used before re-applying an edited expense.
func (s *BalanceService) ClearExpense(tx *gorm.DB, e *models.Expense) error {
	repo := s.balances.WithTx(tx)
	for _, d := range expenseDeltas(e) {
		if err := repo.AddDelta(d.userA, d.userB, d.amount.Neg(), e.GroupID, e.Currency); err != nil {
			return err
		}
	}
	return nil
}

// ApplySettlement reduces the payer→payee debt and consumes the linked
// shares in id order, recording how much was applied to each so deletion
// can reverse the share bookkeeping deterministically.
func (s *BalanceService) ApplySettlement(tx *gorm.DB, settlement *models.Settlement, linkedShares []models.ExpenseShare) error {
	repo := s.balances.WithTx(tx)
	if err := repo.AddDelta(settlement.PayerID, settlement.PayeeID, settlement.Amount.Neg(), settlement.GroupID, settlement.Currency); err != nil {
		return err
	}

	remaining := settlement.Amount
	for i := range linkedShares {
		if !remaining.IsPositive() {
			break
		}
		share := &linkedShares[i]
		applied := decimal.Min(remaining, share.AmountRemaining())
		if !applied.IsPositive() {
			continue
		}
		err := tx.Model(&models.ExpenseShare{}).
			Where("id = ?", share.ID).
			Update("amount_paid_back", gorm.Expr("amount_paid_back + ?", applied)).Error
		if err != nil {
			return err
		}
		link := models.SettlementShare{SettlementID: settlement.ID, ShareID: share.ID, AmountApplied: applied}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		remaining = remaining.Sub(applied)
	}
	return nil
}

// ReverseSettlement restores the payer→payee debt and backs the applied
// amounts out of the linked shares.
func (s *BalanceService) ReverseSettlement(tx *gorm.DB, settlement *models.Settlement) error {
	repo := s.balances.WithTx(tx)
	if err := repo.AddDelta(settlement.PayerID, settlement.PayeeID, settlement.Amount, settlement.GroupID, settlement.Currency); err != nil {
		return err
	}
	for _, link := range settlement.ShareLinks {
		err := tx.Model(&models.ExpenseShare{}).
			Where("id = ?", link.ShareID).
			Update("amount_paid_back", gorm.Expr("amount_paid_back - ?", link.AmountApplied)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// Recalculate rebuilds every balance touching the user from the ledger:
// zero all rows, replay each non-deleted expense the user pays or holds a
// share of, then re-apply each settlement the user is part of. Idempotent,
// and serialized per user because zero-then-replay does not interleave.
func (s *BalanceService) Recalculate(tx *gorm.DB, userID uint) error {
	l := s.lockFor(userID)
	l.Lock()
	defer l.Unlock()

	balanceRepo := s.balances.WithTx(tx)
	expenseRepo := s.expenses.WithTx(tx)
	settlementRepo := s.settlements.WithTx(tx)

	touching, err := balanceRepo.BalancesTouching(userID)
	if err != nil {
		return err
	}
	for i := range touching {
		if err := balanceRepo.SetZero(&touching[i]); err != nil {
			return err
		}
	}

	expenses, err := expenseRepo.ActiveExpensesInvolving(userID)
	if err != nil {
		return err
	}
	for i := range expenses {
		e := &expenses[i]
		for _, d := range expenseDeltas(e) {
			if d.userA != userID && d.userB != userID {
				continue // only rebuild pairs touching this user
			}
			if err := balanceRepo.AddDelta(d.userA, d.userB, d.amount, e.GroupID, e.Currency); err != nil {
				return err
			}
		}
	}

	settlements, err := settlementRepo.SettlementsInvolving(userID)
	if err != nil {
		return err
	}
	for i := range settlements {
		st := &settlements[i]
		if err := balanceRepo.AddDelta(st.PayerID, st.PayeeID, st.Amount.Neg(), st.GroupID, st.Currency); err != nil {
			return err
		}
	}

	slog.Debug("balance recalculation complete", "user_id", userID,
		"expenses", len(expenses), "settlements", len(settlements))
	return nil
}

// RecalculateUser runs a full rebuild inside its own transaction.
func (s *BalanceService) RecalculateUser(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.Recalculate(tx, userID)
	})
}

// GetBalance returns the canonical pairwise balance for one context
// (positive = lower-id user owes higher-id user).
func (s *BalanceService) GetBalance(userA, userB uint, groupID *uint) (decimal.Decimal, error) {
	return s.balances.Get(userA, userB, groupID)
}

// GetTotalBalance returns the canonical aggregate balance across all
// contexts for a pair.
func (s *BalanceService) GetTotalBalance(userA, userB uint) (decimal.Decimal, error) {
	return s.balances.GetTotal(userA, userB)
}

// UserBalances lists the user's unsettled balances, optionally scoped to a
// group.
func (s *BalanceService) UserBalances(userID uint, groupID *uint) ([]models.Balance, error) {
	return s.balances.NonZeroBalancesFor(userID, groupID)
}
