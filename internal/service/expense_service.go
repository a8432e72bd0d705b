package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"splitkar/internal/calculator"
	"splitkar/internal/domain"
	"splitkar/internal/models"
	"splitkar/internal/repository"
)

// ExpenseService orchestrates every write to the expense ledger. Each
// operation validates up front, then runs the persistence and the balance
// updates inside a single transaction so the ledger and the derived
// balances never diverge.
type ExpenseService struct {
	db         *gorm.DB
	users      *repository.UserRepository
	friends    *repository.FriendRepository
	groups     *repository.GroupRepository
	categories *repository.CategoryRepository
	expenses   *repository.ExpenseRepository
	balances   *BalanceService
	rounding   string
}

func NewExpenseService(db *gorm.DB, users *repository.UserRepository, friends *repository.FriendRepository,
	groups *repository.GroupRepository, categories *repository.CategoryRepository,
	expenses *repository.ExpenseRepository, balances *BalanceService, roundingPolicy string) *ExpenseService {
	return &ExpenseService{
		db:         db,
		users:      users,
		friends:    friends,
		groups:     groups,
		categories: categories,
		expenses:   expenses,
		balances:   balances,
		rounding:   roundingPolicy,
	}
}

type PaymentInput struct {
	PayerID uint            `json:"payer_id" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

type CreateExpenseInput struct {
	Description    string                   `json:"description" binding:"required"`
	TotalAmount    decimal.Decimal          `json:"total_amount" binding:"required"`
	Currency       string                   `json:"currency"`
	Date           *time.Time               `json:"date"`
	CategoryID     *uint                    `json:"category_id"`
	GroupID        *uint                    `json:"group_id"`
	SplitType      string                   `json:"split_type"`
	ParticipantIDs []uint                   `json:"participant_ids" binding:"required"`
	Percentages    map[uint]decimal.Decimal `json:"percentages"`
	Payments       []PaymentInput           `json:"payments" binding:"required"`
	Notes          string                   `json:"notes"`
}

// Create validates and records a new expense, splits it, and applies the
// resulting liabilities to the balances. Friend-to-friend expenses (no
// group) require every other involved user to be a friend of the actor.
func (s *ExpenseService) Create(actorID uint, in CreateExpenseInput) (*models.Expense, error) {
	if in.Currency == "" {
		in.Currency = domain.DefaultCurrency
	}
	if in.SplitType == "" {
		in.SplitType = domain.SplitTypeEqual
	}
	if err := s.validatePayments(in.TotalAmount, in.Payments); err != nil {
		return nil, err
	}
	// Single payer must hold a share of the expense; with several payers a
	// pure funder who owes nothing is allowed.
	if len(in.Payments) == 1 && !containsID(in.ParticipantIDs, in.Payments[0].PayerID) {
		return nil, domain.Validationf("payer must be one of the participants")
	}

	involved := unionIDs(in.ParticipantIDs, paymentPayerIDs(in.Payments))
	if err := s.validateUsersAndContext(actorID, involved, in.GroupID); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		ok, err := s.categories.Exists(*in.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Validationf("unknown expense category %d", *in.CategoryID)
		}
	}

	shares, err := calculator.ComputeShares(in.TotalAmount, in.SplitType, in.ParticipantIDs, in.Percentages, s.rounding)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		Description: in.Description,
		TotalAmount: in.TotalAmount,
		Currency:    in.Currency,
		CategoryID:  in.CategoryID,
		GroupID:     in.GroupID,
		SplitType:   in.SplitType,
		CreatedByID: actorID,
		Notes:       in.Notes,
	}
	if in.Date != nil {
		expense.Date = *in.Date
	}
	for _, p := range in.Payments {
		expense.Payments = append(expense.Payments, models.ExpensePayment{
			PayerID:    p.PayerID,
			AmountPaid: p.Amount,
		})
	}
	for _, id := range in.ParticipantIDs {
		share := shares[id]
		expense.Shares = append(expense.Shares, models.ExpenseShare{
			UserID:     id,
			AmountOwed: share.AmountOwed,
			Percentage: share.Percentage,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.expenses.WithTx(tx).Create(expense); err != nil {
			return err
		}
		if err := s.balances.ApplyExpense(tx, expense); err != nil {
			return err
		}
		for _, id := range expense.InvolvedUserIDs() {
			if err := s.balances.Recalculate(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.warnIfUnbalanced(expense)
	return expense, nil
}

type EditExpenseInput struct {
	Description    *string                  `json:"description"`
	TotalAmount    *decimal.Decimal         `json:"total_amount"`
	Date           *time.Time               `json:"date"`
	CategoryID     *uint                    `json:"category_id"`
	Notes          *string                  `json:"notes"`
	PayerID        *uint                    `json:"payer_id"`
	ParticipantIDs []uint                   `json:"participant_ids"`
	Percentages    map[uint]decimal.Decimal `json:"percentages"`
}

func (in EditExpenseInput) empty() bool {
	return in.Description == nil && in.TotalAmount == nil && in.Date == nil &&
		in.CategoryID == nil && in.Notes == nil && in.PayerID == nil &&
		in.ParticipantIDs == nil
}

// Edit applies a partial update. The old liabilities are cleared before the
// rewrite and the new ones applied after, so balances track the edit exactly.
func (s *ExpenseService) Edit(actorID uint, expenseUUID uuid.UUID, in EditExpenseInput) (*models.Expense, error) {
	if in.empty() {
		return nil, domain.Validationf("no fields to update")
	}
	expense, err := s.loadActive(expenseUUID)
	if err != nil {
		return nil, err
	}
	if err := s.canModify(actorID, expense); err != nil {
		return nil, err
	}

	if in.TotalAmount != nil && !in.TotalAmount.IsPositive() {
		return nil, domain.Validationf("total_amount must be positive")
	}
	if in.PayerID != nil && len(expense.Payments) != 1 {
		return nil, domain.Validationf("cannot change payer on a multi-payer expense")
	}
	if in.CategoryID != nil {
		ok, err := s.categories.Exists(*in.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Validationf("unknown expense category %d", *in.CategoryID)
		}
	}

	oldInvolved := expense.InvolvedUserIDs()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.expenses.WithTx(tx)

		if err := s.balances.ClearExpense(tx, expense); err != nil {
			return err
		}

		if in.Description != nil {
			expense.Description = *in.Description
		}
		if in.Date != nil {
			expense.Date = *in.Date
		}
		if in.CategoryID != nil {
			expense.CategoryID = in.CategoryID
		}
		if in.Notes != nil {
			expense.Notes = *in.Notes
		}
		if in.TotalAmount != nil {
			expense.TotalAmount = *in.TotalAmount
		}

		if in.ParticipantIDs != nil {
			pcts := in.Percentages
			if expense.SplitType == domain.SplitTypePercentage && pcts == nil {
				return domain.Validationf("percentages are required when changing participants of a percentage split")
			}
			involved := unionIDs(in.ParticipantIDs, nil)
			if err := s.validateUsersAndContext(actorID, involved, expense.GroupID); err != nil {
				return err
			}
			shares, err := calculator.ComputeShares(expense.TotalAmount, expense.SplitType, in.ParticipantIDs, pcts, s.rounding)
			if err != nil {
				return err
			}
			if err := repo.DeleteShares(expense.ID); err != nil {
				return err
			}
			expense.Shares = expense.Shares[:0]
			for _, id := range in.ParticipantIDs {
				share := shares[id]
				row := models.ExpenseShare{
					ExpenseID:  expense.ID,
					UserID:     id,
					AmountOwed: share.AmountOwed,
					Percentage: share.Percentage,
				}
				if err := repo.CreateShare(&row); err != nil {
					return err
				}
				expense.Shares = append(expense.Shares, row)
			}
		} else if in.TotalAmount != nil {
			if err := s.rescaleShares(repo, expense); err != nil {
				return err
			}
		}

		if in.PayerID != nil || in.TotalAmount != nil {
			payerID := expense.Payments[0].PayerID
			if in.PayerID != nil {
				payerID = *in.PayerID
				if err := s.validateUsersAndContext(actorID, []uint{payerID}, expense.GroupID); err != nil {
					return err
				}
				if len(expense.Shares) > 0 && !expenseHasShare(expense, payerID) {
					return domain.Validationf("payer must be one of the participants")
				}
			}
			if len(expense.Payments) == 1 {
				if err := repo.DeletePayments(expense.ID); err != nil {
					return err
				}
				payment := models.ExpensePayment{
					ExpenseID:  expense.ID,
					PayerID:    payerID,
					AmountPaid: expense.TotalAmount,
				}
				if err := repo.CreatePayment(&payment); err != nil {
					return err
				}
				expense.Payments = []models.ExpensePayment{payment}
			} else if in.TotalAmount != nil {
				return domain.Validationf("cannot change the total of a multi-payer expense; edit its payments instead")
			}
		}

		if in.PayerID != nil {
			// Past settlements no longer line up with the new payer;
			// shares restart unsettled except the payer's own.
			for i := range expense.Shares {
				share := &expense.Shares[i]
				share.AmountPaidBack = decimal.Zero
				if share.UserID == *in.PayerID {
					share.AmountPaidBack = share.AmountOwed
				}
				if err := repo.SaveShare(share); err != nil {
					return err
				}
			}
		}

		if err := repo.Save(expense); err != nil {
			return err
		}
		if err := s.balances.ApplyExpense(tx, expense); err != nil {
			return err
		}
		for _, id := range unionIDs(oldInvolved, expense.InvolvedUserIDs()) {
			if err := s.balances.Recalculate(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.warnIfUnbalanced(expense)
	return expense, nil
}

// Delete soft-deletes an expense and backs its liabilities out of the
// balances. Only the expense creator or the group creator may delete.
func (s *ExpenseService) Delete(actorID uint, expenseUUID uuid.UUID) error {
	expense, err := s.loadActive(expenseUUID)
	if err != nil {
		return err
	}
	if err := s.canModify(actorID, expense); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.balances.ClearExpense(tx, expense); err != nil {
			return err
		}
		expense.IsDeleted = true
		if err := s.expenses.WithTx(tx).Save(expense); err != nil {
			return err
		}
		for _, id := range expense.InvolvedUserIDs() {
			if err := s.balances.Recalculate(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ExpenseService) GetByUUID(expenseUUID uuid.UUID) (*models.Expense, error) {
	return s.loadActive(expenseUUID)
}

// loadActive fetches an expense by public id, treating missing and
// soft-deleted rows the same.
func (s *ExpenseService) loadActive(expenseUUID uuid.UUID) (*models.Expense, error) {
	expense, err := s.expenses.GetByUUID(expenseUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if expense.IsDeleted {
		return nil, domain.ErrNotFound
	}
	return expense, nil
}

func (s *ExpenseService) UserExpenses(userID uint, groupID *uint) ([]models.Expense, error) {
	return s.expenses.GetUserExpenses(userID, groupID)
}

func (s *ExpenseService) ExpensesBetween(userID, otherID uint, groupID *uint) ([]models.Expense, error) {
	return s.expenses.GetExpensesBetweenUsers(userID, otherID, groupID)
}

func (s *ExpenseService) GroupExpenses(actorID, groupID uint) ([]models.Expense, error) {
	member, err := s.groups.IsMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrPermissionDenied
	}
	return s.expenses.GetGroupExpenses(groupID)
}

// rescaleShares re-derives amounts after a total change without touching
// who participates: equal splits are re-divided, percentage splits reuse
// the stored percentage of each share.
func (s *ExpenseService) rescaleShares(repo *repository.ExpenseRepository, expense *models.Expense) error {
	switch expense.SplitType {
	case domain.SplitTypePercentage:
		for i := range expense.Shares {
			share := &expense.Shares[i]
			if share.Percentage == nil {
				return fmt.Errorf("share %d of expense %s has no stored percentage", share.ID, expense.ExpenseID)
			}
			share.AmountOwed = expense.TotalAmount.Mul(*share.Percentage).Div(domain.Hundred).RoundBank(2)
			if err := repo.SaveShare(share); err != nil {
				return err
			}
		}
		return nil
	default:
		ids := make([]uint, 0, len(expense.Shares))
		for _, share := range expense.Shares {
			ids = append(ids, share.UserID)
		}
		shares, err := calculator.ComputeShares(expense.TotalAmount, domain.SplitTypeEqual, ids, nil, s.rounding)
		if err != nil {
			return err
		}
		for i := range expense.Shares {
			share := &expense.Shares[i]
			share.AmountOwed = shares[share.UserID].AmountOwed
			if err := repo.SaveShare(share); err != nil {
				return err
			}
		}
		return nil
	}
}

func (s *ExpenseService) validatePayments(total decimal.Decimal, payments []PaymentInput) error {
	if !total.IsPositive() {
		return domain.Validationf("total_amount must be positive")
	}
	if len(payments) == 0 {
		return domain.Validationf("at least one payment is required")
	}
	seen := make(map[uint]bool, len(payments))
	sum := decimal.Zero
	for _, p := range payments {
		if !p.Amount.IsPositive() {
			return domain.Validationf("payment amounts must be positive")
		}
		if seen[p.PayerID] {
			return domain.Validationf("duplicate payer %d", p.PayerID)
		}
		seen[p.PayerID] = true
		sum = sum.Add(p.Amount)
	}
	if sum.Sub(total).Abs().GreaterThanOrEqual(domain.Tolerance) {
		return domain.Validationf("payments sum to %s, expected %s", sum.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

// validateUsersAndContext checks that all involved users exist and belong
// to the expense context: group members for a group expense, friends of the
// actor otherwise.
func (s *ExpenseService) validateUsersAndContext(actorID uint, involved []uint, groupID *uint) error {
	ok, missing, err := s.users.AllExist(involved)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Validationf("unknown users: %v", missing)
	}

	if groupID != nil {
		group, err := s.groups.GetByID(*groupID)
		if err != nil {
			return err
		}
		if !group.IsActive {
			return domain.Validationf("group %d is not active", *groupID)
		}
		outsiders, err := s.groups.NonMembers(*groupID, append(involved, actorID))
		if err != nil {
			return err
		}
		if len(outsiders) > 0 {
			return domain.Validationf("users %v are not members of group %d", outsiders, *groupID)
		}
		return nil
	}

	for _, id := range involved {
		if id == actorID {
			continue
		}
		friends, err := s.friends.AreFriends(actorID, id)
		if err != nil {
			return err
		}
		if !friends {
			return domain.Validationf("user %d is not a friend", id)
		}
	}
	return nil
}

func (s *ExpenseService) canModify(actorID uint, expense *models.Expense) error {
	if expense.CreatedByID == actorID {
		return nil
	}
	if expense.GroupID != nil {
		group, err := s.groups.GetByID(*expense.GroupID)
		if err != nil {
			return err
		}
		if group.CreatedByID == actorID {
			return nil
		}
	}
	return domain.ErrPermissionDenied
}

// warnIfUnbalanced logs when the persisted rows drift from the total
// beyond tolerance. The write has already committed; this never fails it.
func (s *ExpenseService) warnIfUnbalanced(expense *models.Expense) {
	if paid := expense.TotalPaid(); paid.Sub(expense.TotalAmount).Abs().GreaterThanOrEqual(domain.Tolerance) {
		slog.Warn("expense payments drift from total",
			"expense_id", expense.ExpenseID, "total", expense.TotalAmount, "paid", paid)
	}
	if owed := expense.TotalOwed(); owed.Sub(expense.TotalAmount).Abs().GreaterThanOrEqual(domain.Tolerance) {
		slog.Warn("expense shares drift from total",
			"expense_id", expense.ExpenseID, "total", expense.TotalAmount, "owed", owed)
	}
}

func paymentPayerIDs(payments []PaymentInput) []uint {
	ids := make([]uint, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.PayerID)
	}
	return ids
}

func unionIDs(a, b []uint) []uint {
	seen := make(map[uint]bool, len(a)+len(b))
	var out []uint
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func expenseHasShare(e *models.Expense, userID uint) bool {
	for _, s := range e.Shares {
		if s.UserID == userID {
			return true
		}
	}
	return false
}
