package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"splitkar/internal/domain"
	"splitkar/internal/models"
	"splitkar/internal/repository"
)

// SettlementService records repayments between users and keeps the balance
// and share bookkeeping in step with them.
type SettlementService struct {
	db          *gorm.DB
	users       *repository.UserRepository
	groups      *repository.GroupRepository
	expenses    *repository.ExpenseRepository
	settlements *repository.SettlementRepository
	balances    *BalanceService
}

func NewSettlementService(db *gorm.DB, users *repository.UserRepository, groups *repository.GroupRepository,
	expenses *repository.ExpenseRepository, settlements *repository.SettlementRepository,
	balances *BalanceService) *SettlementService {
	return &SettlementService{
		db:          db,
		users:       users,
		groups:      groups,
		expenses:    expenses,
		settlements: settlements,
		balances:    balances,
	}
}

type CreateSettlementInput struct {
	PayerID  uint            `json:"payer_id"`
	PayeeID  uint            `json:"payee_id" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency"`
	GroupID  *uint           `json:"group_id"`
	Method   string          `json:"method"`
	Notes    string          `json:"notes"`
	ShareIDs []uint          `json:"share_ids"`
}

// Create records a payment from payer to payee and applies it. ShareIDs
// selects which expense shares the payment counts against; they are
// consumed in id order until the amount runs out.
func (s *SettlementService) Create(actorID uint, in CreateSettlementInput) (*models.Settlement, error) {
	if in.PayerID == 0 {
		in.PayerID = actorID
	}
	if actorID != in.PayerID && actorID != in.PayeeID {
		return nil, domain.ErrPermissionDenied
	}
	if in.PayerID == in.PayeeID {
		return nil, domain.Validationf("payer and payee must differ")
	}
	if !in.Amount.IsPositive() {
		return nil, domain.Validationf("amount must be positive")
	}
	if in.Currency == "" {
		in.Currency = domain.DefaultCurrency
	}
	if in.Method == "" {
		in.Method = domain.SettlementMethodOther
	}
	if !domain.ValidSettlementMethod(in.Method) {
		return nil, domain.Validationf("unknown settlement method %q", in.Method)
	}

	ok, missing, err := s.users.AllExist([]uint{in.PayerID, in.PayeeID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Validationf("unknown users: %v", missing)
	}
	if in.GroupID != nil {
		outsiders, err := s.groups.NonMembers(*in.GroupID, []uint{in.PayerID, in.PayeeID})
		if err != nil {
			return nil, err
		}
		if len(outsiders) > 0 {
			return nil, domain.Validationf("users %v are not members of group %d", outsiders, *in.GroupID)
		}
	}

	linkedShares, err := s.expenses.GetShares(in.ShareIDs)
	if err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		PayerID:  in.PayerID,
		PayeeID:  in.PayeeID,
		Amount:   in.Amount,
		Currency: in.Currency,
		GroupID:  in.GroupID,
		Method:   in.Method,
		Notes:    in.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.settlements.WithTx(tx).Create(settlement); err != nil {
			return err
		}
		if err := s.balances.ApplySettlement(tx, settlement, linkedShares); err != nil {
			return err
		}
		if err := s.balances.Recalculate(tx, settlement.PayerID); err != nil {
			return err
		}
		return s.balances.Recalculate(tx, settlement.PayeeID)
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// Delete removes a settlement and reverses everything it applied,
// restoring the debt and the shares' paid-back amounts.
func (s *SettlementService) Delete(actorID uint, settlementUUID uuid.UUID) error {
	settlement, err := s.GetByUUID(settlementUUID)
	if err != nil {
		return err
	}
	if actorID != settlement.PayerID && actorID != settlement.PayeeID {
		return domain.ErrPermissionDenied
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.balances.ReverseSettlement(tx, settlement); err != nil {
			return err
		}
		if err := s.settlements.WithTx(tx).Delete(settlement); err != nil {
			return err
		}
		if err := s.balances.Recalculate(tx, settlement.PayerID); err != nil {
			return err
		}
		return s.balances.Recalculate(tx, settlement.PayeeID)
	})
}

func (s *SettlementService) GetByUUID(id uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.settlements.GetByUUID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return settlement, nil
}

func (s *SettlementService) Between(userID, otherID uint) ([]models.Settlement, error) {
	return s.settlements.SettlementsBetween(userID, otherID)
}
