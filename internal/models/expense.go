package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"splitkar/internal/domain"
)

// Expense is the core ledger fact: who paid (Payments) and who owes (Shares)
// for one shared cost. Expenses are never hard-deleted; IsDeleted excludes
// them from every ledger query and from balance replay. Field writes go
// through the expense service only, so payments and shares stay in sync.
type Expense struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ExpenseID   uuid.UUID       `gorm:"type:char(36);uniqueIndex" json:"expense_id"`
	Description string          `gorm:"size:200;not null;index" json:"description"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency    string          `gorm:"size:3;default:'INR'" json:"currency"`
	Date        time.Time       `gorm:"index" json:"date"`
	CategoryID  *uint           `json:"category_id"`
	GroupID     *uint           `gorm:"index:idx_expenses_group_deleted" json:"group_id"` // nil = friend-to-friend expense
	SplitType   string          `gorm:"size:20;not null;default:'equal'" json:"split_type"`
	CreatedByID uint            `gorm:"not null;index" json:"created_by_id"`
	IsDeleted   bool            `gorm:"default:false;index:idx_expenses_group_deleted;index" json:"is_deleted"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Category  *ExpenseCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Group     *Group           `gorm:"foreignKey:GroupID" json:"-"`
	CreatedBy User             `gorm:"foreignKey:CreatedByID" json:"-"`
	Payments  []ExpensePayment `gorm:"foreignKey:ExpenseID" json:"payments,omitempty"`
	Shares    []ExpenseShare   `gorm:"foreignKey:ExpenseID" json:"shares,omitempty"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ExpenseID == uuid.Nil {
		e.ExpenseID = uuid.New()
	}
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	return nil
}

// TotalPaid sums AmountPaid over the loaded payments.
func (e *Expense) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Payments {
		total = total.Add(p.AmountPaid)
	}
	return total
}

// TotalOwed sums AmountOwed over the loaded shares.
func (e *Expense) TotalOwed() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Shares {
		total = total.Add(s.AmountOwed)
	}
	return total
}

// IsBalanced reports whether total paid matches total owed within tolerance.
func (e *Expense) IsBalanced() bool {
	return e.TotalPaid().Sub(e.TotalOwed()).Abs().LessThan(domain.Tolerance)
}

// InvolvedUserIDs returns the de-duplicated set of payers and share holders.
func (e *Expense) InvolvedUserIDs() []uint {
	seen := make(map[uint]bool)
	var ids []uint
	for _, p := range e.Payments {
		if !seen[p.PayerID] {
			seen[p.PayerID] = true
			ids = append(ids, p.PayerID)
		}
	}
	for _, s := range e.Shares {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			ids = append(ids, s.UserID)
		}
	}
	return ids
}

// ExpensePayment records one payer's contribution to funding an expense.
// An expense can have several payers; one row per distinct payer.
type ExpensePayment struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ExpenseID  uint            `gorm:"not null;index:idx_expense_payer,unique" json:"expense_id"`
	PayerID    uint            `gorm:"not null;index:idx_expense_payer,unique;index" json:"payer_id"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_paid"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	Payer User `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
}

// ExpenseShare records one participant's owed portion of an expense, with
// settlement bookkeeping in AmountPaidBack.
type ExpenseShare struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ExpenseID      uint             `gorm:"not null;index:idx_expense_share_user,unique" json:"expense_id"`
	UserID         uint             `gorm:"not null;index:idx_expense_share_user,unique;index" json:"user_id"`
	AmountOwed     decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount_owed"`
	Percentage     *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percentage,omitempty"` // set iff split_type = percentage
	AmountPaidBack decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid_back"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// AmountRemaining is what is still owed after settlements.
func (s *ExpenseShare) AmountRemaining() decimal.Decimal {
	return s.AmountOwed.Sub(s.AmountPaidBack)
}

// IsSettled reports whether the share is fully paid back within tolerance.
func (s *ExpenseShare) IsSettled() bool {
	return s.AmountRemaining().Abs().LessThan(domain.Tolerance)
}
