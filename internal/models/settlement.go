package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Settlement records a real-world payment from payer to payee that reduces
// their balance. Settlements are immutable once created; deleting one
// reverses both its balance effect and its per-share applications.
type Settlement struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SettlementID uuid.UUID       `gorm:"type:char(36);uniqueIndex" json:"settlement_id"`
	PayerID      uint            `gorm:"not null;index" json:"payer_id"`
	PayeeID      uint            `gorm:"not null;index" json:"payee_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency     string          `gorm:"size:3;default:'INR'" json:"currency"`
	GroupID      *uint           `gorm:"index" json:"group_id"`
	Method       string          `gorm:"size:20" json:"method"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Payer      User              `gorm:"foreignKey:PayerID" json:"-"`
	Payee      User              `gorm:"foreignKey:PayeeID" json:"-"`
	Group      *Group            `gorm:"foreignKey:GroupID" json:"-"`
	ShareLinks []SettlementShare `gorm:"foreignKey:SettlementID" json:"share_links,omitempty"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.SettlementID == uuid.Nil {
		s.SettlementID = uuid.New()
	}
	return nil
}

// SettlementShare links a settlement to an expense share it paid down,
// keeping the exact amount applied so a deleted settlement can subtract the
// same amount back out of the share's amount_paid_back.
type SettlementShare struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SettlementID  uint            `gorm:"not null;index:idx_settlement_share,unique" json:"settlement_id"`
	ShareID       uint            `gorm:"not null;index:idx_settlement_share,unique;index" json:"share_id"`
	AmountApplied decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_applied"`
	CreatedAt     time.Time       `json:"created_at"`

	Share ExpenseShare `gorm:"foreignKey:ShareID" json:"-"`
}
