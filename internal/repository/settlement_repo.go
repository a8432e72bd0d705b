package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"splitkar/internal/models"
)

type SettlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) WithTx(tx *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: tx}
}

func (r *SettlementRepository) Create(s *models.Settlement) error {
	return r.db.Create(s).Error
}

func (r *SettlementRepository) GetByUUID(id uuid.UUID) (*models.Settlement, error) {
	var s models.Settlement
	err := r.db.Preload("ShareLinks").Where("settlement_id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettlementRepository) CreateShareLink(link *models.SettlementShare) error {
	return r.db.Create(link).Error
}

// SettlementsInvolving returns all settlements where the user is payer or
// payee, for balance replay.
func (r *SettlementRepository) SettlementsInvolving(userID uint) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := r.db.Where("payer_id = ? OR payee_id = ?", userID, userID).Find(&settlements).Error
	return settlements, err
}

func (r *SettlementRepository) SettlementsBetween(user1, user2 uint) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := r.db.Where("(payer_id = ? AND payee_id = ?) OR (payer_id = ? AND payee_id = ?)",
		user1, user2, user2, user1).
		Order("created_at DESC").
		Find(&settlements).Error
	return settlements, err
}

// Delete removes the settlement and its share links. The balance and share
// reversal happens in the service layer before this is called.
func (r *SettlementRepository) Delete(s *models.Settlement) error {
	if err := r.db.Where("settlement_id = ?", s.ID).Delete(&models.SettlementShare{}).Error; err != nil {
		return err
	}
	return r.db.Delete(s).Error
}
