package repository

import (
	"splitkar/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) ListActive() ([]models.ExpenseCategory, error) {
	var cats []models.ExpenseCategory
	err := r.db.Where("is_active = ?", true).Order("name").Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) Exists(id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.ExpenseCategory{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
