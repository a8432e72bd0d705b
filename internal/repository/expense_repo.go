package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"splitkar/internal/models"
)

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *ExpenseRepository) WithTx(tx *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: tx}
}

func (r *ExpenseRepository) Create(e *models.Expense) error {
	return r.db.Create(e).Error
}

func (r *ExpenseRepository) Save(e *models.Expense) error {
	return r.db.Save(e).Error
}

// GetByUUID loads an expense with payments and shares, regardless of the
// soft-delete flag; callers decide how deleted expenses are treated.
func (r *ExpenseRepository) GetByUUID(id uuid.UUID) (*models.Expense, error) {
	var e models.Expense
	err := r.db.Preload("Payments").Preload("Shares").Preload("Category").
		Where("expense_id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepository) GetByID(id uint) (*models.Expense, error) {
	var e models.Expense
	err := r.db.Preload("Payments").Preload("Shares").First(&e, id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetUserExpenses returns all non-deleted expenses involving the user as
// payer, share holder or creator, optionally scoped to a group.
func (r *ExpenseRepository) GetUserExpenses(userID uint, groupID *uint) ([]models.Expense, error) {
	q := r.db.Preload("Payments").Preload("Shares").
		Joins("LEFT JOIN expense_payments p ON p.expense_id = expenses.id").
		Joins("LEFT JOIN expense_shares s ON s.expense_id = expenses.id").
		Where("expenses.is_deleted = ?", false).
		Where("p.payer_id = ? OR s.user_id = ? OR expenses.created_by_id = ?", userID, userID, userID)
	if groupID != nil {
		q = q.Where("expenses.group_id = ?", *groupID)
	}
	var expenses []models.Expense
	err := q.Distinct("expenses.*").Order("expenses.date DESC").Find(&expenses).Error
	return expenses, err
}

// GetExpensesBetweenUsers returns non-deleted expenses where both users hold
// shares, or one paid and the other owes.
func (r *ExpenseRepository) GetExpensesBetweenUsers(user1, user2 uint, groupID *uint) ([]models.Expense, error) {
	sub := r.db.Model(&models.Expense{}).
		Select("expenses.id").
		Joins("LEFT JOIN expense_payments p ON p.expense_id = expenses.id").
		Joins("LEFT JOIN expense_shares s ON s.expense_id = expenses.id").
		Where("expenses.is_deleted = ?", false).
		Where("(p.payer_id = ? AND s.user_id = ?) OR (p.payer_id = ? AND s.user_id = ?)",
			user1, user2, user2, user1)
	if groupID != nil {
		sub = sub.Where("expenses.group_id = ?", *groupID)
	}
	var expenses []models.Expense
	err := r.db.Preload("Payments").Preload("Shares").
		Where("id IN (?)", sub).
		Order("date DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) GetGroupExpenses(groupID uint) ([]models.Expense, error) {
	var expenses []models.Expense
	err := r.db.Preload("Payments").Preload("Shares").
		Where("group_id = ? AND is_deleted = ?", groupID, false).
		Order("date DESC").
		Find(&expenses).Error
	return expenses, err
}

// ActiveExpensesInvolving returns every non-deleted expense where the user
// is a payer or a share holder, with payments and shares loaded. This is the
// replay set for balance recomputation.
func (r *ExpenseRepository) ActiveExpensesInvolving(userID uint) ([]models.Expense, error) {
	sub := r.db.Model(&models.Expense{}).
		Select("expenses.id").
		Joins("LEFT JOIN expense_payments p ON p.expense_id = expenses.id").
		Joins("LEFT JOIN expense_shares s ON s.expense_id = expenses.id").
		Where("expenses.is_deleted = ?", false).
		Where("p.payer_id = ? OR s.user_id = ?", userID, userID)
	var expenses []models.Expense
	err := r.db.Preload("Payments").Preload("Shares").
		Where("id IN (?)", sub).
		Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) CreatePayment(p *models.ExpensePayment) error {
	return r.db.Create(p).Error
}

func (r *ExpenseRepository) CreateShare(s *models.ExpenseShare) error {
	return r.db.Create(s).Error
}

func (r *ExpenseRepository) SaveShare(s *models.ExpenseShare) error {
	return r.db.Save(s).Error
}

func (r *ExpenseRepository) DeletePayments(expenseID uint) error {
	return r.db.Where("expense_id = ?", expenseID).Delete(&models.ExpensePayment{}).Error
}

func (r *ExpenseRepository) DeleteShares(expenseID uint) error {
	return r.db.Where("expense_id = ?", expenseID).Delete(&models.ExpenseShare{}).Error
}

func (r *ExpenseRepository) GetShares(shareIDs []uint) ([]models.ExpenseShare, error) {
	var shares []models.ExpenseShare
	err := r.db.Where("id IN ?", shareIDs).Order("id").Find(&shares).Error
	return shares, err
}
