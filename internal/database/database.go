package database

import (
	"splitkar/config"
	"splitkar/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.Group{},
		&models.GroupInvitation{},
		&models.ExpenseCategory{},
		&models.Expense{},
		&models.ExpensePayment{},
		&models.ExpenseShare{},
		&models.Settlement{},
		&models.SettlementShare{},
		&models.Balance{},
		&models.UserTotalBalance{},
	)
}

// SeedCategories installs the default expense categories on first boot.
// Existing rows are left untouched.
func SeedCategories(db *gorm.DB) error {
	for _, cat := range models.DefaultCategories {
		err := db.Where(models.ExpenseCategory{Name: cat.Name}).
			FirstOrCreate(&models.ExpenseCategory{
				Name:     cat.Name,
				Icon:     cat.Icon,
				Color:    cat.Color,
				IsActive: true,
			}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
