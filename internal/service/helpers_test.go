package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"splitkar/internal/domain"
	"splitkar/internal/models"
	"splitkar/internal/repository"
)

type fixture struct {
	db          *gorm.DB
	users       *repository.UserRepository
	friends     *repository.FriendRepository
	groups      *repository.GroupRepository
	categories  *repository.CategoryRepository
	expenses    *repository.ExpenseRepository
	settlements *repository.SettlementRepository
	balanceRepo *repository.BalanceRepository

	balances       *BalanceService
	expenseSvc     *ExpenseService
	settlementSvc  *SettlementService
	friendSvc      *FriendService
	groupSvc       *GroupService
	nextUserSerial int
}

// fixtureSerial gives each fixture its own named shared-cache in-memory
// database; a bare "file::memory:" DSN hands every pooled connection a
// separate empty database.
var fixtureSerial atomic.Int64

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:fixture%d?mode=memory&cache=shared", fixtureSerial.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
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
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		db:          db,
		users:       repository.NewUserRepository(db),
		friends:     repository.NewFriendRepository(db),
		groups:      repository.NewGroupRepository(db),
		categories:  repository.NewCategoryRepository(db),
		expenses:    repository.NewExpenseRepository(db),
		settlements: repository.NewSettlementRepository(db),
		balanceRepo: repository.NewBalanceRepository(db),
	}
	f.balances = NewBalanceService(db, f.balanceRepo, f.expenses, f.settlements)
	f.expenseSvc = NewExpenseService(db, f.users, f.friends, f.groups, f.categories,
		f.expenses, f.balances, domain.RoundingTolerate)
	f.settlementSvc = NewSettlementService(db, f.users, f.groups, f.expenses, f.settlements, f.balances)
	f.friendSvc = NewFriendService(f.users, f.friends)
	f.groupSvc = NewGroupService(f.users, f.groups)
	return f
}

func (f *fixture) user(t *testing.T) *models.User {
	t.Helper()
	f.nextUserSerial++
	name := fmt.Sprintf("user%d", f.nextUserSerial)
	u := &models.User{
		Username:    name,
		Email:       name + "@example.com",
		ProfileCode: models.GenerateProfileCode(name),
		IsActive:    true,
	}
	if err := f.users.Create(u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) befriend(t *testing.T, a, b uint) {
	t.Helper()
	if err := f.friends.CreateFriendship(a, b); err != nil {
		t.Fatalf("befriend %d-%d: %v", a, b, err)
	}
}

func (f *fixture) group(t *testing.T, creatorID uint, memberIDs ...uint) *models.Group {
	t.Helper()
	g, err := f.groupSvc.Create(creatorID, "trip", "")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	for _, id := range memberIDs {
		if id == creatorID {
			continue
		}
		if err := f.groups.AddMember(g.ID, id); err != nil {
			t.Fatalf("add member %d: %v", id, err)
		}
	}
	return g
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checkAmount(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThanOrEqual(domain.Tolerance) {
		t.Errorf("%s = %s, want %s", label, got.StringFixed(2), want.StringFixed(2))
	}
}
