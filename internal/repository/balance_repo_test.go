package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"splitkar/internal/models"
)

func newBalanceTestRepo(t *testing.T) *BalanceRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Balance{}, &models.UserTotalBalance{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewBalanceRepository(db)
}

func amount(t *testing.T, repo *BalanceRepository, a, b uint, groupID *uint) string {
	t.Helper()
	v, err := repo.Get(a, b, groupID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	return v.StringFixed(2)
}

func TestAddDeltaCanonicalizesPair(t *testing.T) {
	repo := newBalanceTestRepo(t)

	// Same pair addressed both ways must hit the same row with flipped sign.
	if err := repo.AddDelta(1, 2, decimal.RequireFromString("10.00"), nil, "INR"); err != nil {
		t.Fatalf("add delta: %v", err)
	}
	if err := repo.AddDelta(2, 1, decimal.RequireFromString("4.00"), nil, "INR"); err != nil {
		t.Fatalf("add delta reversed: %v", err)
	}

	if got := amount(t, repo, 1, 2, nil); got != "6.00" {
		t.Errorf("balance = %s, want 6.00", got)
	}
	// Order of the query arguments must not matter.
	if got := amount(t, repo, 2, 1, nil); got != "6.00" {
		t.Errorf("reversed lookup = %s, want 6.00", got)
	}

	var count int64
	repo.db.Model(&models.Balance{}).Count(&count)
	if count != 1 {
		t.Errorf("balance rows = %d, want 1", count)
	}
}

func TestGetMissingPairIsZero(t *testing.T) {
	repo := newBalanceTestRepo(t)
	if got := amount(t, repo, 5, 9, nil); got != "0.00" {
		t.Errorf("missing pair = %s, want 0.00", got)
	}
}

func TestGroupAndFriendContextsAreSeparate(t *testing.T) {
	repo := newBalanceTestRepo(t)
	groupID := uint(7)

	if err := repo.AddDelta(1, 2, decimal.RequireFromString("10.00"), nil, "INR"); err != nil {
		t.Fatalf("friend delta: %v", err)
	}
	if err := repo.AddDelta(1, 2, decimal.RequireFromString("25.00"), &groupID, "INR"); err != nil {
		t.Fatalf("group delta: %v", err)
	}

	if got := amount(t, repo, 1, 2, nil); got != "10.00" {
		t.Errorf("friend context = %s, want 10.00", got)
	}
	if got := amount(t, repo, 1, 2, &groupID); got != "25.00" {
		t.Errorf("group context = %s, want 25.00", got)
	}

	total, err := repo.GetTotal(1, 2)
	if err != nil {
		t.Fatalf("get total: %v", err)
	}
	if total.StringFixed(2) != "35.00" {
		t.Errorf("total = %s, want 35.00", total.StringFixed(2))
	}
}

func TestSetZeroRefreshesTotal(t *testing.T) {
	repo := newBalanceTestRepo(t)
	groupID := uint(3)

	if err := repo.AddDelta(1, 2, decimal.RequireFromString("20.00"), &groupID, "INR"); err != nil {
		t.Fatalf("add delta: %v", err)
	}
	rows, err := repo.BalancesTouching(1)
	if err != nil || len(rows) != 1 {
		t.Fatalf("balances touching: rows=%d err=%v", len(rows), err)
	}
	if err := repo.SetZero(&rows[0]); err != nil {
		t.Fatalf("set zero: %v", err)
	}

	if got := amount(t, repo, 1, 2, &groupID); got != "0.00" {
		t.Errorf("balance after zero = %s, want 0.00", got)
	}
	total, _ := repo.GetTotal(1, 2)
	if total.StringFixed(2) != "0.00" {
		t.Errorf("total after zero = %s, want 0.00", total.StringFixed(2))
	}
}

func TestNonZeroBalancesFiltersSettled(t *testing.T) {
	repo := newBalanceTestRepo(t)

	if err := repo.AddDelta(1, 2, decimal.RequireFromString("12.00"), nil, "INR"); err != nil {
		t.Fatalf("add delta: %v", err)
	}
	if _, err := repo.GetOrCreate(1, 3, nil, "INR"); err != nil {
		t.Fatalf("get or create: %v", err)
	}

	rows, err := repo.NonZeroBalancesFor(1, nil)
	if err != nil {
		t.Fatalf("non-zero balances: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].User2ID != 2 {
		t.Errorf("unexpected pair user %d", rows[0].User2ID)
	}
}
