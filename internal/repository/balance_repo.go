package repository

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"splitkar/internal/models"
)

// BalanceRepository persists the derived Balance and UserTotalBalance rows.
// All writes are expressed as single-statement atomic increments so that
// concurrent mutations touching the same pair cannot lose updates.
type BalanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

func (r *BalanceRepository) WithTx(tx *gorm.DB) *BalanceRepository {
	return &BalanceRepository{db: tx}
}

func groupScope(q *gorm.DB, groupID *uint) *gorm.DB {
	if groupID == nil {
		return q.Where("group_id IS NULL")
	}
	return q.Where("group_id = ?", *groupID)
}

// GetOrCreate fetches the pair's balance row for one context, creating a
// zero row when absent. The pair is canonicalized first.
func (r *BalanceRepository) GetOrCreate(userA, userB uint, groupID *uint, currency string) (*models.Balance, error) {
	u1, u2 := models.CanonicalPair(userA, userB)
	var b models.Balance
	q := groupScope(r.db.Where("user1_id = ? AND user2_id = ?", u1, u2), groupID)
	err := q.First(&b).Error
	if err == nil {
		return &b, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	b = models.Balance{User1ID: u1, User2ID: u2, GroupID: groupID, Currency: currency, BalanceAmount: decimal.Zero}
	if err := r.db.Create(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// AddDelta applies a signed change to the pair's balance in one context.
// The delta is expressed from userA's side: positive means userA owes userB
// more. The sign is flipped when canonical ordering swaps the pair, and the
// write is issued as `balance_amount = balance_amount + ?`. The pair's
// aggregate total is refreshed afterwards.
func (r *BalanceRepository) AddDelta(userA, userB uint, delta decimal.Decimal, groupID *uint, currency string) error {
	b, err := r.GetOrCreate(userA, userB, groupID, currency)
	if err != nil {
		return err
	}
	signed := delta
	if userA > userB {
		signed = delta.Neg()
	}
	err = r.db.Model(&models.Balance{}).
		Where("id = ?", b.ID).
		Update("balance_amount", gorm.Expr("balance_amount + ?", signed)).Error
	if err != nil {
		return err
	}
	return r.RefreshPairTotal(b.User1ID, b.User2ID)
}

// SetZero clears one balance row and refreshes the pair total.
func (r *BalanceRepository) SetZero(b *models.Balance) error {
	err := r.db.Model(&models.Balance{}).
		Where("id = ?", b.ID).
		Update("balance_amount", decimal.Zero).Error
	if err != nil {
		return err
	}
	return r.RefreshPairTotal(b.User1ID, b.User2ID)
}

// Get returns the canonical balance amount for a pair in one context; zero
// when no row exists.
func (r *BalanceRepository) Get(userA, userB uint, groupID *uint) (decimal.Decimal, error) {
	u1, u2 := models.CanonicalPair(userA, userB)
	var b models.Balance
	q := groupScope(r.db.Where("user1_id = ? AND user2_id = ?", u1, u2), groupID)
	err := q.First(&b).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return b.BalanceAmount, nil
}

// PairBalances returns every context's balance row for a canonical pair.
func (r *BalanceRepository) PairBalances(userA, userB uint) ([]models.Balance, error) {
	u1, u2 := models.CanonicalPair(userA, userB)
	var balances []models.Balance
	err := r.db.Where("user1_id = ? AND user2_id = ?", u1, u2).Find(&balances).Error
	return balances, err
}

// BalancesTouching returns every balance row the user appears in.
func (r *BalanceRepository) BalancesTouching(userID uint) ([]models.Balance, error) {
	var balances []models.Balance
	err := r.db.Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&balances).Error
	return balances, err
}

// NonZeroBalancesFor returns the user's balances that are not settled,
// optionally scoped to a group.
func (r *BalanceRepository) NonZeroBalancesFor(userID uint, groupID *uint) ([]models.Balance, error) {
	q := r.db.Where("user1_id = ? OR user2_id = ?", userID, userID).Where("balance_amount <> 0")
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	var balances []models.Balance
	err := q.Find(&balances).Error
	return balances, err
}

// GetOrCreateTotal fetches the pair's aggregate row, creating a zero row
// when absent.
func (r *BalanceRepository) GetOrCreateTotal(userA, userB uint) (*models.UserTotalBalance, error) {
	u1, u2 := models.CanonicalPair(userA, userB)
	var t models.UserTotalBalance
	err := r.db.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&t).Error
	if err == nil {
		return &t, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	t = models.UserTotalBalance{User1ID: u1, User2ID: u2, TotalBalance: decimal.Zero}
	if err := r.db.Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RefreshPairTotal recomputes the pair's aggregate from its balance rows and
// writes the correction as an atomic delta, so two concurrent refreshes
// cannot clobber each other's committed increments.
func (r *BalanceRepository) RefreshPairTotal(userA, userB uint) error {
	u1, u2 := models.CanonicalPair(userA, userB)
	balances, err := r.PairBalances(u1, u2)
	if err != nil {
		return err
	}
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b.BalanceAmount)
	}
	t, err := r.GetOrCreateTotal(u1, u2)
	if err != nil {
		return err
	}
	delta := sum.Sub(t.TotalBalance)
	if delta.IsZero() {
		return nil
	}
	return r.db.Model(&models.UserTotalBalance{}).
		Where("id = ?", t.ID).
		Update("total_balance", gorm.Expr("total_balance + ?", delta)).Error
}

// GetTotal returns the canonical aggregate balance for a pair; zero when no
// row exists.
func (r *BalanceRepository) GetTotal(userA, userB uint) (decimal.Decimal, error) {
	u1, u2 := models.CanonicalPair(userA, userB)
	var t models.UserTotalBalance
	err := r.db.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&t).Error
	if err == gorm.ErrRecordNotFound {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return t.TotalBalance, nil
}
