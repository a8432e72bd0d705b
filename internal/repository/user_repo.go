package repository

import (
	"splitkar/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByProfileCode(code string) (*models.User, error) {
	var u models.User
	err := r.db.Where("profile_code = ?", code).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AllExist reports whether every id resolves to a user, returning the ids
// that do not.
func (r *UserRepository) AllExist(ids []uint) (bool, []uint, error) {
	if len(ids) == 0 {
		return true, nil, nil
	}
	var found []uint
	if err := r.db.Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return false, nil, err
	}
	existing := make(map[uint]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !existing[id] {
			missing = append(missing, id)
		}
	}
	return len(missing) == 0, missing, nil
}

func (r *UserRepository) GetByIDs(ids []uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}
