package repository

import (
	"splitkar/internal/models"

	"gorm.io/gorm"
)

type FriendRepository struct {
	db *gorm.DB
}

func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

func (r *FriendRepository) CreateRequest(req *models.FriendRequest) error {
	return r.db.Create(req).Error
}

func (r *FriendRepository) GetRequest(id uint) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// RequestExistsBetween reports whether a request already exists in either
// direction between the two users.
func (r *FriendRepository) RequestExistsBetween(a, b uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.FriendRequest{}).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *FriendRepository) UpdateRequest(req *models.FriendRequest) error {
	return r.db.Save(req).Error
}

func (r *FriendRepository) PendingRequestsFor(userID uint) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.Preload("FromUser").
		Where("to_user_id = ? AND status = ?", userID, "pending").
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

// CreateFriendship stores the pair in canonical order, ignoring duplicates.
func (r *FriendRepository) CreateFriendship(a, b uint) error {
	u1, u2 := models.CanonicalPair(a, b)
	var existing models.Friendship
	err := r.db.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.Create(&models.Friendship{User1ID: u1, User2ID: u2}).Error
}

// AreFriends checks friendship using canonical ordering.
func (r *FriendRepository) AreFriends(a, b uint) (bool, error) {
	u1, u2 := models.CanonicalPair(a, b)
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("user1_id = ? AND user2_id = ?", u1, u2).
		Count(&count).Error
	return count > 0, err
}

// FriendsOf returns all users the given user is friends with, newest first.
func (r *FriendRepository) FriendsOf(userID uint) ([]models.User, error) {
	var friendships []models.Friendship
	err := r.db.Preload("User1").Preload("User2").
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	friends := make([]models.User, 0, len(friendships))
	for _, fs := range friendships {
		if fs.User1ID == userID {
			friends = append(friends, fs.User2)
		} else {
			friends = append(friends, fs.User1)
		}
	}
	return friends, nil
}

func (r *FriendRepository) DeleteFriendship(a, b uint) error {
	u1, u2 := models.CanonicalPair(a, b)
	return r.db.Where("user1_id = ? AND user2_id = ?", u1, u2).Delete(&models.Friendship{}).Error
}
