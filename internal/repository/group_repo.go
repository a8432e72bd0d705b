package repository

import (
	"splitkar/internal/models"

	"gorm.io/gorm"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(g *models.Group) error {
	return r.db.Create(g).Error
}

func (r *GroupRepository) GetByID(id uint) (*models.Group, error) {
	var g models.Group
	if err := r.db.Preload("Members").First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// GetActive returns the group only when it exists and is active.
func (r *GroupRepository) GetActive(id uint) (*models.Group, error) {
	var g models.Group
	err := r.db.Preload("Members").Where("id = ? AND is_active = ?", id, true).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) GroupsOf(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.Preload("Members").
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ? AND groups.is_active = ?", userID, true).
		Order("groups.created_at DESC").
		Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) AddMember(groupID, userID uint) error {
	return r.db.Model(&models.Group{ID: groupID}).Association("Members").Append(&models.User{ID: userID})
}

// IsMember checks current membership of a single user.
func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.Table("group_members").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// NonMembers returns the subset of ids that are not current members.
func (r *GroupRepository) NonMembers(groupID uint, userIDs []uint) ([]uint, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var memberIDs []uint
	err := r.db.Table("group_members").
		Where("group_id = ? AND user_id IN ?", groupID, userIDs).
		Pluck("user_id", &memberIDs).Error
	if err != nil {
		return nil, err
	}
	members := make(map[uint]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}
	var missing []uint
	for _, id := range userIDs {
		if !members[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *GroupRepository) CreateInvitation(inv *models.GroupInvitation) error {
	return r.db.Create(inv).Error
}

func (r *GroupRepository) GetInvitation(id uint) (*models.GroupInvitation, error) {
	var inv models.GroupInvitation
	if err := r.db.Preload("Group").First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GroupRepository) UpdateInvitation(inv *models.GroupInvitation) error {
	return r.db.Save(inv).Error
}

func (r *GroupRepository) PendingInvitationsFor(userID uint) ([]models.GroupInvitation, error) {
	var invs []models.GroupInvitation
	err := r.db.Preload("Group").
		Where("invited_user_id = ? AND status = ?", userID, "pending").
		Order("created_at DESC").
		Find(&invs).Error
	return invs, err
}
