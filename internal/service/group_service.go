package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"splitkar/internal/domain"
	"splitkar/internal/models"
	"splitkar/internal/repository"
)

// InvitationTTL is how long a group invitation stays acceptable.
const InvitationTTL = 14 * 24 * time.Hour

type GroupService struct {
	users  *repository.UserRepository
	groups *repository.GroupRepository
}

func NewGroupService(users *repository.UserRepository, groups *repository.GroupRepository) *GroupService {
	return &GroupService{users: users, groups: groups}
}

// Create makes a new group with the actor as creator and first member.
func (s *GroupService) Create(actorID uint, name, description string) (*models.Group, error) {
	if name == "" {
		return nil, domain.Validationf("group name is required")
	}
	g := &models.Group{
		Name:        name,
		Description: description,
		CreatedByID: actorID,
		IsActive:    true,
	}
	if err := s.groups.Create(g); err != nil {
		return nil, err
	}
	if err := s.groups.AddMember(g.ID, actorID); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *GroupService) Get(actorID, groupID uint) (*models.Group, error) {
	member, err := s.groups.IsMember(groupID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrPermissionDenied
	}
	g, err := s.groups.GetByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *GroupService) GroupsOf(userID uint) ([]models.Group, error) {
	return s.groups.GroupsOf(userID)
}

// Invite creates an invitation for another user. Only members can invite,
// and existing members or already-invited users are rejected.
func (s *GroupService) Invite(actorID, groupID, targetID uint) (*models.GroupInvitation, error) {
	group, err := s.groups.GetActive(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	member, err := s.groups.IsMember(group.ID, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, domain.ErrPermissionDenied
	}
	if _, err := s.users.GetByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	alreadyMember, err := s.groups.IsMember(group.ID, targetID)
	if err != nil {
		return nil, err
	}
	if alreadyMember {
		return nil, domain.Validationf("user %d is already a member", targetID)
	}

	expires := time.Now().Add(InvitationTTL)
	inv := &models.GroupInvitation{
		GroupID:       group.ID,
		InvitedUserID: targetID,
		InvitedByID:   actorID,
		Status:        domain.RequestStatusPending,
		ExpiresAt:     &expires,
	}
	if err := s.groups.CreateInvitation(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// RespondInvitation accepts or declines a pending invitation addressed to
// the actor. Accepting adds the actor to the group.
func (s *GroupService) RespondInvitation(actorID, invitationID uint, accept bool) error {
	inv, err := s.groups.GetInvitation(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if inv.InvitedUserID != actorID {
		return domain.ErrPermissionDenied
	}
	if inv.Status != domain.RequestStatusPending {
		return domain.Validationf("invitation already %s", inv.Status)
	}
	if inv.IsExpired(time.Now()) {
		return domain.Validationf("invitation has expired")
	}

	if accept {
		inv.Status = domain.RequestStatusAccepted
		if err := s.groups.UpdateInvitation(inv); err != nil {
			return err
		}
		return s.groups.AddMember(inv.GroupID, actorID)
	}
	inv.Status = domain.RequestStatusDeclined
	return s.groups.UpdateInvitation(inv)
}

func (s *GroupService) PendingInvitations(userID uint) ([]models.GroupInvitation, error) {
	return s.groups.PendingInvitationsFor(userID)
}
