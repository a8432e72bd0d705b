package service

import (
	"errors"

	"gorm.io/gorm"

	"splitkar/internal/domain"
	"splitkar/internal/models"
	"splitkar/internal/repository"
)

type FriendService struct {
	users   *repository.UserRepository
	friends *repository.FriendRepository
}

func NewFriendService(users *repository.UserRepository, friends *repository.FriendRepository) *FriendService {
	return &FriendService{users: users, friends: friends}
}

// SendRequest creates a friend request from actor to the user identified by
// profile code or id. Duplicate or reversed pending requests are rejected,
// as is requesting an existing friend.
func (s *FriendService) SendRequest(actorID uint, toUserID uint, profileCode string) (*models.FriendRequest, error) {
	if profileCode != "" {
		target, err := s.users.GetByProfileCode(profileCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		toUserID = target.ID
	} else {
		if _, err := s.users.GetByID(toUserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
	}
	if toUserID == actorID {
		return nil, domain.Validationf("cannot send a friend request to yourself")
	}

	already, err := s.friends.AreFriends(actorID, toUserID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, domain.Validationf("already friends")
	}
	pending, err := s.friends.RequestExistsBetween(actorID, toUserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.Validationf("a pending request already exists")
	}

	req := &models.FriendRequest{
		FromUserID: actorID,
		ToUserID:   toUserID,
		Status:     domain.RequestStatusPending,
	}
	if err := s.friends.CreateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Respond accepts or declines a pending request addressed to the actor.
// Accepting creates the friendship.
func (s *FriendService) Respond(actorID, requestID uint, accept bool) error {
	req, err := s.friends.GetRequest(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if req.ToUserID != actorID {
		return domain.ErrPermissionDenied
	}
	if req.Status != domain.RequestStatusPending {
		return domain.Validationf("request already %s", req.Status)
	}

	if accept {
		req.Status = domain.RequestStatusAccepted
		if err := s.friends.UpdateRequest(req); err != nil {
			return err
		}
		return s.friends.CreateFriendship(req.FromUserID, req.ToUserID)
	}
	req.Status = domain.RequestStatusDeclined
	return s.friends.UpdateRequest(req)
}

func (s *FriendService) PendingRequests(userID uint) ([]models.FriendRequest, error) {
	return s.friends.PendingRequestsFor(userID)
}

func (s *FriendService) Friends(userID uint) ([]models.User, error) {
	return s.friends.FriendsOf(userID)
}

// Unfriend removes the friendship. Balances between the two users are kept;
// the ledger history does not depend on the social graph.
func (s *FriendService) Unfriend(actorID, otherID uint) error {
	ok, err := s.friends.AreFriends(actorID, otherID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return s.friends.DeleteFriendship(actorID, otherID)
}
