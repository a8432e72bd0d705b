package service

import (
	"errors"
	"testing"

	"splitkar/internal/domain"
)

func TestFriendRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)

	req, err := f.friendSvc.SendRequest(a.ID, b.ID, "")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}

	// Duplicate and reversed requests are both rejected while one is pending.
	if _, err := f.friendSvc.SendRequest(a.ID, b.ID, ""); !domain.IsValidation(err) {
		t.Errorf("duplicate request error = %v, want validation error", err)
	}
	if _, err := f.friendSvc.SendRequest(b.ID, a.ID, ""); !domain.IsValidation(err) {
		t.Errorf("reversed request error = %v, want validation error", err)
	}

	if err := f.friendSvc.Respond(b.ID, req.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	friends, err := f.friendSvc.Friends(a.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 || friends[0].ID != b.ID {
		t.Fatalf("friends of a = %v, want just b", friends)
	}

	// Once friends, no new requests between the pair.
	if _, err := f.friendSvc.SendRequest(a.ID, b.ID, ""); !domain.IsValidation(err) {
		t.Errorf("request between friends error = %v, want validation error", err)
	}
}

func TestFriendRequestByProfileCode(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)

	req, err := f.friendSvc.SendRequest(a.ID, 0, b.ProfileCode)
	if err != nil {
		t.Fatalf("send by profile code: %v", err)
	}
	if req.ToUserID != b.ID {
		t.Errorf("request target = %d, want %d", req.ToUserID, b.ID)
	}

	if _, err := f.friendSvc.SendRequest(a.ID, 0, "NOBODY@0000"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown code error = %v, want ErrNotFound", err)
	}
	if _, err := f.friendSvc.SendRequest(a.ID, 0, a.ProfileCode); !domain.IsValidation(err) {
		t.Errorf("self request error = %v, want validation error", err)
	}
}

func TestRespondPermissionAndState(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t), f.user(t), f.user(t)

	req, err := f.friendSvc.SendRequest(a.ID, b.ID, "")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if err := f.friendSvc.Respond(c.ID, req.ID, true); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("foreign respond error = %v, want ErrPermissionDenied", err)
	}
	if err := f.friendSvc.Respond(b.ID, req.ID, false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if err := f.friendSvc.Respond(b.ID, req.ID, true); !domain.IsValidation(err) {
		t.Errorf("respond to settled request error = %v, want validation error", err)
	}
}

func TestUnfriendKeepsBalances(t *testing.T) {
	f := newFixture(t)
	a, b := f.user(t), f.user(t)
	f.befriend(t, a.ID, b.ID)

	_, err := f.expenseSvc.Create(a.ID, CreateExpenseInput{
		Description:    "lunch",
		TotalAmount:    dec("30.00"),
		ParticipantIDs: []uint{a.ID, b.ID},
		Payments:       []PaymentInput{{PayerID: a.ID, Amount: dec("30.00")}},
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := f.friendSvc.Unfriend(a.ID, b.ID); err != nil {
		t.Fatalf("unfriend: %v", err)
	}

	bal, _ := f.balances.GetBalance(a.ID, b.ID, nil)
	checkAmount(t, "balance survives unfriend", bal, dec("-15.00"))
}

func TestGroupInvitationLifecycle(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user(t), f.user(t), f.user(t)
	g := f.group(t, a.ID)

	inv, err := f.groupSvc.Invite(a.ID, g.ID, b.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	// Non-members cannot invite.
	if _, err := f.groupSvc.Invite(c.ID, g.ID, c.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("outsider invite error = %v, want ErrPermissionDenied", err)
	}

	if err := f.groupSvc.RespondInvitation(b.ID, inv.ID, true); err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	member, err := f.groups.IsMember(g.ID, b.ID)
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if !member {
		t.Error("b not a member after accepting")
	}

	// Members cannot be invited again.
	if _, err := f.groupSvc.Invite(a.ID, g.ID, b.ID); !domain.IsValidation(err) {
		t.Errorf("re-invite error = %v, want validation error", err)
	}
}
