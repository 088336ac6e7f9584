package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly/internal/models"
)

func TestInviteLifecycleAcceptPath(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	event := seedEvent(t, db, host, models.VisibilityInvite)

	invite, err := svc.Invite(ctx, event.ID, guest.ID, host.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitePending, invite.Status)

	role, err := svc.RoleInEvent(ctx, event.ID, guest.ID)
	require.NoError(t, err)
	require.NotNil(t, role)
	require.Equal(t, models.RoleInvited, *role)

	// A second invite while one is pending is rejected.
	_, err = svc.Invite(ctx, event.ID, guest.ID, host.ID)
	require.ErrorIs(t, err, ErrDuplicateInvite)

	membership, err := svc.AcceptInvite(ctx, event.ID, guest.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAttendee, membership.Role)

	var stored models.EventInvite
	require.NoError(t, db.Where("event_id = ? AND invitee_id = ?", event.ID, guest.ID).Take(&stored).Error)
	require.Equal(t, models.InviteAccepted, stored.Status)
	require.NotNil(t, stored.RespondedAt)

	// Accepting twice hits the state machine, not a missing row.
	_, err = svc.AcceptInvite(ctx, event.ID, guest.ID)
	require.ErrorIs(t, err, ErrStaleState)

	// Inviting an accepted member reports the membership conflict.
	_, err = svc.Invite(ctx, event.ID, guest.ID, host.ID)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInviteDeclineAndReissue(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	event := seedEvent(t, db, host, models.VisibilityPrivate)

	_, err = svc.Invite(ctx, event.ID, guest.ID, host.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeclineInvite(ctx, event.ID, guest.ID))

	// Declining removes the INVITED placeholder.
	role, err := svc.RoleInEvent(ctx, event.ID, guest.ID)
	require.NoError(t, err)
	require.Nil(t, role)

	err = svc.DeclineInvite(ctx, event.ID, guest.ID)
	require.ErrorIs(t, err, ErrStaleState)

	// A declined invite can be re-issued in place.
	invite, err := svc.Invite(ctx, event.ID, guest.ID, host.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitePending, invite.Status)
	require.Nil(t, invite.RespondedAt)

	var count int64
	require.NoError(t, db.Model(&models.EventInvite{}).
		Where("event_id = ? AND invitee_id = ?", event.ID, guest.ID).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestInviteRejectsHostAndMembers(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	attendee := seedUser(t, db, "attendee")
	event := seedEvent(t, db, host, models.VisibilityInvite)
	seedAttendee(t, db, event, attendee)

	_, err = svc.Invite(ctx, event.ID, host.ID, host.ID)
	require.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.Invite(ctx, event.ID, attendee.ID, host.ID)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestInviteRejectsNonHostIssuers(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	attendee := seedUser(t, db, "attendee")
	visitor := seedUser(t, db, "visitor")
	event := seedEvent(t, db, host, models.VisibilityInvite)
	seedAttendee(t, db, event, attendee)

	// A visitor cannot mint an invite for themself and walk in.
	_, err = svc.Invite(ctx, event.ID, visitor.ID, visitor.ID)
	require.ErrorIs(t, err, ErrNotHost)

	role, err := svc.RoleInEvent(ctx, event.ID, visitor.ID)
	require.NoError(t, err)
	require.Nil(t, role)

	_, err = svc.AcceptInvite(ctx, event.ID, visitor.ID)
	require.ErrorIs(t, err, ErrInviteNotFound)

	// Attendees cannot issue invites on the host's behalf either.
	_, err = svc.Invite(ctx, event.ID, visitor.ID, attendee.ID)
	require.ErrorIs(t, err, ErrNotHost)

	// The host still can.
	invite, err := svc.Invite(ctx, event.ID, visitor.ID, host.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvitePending, invite.Status)
}

func TestExpireInvitesSweep(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	stale := seedUser(t, db, "stale-guest")
	fresh := seedUser(t, db, "fresh-guest")
	event := seedEvent(t, db, host, models.VisibilityInvite)

	_, err = svc.Invite(ctx, event.ID, stale.ID, host.ID)
	require.NoError(t, err)
	_, err = svc.Invite(ctx, event.ID, fresh.ID, host.ID)
	require.NoError(t, err)

	// Backdate one invite past the cutoff.
	old := time.Now().Add(-14 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.EventInvite{}).
		Where("event_id = ? AND invitee_id = ?", event.ID, stale.ID).
		Update("created_at", old).Error)

	expired, err := svc.ExpireInvites(ctx, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), expired)

	var staleInvite models.EventInvite
	require.NoError(t, db.Where("event_id = ? AND invitee_id = ?", event.ID, stale.ID).Take(&staleInvite).Error)
	require.Equal(t, models.InviteExpired, staleInvite.Status)

	role, err := svc.RoleInEvent(ctx, event.ID, stale.ID)
	require.NoError(t, err)
	require.Nil(t, role)

	role, err = svc.RoleInEvent(ctx, event.ID, fresh.ID)
	require.NoError(t, err)
	require.NotNil(t, role)
	require.Equal(t, models.RoleInvited, *role)

	// Expired invites no longer transition.
	_, err = svc.AcceptInvite(ctx, event.ID, stale.ID)
	require.ErrorIs(t, err, ErrStaleState)
}

func TestJoinOpenEvent(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	joiner := seedUser(t, db, "joiner")
	open := seedEvent(t, db, host, models.VisibilityOpen)
	gated := seedEvent(t, db, host, models.VisibilityInvite)

	membership, err := svc.JoinOpenEvent(ctx, open.ID, joiner.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAttendee, membership.Role)

	_, err = svc.JoinOpenEvent(ctx, open.ID, joiner.ID)
	require.ErrorIs(t, err, ErrDuplicateMembership)

	_, err = svc.JoinOpenEvent(ctx, gated.ID, joiner.ID)
	require.ErrorIs(t, err, ErrEventNotJoinable)

	_, err = svc.JoinOpenEvent(ctx, open.ID+999, joiner.ID)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestLeaveEvent(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	attendee := seedUser(t, db, "attendee")
	outsider := seedUser(t, db, "outsider")
	event := seedEvent(t, db, host, models.VisibilityOpen)
	seedAttendee(t, db, event, attendee)

	require.ErrorIs(t, svc.LeaveEvent(ctx, event.ID, host.ID), ErrHostCannotLeave)
	require.ErrorIs(t, svc.LeaveEvent(ctx, event.ID, outsider.ID), ErrMembershipNotFound)

	require.NoError(t, svc.LeaveEvent(ctx, event.ID, attendee.ID))

	role, err := svc.RoleInEvent(ctx, event.ID, attendee.ID)
	require.NoError(t, err)
	require.Nil(t, role)

	// Leaving again finds nothing to remove.
	require.ErrorIs(t, svc.LeaveEvent(ctx, event.ID, attendee.ID), ErrMembershipNotFound)

	// An attendee who left an OPEN event may rejoin.
	_, err = svc.JoinOpenEvent(ctx, event.ID, attendee.ID)
	require.NoError(t, err)
}

func TestListInvitationsForUserSkipsDeletedEvents(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	hostA := seedUser(t, db, "host-a")
	hostB := seedUser(t, db, "host-b")
	guest := seedUser(t, db, "guest")
	live := seedEvent(t, db, hostA, models.VisibilityInvite)
	doomed := seedEvent(t, db, hostB, models.VisibilityInvite)

	_, err = svc.Invite(ctx, live.ID, guest.ID, hostA.ID)
	require.NoError(t, err)
	_, err = svc.Invite(ctx, doomed.ID, guest.ID, hostB.ID)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Event{}).
		Where("id = ?", doomed.ID).
		Update("is_deleted", true).Error)

	invites, err := svc.ListInvitationsForUser(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.Equal(t, live.ID, invites[0].EventID)
	require.NotNil(t, invites[0].Event)
}

func TestListAttendeesExcludesInvited(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewMembershipService(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	attendee := seedUser(t, db, "attendee")
	invited := seedUser(t, db, "invited")
	event := seedEvent(t, db, host, models.VisibilityInvite)
	seedAttendee(t, db, event, attendee)

	_, err = svc.Invite(ctx, event.ID, invited.ID, host.ID)
	require.NoError(t, err)

	members, err := svc.ListAttendees(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, models.RoleHost, members[0].Role)
	require.Equal(t, host.ID, members[0].UserID)
	require.NotNil(t, members[0].User)
}
