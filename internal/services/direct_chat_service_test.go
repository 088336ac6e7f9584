package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly/internal/models"
)

func setupDirectChat(t *testing.T) (svc *DirectChatService, event *models.Event, alice, bob *models.User, ctx context.Context) {
	t.Helper()

	db := openServiceTestDB(t)
	var err error
	svc, err = NewDirectChatService(db)
	require.NoError(t, err)
	ctx = context.Background()

	host := seedUser(t, db, "host")
	alice = seedUser(t, db, "alice")
	bob = seedUser(t, db, "bob")
	event = seedEvent(t, db, host, models.VisibilityOpen)
	seedAttendee(t, db, event, alice)
	seedAttendee(t, db, event, bob)
	return svc, event, alice, bob, ctx
}

func TestGetOrCreateIsDirectionless(t *testing.T) {
	svc, event, alice, bob, ctx := setupDirectChat(t)

	chat, err := svc.GetOrCreate(ctx, event.ID, alice.ID, bob.ID)
	require.NoError(t, err)

	mirrored, err := svc.GetOrCreate(ctx, event.ID, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, chat.ID, mirrored.ID)

	require.True(t, chat.HasParticipant(alice.ID))
	require.True(t, chat.HasParticipant(bob.ID))
	require.Equal(t, bob.ID, chat.OtherParticipant(alice.ID))
}

func TestGetOrCreateGuards(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewDirectChatService(db)
	require.NoError(t, err)
	ctx := context.Background()

	host := seedUser(t, db, "host")
	member := seedUser(t, db, "member")
	outsider := seedUser(t, db, "outsider")
	event := seedEvent(t, db, host, models.VisibilityOpen)
	seedAttendee(t, db, event, member)

	_, err = svc.GetOrCreate(ctx, event.ID, member.ID, member.ID)
	require.ErrorIs(t, err, ErrSelfChat)

	_, err = svc.GetOrCreate(ctx, event.ID, member.ID, outsider.ID)
	require.ErrorIs(t, err, ErrNotAMember)

	_, err = svc.GetOrCreate(ctx, event.ID+999, member.ID, host.ID)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestSendValidatesAndGuards(t *testing.T) {
	svc, event, alice, bob, ctx := setupDirectChat(t)

	chat, err := svc.GetOrCreate(ctx, event.ID, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, chat.ID, alice.ID, "  ")
	require.Error(t, err)

	_, err = svc.Send(ctx, chat.ID, alice.ID, strings.Repeat("x", models.MaxDirectMessageLength+1))
	require.Error(t, err)

	_, err = svc.Send(ctx, chat.ID, "someone-else", "hello")
	require.ErrorIs(t, err, ErrNotParticipant)

	msg, err := svc.Send(ctx, chat.ID, alice.ID, "hello bob")
	require.NoError(t, err)
	require.Equal(t, alice.ID, msg.SenderID)
	require.False(t, msg.IsRead)
}

func TestLeaveHidesAndIncomingMessageRestores(t *testing.T) {
	svc, event, alice, bob, ctx := setupDirectChat(t)

	chat, err := svc.GetOrCreate(ctx, event.ID, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, chat.ID, alice.ID, "are you coming?")
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, chat.ID, bob.ID))
	// Leaving twice is a no-op.
	require.NoError(t, svc.Leave(ctx, chat.ID, bob.ID))

	list, err := svc.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	// The other side still sees the chat.
	list, err = svc.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// An incoming message clears the leave marker.
	_, err = svc.Send(ctx, chat.ID, alice.ID, "hello again")
	require.NoError(t, err)

	list, err = svc.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, chat.ID, list[0].Chat.ID)

	// Messages sent while away were retained.
	messages, err := svc.Messages(ctx, chat.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
}

func TestListForUserAnnotations(t *testing.T) {
	svc, event, alice, bob, ctx := setupDirectChat(t)

	chat, err := svc.GetOrCreate(ctx, event.ID, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, chat.ID, alice.ID, "first")
	require.NoError(t, err)
	_, err = svc.Send(ctx, chat.ID, alice.ID, "second")
	require.NoError(t, err)

	list, err := svc.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, alice.ID, list[0].OtherParticipant.ID)
	require.Equal(t, int64(2), list[0].UnreadCount)
	require.NotNil(t, list[0].LatestMessage)
	require.Equal(t, "second", list[0].LatestMessage.Content)

	// Reading the conversation clears the unread count for the reader only.
	_, err = svc.Messages(ctx, chat.ID, bob.ID)
	require.NoError(t, err)

	list, err = svc.ListForUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), list[0].UnreadCount)
}

func TestMessagesMarksOtherSideRead(t *testing.T) {
	svc, event, alice, bob, ctx := setupDirectChat(t)

	chat, err := svc.GetOrCreate(ctx, event.ID, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, chat.ID, alice.ID, "ping")
	require.NoError(t, err)
	_, err = svc.Send(ctx, chat.ID, bob.ID, "pong")
	require.NoError(t, err)

	messages, err := svc.Messages(ctx, chat.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "ping", messages[0].Content)
	require.NotNil(t, messages[1].Sender)

	// Bob's message is now read; Alice's own message is untouched.
	var bobMsg models.DirectMessage
	require.NoError(t, svc.db.Where("chat_id = ? AND sender_id = ?", chat.ID, bob.ID).Take(&bobMsg).Error)
	require.True(t, bobMsg.IsRead)

	var aliceMsg models.DirectMessage
	require.NoError(t, svc.db.Where("chat_id = ? AND sender_id = ?", chat.ID, alice.ID).Take(&aliceMsg).Error)
	require.False(t, aliceMsg.IsRead)

	_, err = svc.Messages(ctx, chat.ID, "stranger")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestDeleteRemovesEverything(t *testing.T) {
	svc, event, alice, bob, ctx := setupDirectChat(t)

	chat, err := svc.GetOrCreate(ctx, event.ID, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Send(ctx, chat.ID, alice.ID, "soon gone")
	require.NoError(t, err)
	require.NoError(t, svc.Leave(ctx, chat.ID, bob.ID))

	require.ErrorIs(t, svc.Delete(ctx, chat.ID, "stranger"), ErrNotParticipant)
	require.NoError(t, svc.Delete(ctx, chat.ID, alice.ID))

	_, err = svc.Messages(ctx, chat.ID, alice.ID)
	require.ErrorIs(t, err, ErrDirectChatNotFound)

	var messageCount int64
	require.NoError(t, svc.db.Model(&models.DirectMessage{}).Where("chat_id = ?", chat.ID).Count(&messageCount).Error)
	require.Zero(t, messageCount)

	var leaveCount int64
	require.NoError(t, svc.db.Model(&models.DirectChatLeave{}).Where("chat_id = ?", chat.ID).Count(&leaveCount).Error)
	require.Zero(t, leaveCount)
}
