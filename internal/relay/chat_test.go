package relay

import (
	"context"
	"errors"
	"testing"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	hub           *Hub
	relay         *ChatRelay
	chats         *fakeChatRepo
	messages      *fakeMessageRepo
	notifications *fakeNotificationRepo
	users         *fakeUserRepo
	bus           *capturedEvents
}

func newChatFixture(chats *fakeChatRepo, users *fakeUserRepo) *chatFixture {
	f := &chatFixture{
		hub:           newTestHub(),
		chats:         chats,
		messages:      &fakeMessageRepo{},
		notifications: &fakeNotificationRepo{},
		users:         users,
		bus:           &capturedEvents{},
	}
	f.relay = NewChatRelay(f.hub, f.chats, f.messages, f.notifications, f.users, f.bus, nopLogger{})
	return f
}

func TestJoinChatSubscribesParticipant(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(alice)

	f.relay.JoinChat(context.Background(), alice, JoinChatPayload{ChatId: chat.Id})

	assert.True(t, f.hub.inRoom(chat.Id, alice))
	requireNoFrame(t, alice)
}

func TestJoinChatDeniedForOutsider(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	mallory := newTestClient("Mallory")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(mallory)

	f.relay.JoinChat(context.Background(), mallory, JoinChatPayload{ChatId: chat.Id})

	assert.False(t, f.hub.inRoom(chat.Id, mallory))
	envelope := recvFrame(t, mallory)
	require.Equal(t, EventError, envelope.Event)
	var p ErrorPayload
	decodeData(t, envelope, &p)
	assert.Equal(t, ErrCodeAuthorizationDenied, p.Code)
}

func TestSendMessagePersistsBeforeBroadcast(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(alice)
	f.hub.Register(bob)
	f.hub.JoinRoom(chat.Id, alice)
	f.hub.JoinRoom(chat.Id, bob)

	// At persist time nothing may have reached the recipient yet.
	f.messages.onCreate = func(*model.Message) {
		require.Empty(t, bob.Send, "broadcast happened before the write completed")
	}

	f.relay.SendMessage(context.Background(), alice, SendMessagePayload{
		ChatId:  chat.Id,
		Content: "hello",
	})

	require.Len(t, f.messages.created, 1)
	stored := f.messages.created[0]
	assert.Equal(t, alice.UserID, stored.SenderId)
	assert.Equal(t, model.MessageTypeText, stored.MessageType)
	require.NotNil(t, chat.LastMessageId)
	assert.Equal(t, stored.Id, *chat.LastMessageId)

	// Both room members receive the broadcast, the sender included.
	for _, c := range []*Client{alice, bob} {
		envelope := recvFrame(t, c)
		require.Equal(t, EventNewMessage, envelope.Event)
		var m model.Message
		decodeData(t, envelope, &m)
		assert.Equal(t, "hello", m.Content)
		assert.Equal(t, stored.Id, m.Id)
	}

	require.Len(t, f.bus.published, 1)
	assert.Equal(t, events.TypeMessageSent, f.bus.published[0].Type)
}

func TestSendMessageDeniedForNonParticipant(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	mallory := newTestClient("Mallory")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(mallory)

	f.relay.SendMessage(context.Background(), mallory, SendMessagePayload{
		ChatId:  chat.Id,
		Content: "hi",
	})

	envelope := recvFrame(t, mallory)
	require.Equal(t, EventMessageError, envelope.Event)
	var p ErrorPayload
	decodeData(t, envelope, &p)
	assert.Equal(t, ErrCodeAuthorizationDenied, p.Code)

	assert.Empty(t, f.messages.created)
	assert.Empty(t, f.notifications.created)
}

func TestSendMessagePersistenceFailure(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(alice)
	f.hub.Register(bob)
	f.hub.JoinRoom(chat.Id, alice)
	f.hub.JoinRoom(chat.Id, bob)

	f.messages.err = errors.New("connection refused")

	f.relay.SendMessage(context.Background(), alice, SendMessagePayload{
		ChatId:  chat.Id,
		Content: "hello",
	})

	// Error goes to the sender alone; nothing is broadcast.
	envelope := recvFrame(t, alice)
	require.Equal(t, EventMessageError, envelope.Event)
	var p ErrorPayload
	decodeData(t, envelope, &p)
	assert.Equal(t, ErrCodePersistenceFailure, p.Code)

	requireNoFrame(t, bob)
	assert.Empty(t, f.bus.published)
}

func TestNotificationFanOutTargetsNonSenders(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(alice)
	f.hub.Register(bob)
	f.hub.JoinRoom(chat.Id, alice)

	// Bob has not joined the chat room, so he gets no new-message frame,
	// but he is online and must still receive the notification events.
	f.relay.SendMessage(context.Background(), alice, SendMessagePayload{
		ChatId:  chat.Id,
		Content: "hello",
	})

	require.Len(t, f.notifications.created, 1)
	stored := f.notifications.created[0]
	assert.Equal(t, bob.UserID, stored.UserId)
	assert.Equal(t, model.NotificationTypeMessage, stored.Type)
	require.NotNil(t, stored.FromUserId)
	assert.Equal(t, alice.UserID, *stored.FromUserId)

	envelope := recvFrame(t, bob)
	require.Equal(t, EventMessageNotification, envelope.Event)
	var notice MessageNotificationPayload
	decodeData(t, envelope, &notice)
	assert.Equal(t, chat.Id, notice.ChatId)
	assert.Equal(t, alice.UserID, notice.FromUser)
	assert.Equal(t, "hello", notice.Message)

	envelope = recvFrame(t, bob)
	require.Equal(t, EventChatUpdated, envelope.Event)
	var updated ChatUpdatedPayload
	decodeData(t, envelope, &updated)
	assert.Equal(t, chat.Id, updated.ChatId)
	require.NotNil(t, updated.LastMessage)
	assert.Equal(t, "hello", updated.LastMessage.Content)
}

func TestNotificationPersistedForOfflineParticipant(t *testing.T) {
	alice := newTestClient("Alice")
	bob := newTestClient("Bob")
	chat := twoPartyChat(userFor(alice), userFor(bob))
	f := newChatFixture(newFakeChatRepo(chat), newFakeUserRepo(userFor(alice), userFor(bob)))
	f.hub.Register(alice)
	f.hub.JoinRoom(chat.Id, alice)

	f.relay.SendMessage(context.Background(), alice, SendMessagePayload{
		ChatId:  chat.Id,
		Content: "hello",
	})

	// The row is written even though no push could be delivered.
	require.Len(t, f.notifications.created, 1)
	assert.Equal(t, bob.UserID, f.notifications.created[0].UserId)

	count, err := f.notifications.UnreadCount(context.Background(), bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSendMessageUnknownChat(t *testing.T) {
	alice := newTestClient("Alice")
	f := newChatFixture(newFakeChatRepo(), newFakeUserRepo(userFor(alice)))
	f.hub.Register(alice)

	f.relay.SendMessage(context.Background(), alice, SendMessagePayload{
		ChatId:  uuid.New(),
		Content: "hello",
	})

	envelope := recvFrame(t, alice)
	require.Equal(t, EventMessageError, envelope.Event)
	var p ErrorPayload
	decodeData(t, envelope, &p)
	assert.Equal(t, ErrCodeAuthorizationDenied, p.Code)
}
