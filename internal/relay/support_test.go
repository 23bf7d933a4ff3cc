package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"matrimony-relay-be/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func newTestHub() *Hub {
	return NewHub(nil, nopLogger{})
}

// newTestClient builds a session without a socket; delivery lands in
// the Send channel where tests read it back.
func newTestClient(name string) *Client {
	return &Client{
		UserID:      uuid.New(),
		Send:        make(chan []byte, 64),
		ConnectedAt: time.Now(),
		UserName:    name,
		Email:       name + "@example.com",
	}
}

// recvFrame pops the next queued frame. Delivery in the relay is
// synchronous, so an empty channel means the event was never sent.
func recvFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var envelope Envelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		return envelope
	default:
		t.Fatal("expected a frame, send queue is empty")
		return Envelope{}
	}
}

func requireNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("expected no frame, got: %s", raw)
	default:
	}
}

func decodeData(t *testing.T, envelope Envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// --- repository fakes ---

type fakeChatRepo struct {
	chats map[uuid.UUID]*model.Chat
	err   error
}

func newFakeChatRepo(chats ...*model.Chat) *fakeChatRepo {
	m := make(map[uuid.UUID]*model.Chat)
	for _, c := range chats {
		m[c.Id] = c
	}
	return &fakeChatRepo{chats: m}
}

func (f *fakeChatRepo) FindById(_ context.Context, id uuid.UUID) (*model.Chat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chats[id], nil
}

func (f *fakeChatRepo) FindByParticipant(_ context.Context, userId uuid.UUID) ([]model.Chat, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Chat
	for _, c := range f.chats {
		if c.HasParticipant(userId) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeChatRepo) SetLastMessage(_ context.Context, chatId, messageId uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if c, ok := f.chats[chatId]; ok {
		c.LastMessageId = &messageId
	}
	return nil
}

type fakeMessageRepo struct {
	created  []*model.Message
	err      error
	onCreate func(*model.Message)
}

func (f *fakeMessageRepo) Create(_ context.Context, message *model.Message) error {
	if f.err != nil {
		return f.err
	}
	message.Id = uuid.New()
	message.CreatedAt = time.Now()
	if f.onCreate != nil {
		f.onCreate(message)
	}
	f.created = append(f.created, message)
	return nil
}

type fakeNotificationRepo struct {
	created []*model.Notification
	err     error
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *model.Notification) error {
	if f.err != nil {
		return f.err
	}
	notification.Id = uuid.New()
	f.created = append(f.created, notification)
	return nil
}

func (f *fakeNotificationRepo) FindByUserId(_ context.Context, userId uuid.UUID, _, _ int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range f.created {
		if n.UserId == userId {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) UnreadCount(_ context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	for _, n := range f.created {
		if n.UserId == userId && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkAsRead(_ context.Context, _, _ uuid.UUID) error     { return nil }
func (f *fakeNotificationRepo) MarkAllAsRead(_ context.Context, _ uuid.UUID) error     { return nil }
func (f *fakeNotificationRepo) DeleteAllByUserId(_ context.Context, _ uuid.UUID) error { return nil }

type fakeUserRepo struct {
	users   map[uuid.UUID]*model.User
	touched []uuid.UUID
	online  map[uuid.UUID]bool
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	m := make(map[uuid.UUID]*model.User)
	for _, u := range users {
		m[u.Id] = u
	}
	return &fakeUserRepo{users: m, online: make(map[uuid.UUID]bool)}
}

func (f *fakeUserRepo) FindById(_ context.Context, id uuid.UUID) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) SetOnline(_ context.Context, id uuid.UUID, online bool) error {
	f.online[id] = online
	return nil
}

func (f *fakeUserRepo) Touch(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeCallRepo struct {
	statusById   map[uuid.UUID]string
	statusByRoom map[string]string
	err          error
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{
		statusById:   make(map[uuid.UUID]string),
		statusByRoom: make(map[string]string),
	}
}

func (f *fakeCallRepo) UpdateStatusById(_ context.Context, callId uuid.UUID, status string) error {
	if f.err != nil {
		return f.err
	}
	f.statusById[callId] = status
	return nil
}

func (f *fakeCallRepo) UpdateStatusByRoomId(_ context.Context, roomId string, status string) error {
	if f.err != nil {
		return f.err
	}
	f.statusByRoom[roomId] = status
	return nil
}

// twoPartyChat builds a chat between the given users.
func twoPartyChat(users ...*model.User) *model.Chat {
	chat := &model.Chat{Id: uuid.New()}
	for _, u := range users {
		chat.Participants = append(chat.Participants, *u)
	}
	return chat
}

func userFor(c *Client) *model.User {
	return &model.User{
		Id:        c.UserID,
		Email:     c.Email,
		FirstName: c.UserName,
	}
}
