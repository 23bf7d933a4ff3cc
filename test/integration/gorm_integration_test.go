package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/internal/repository/contract"
	"matrimony-relay-be/internal/repository/implementation"
	"matrimony-relay-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	users := implementation.NewUserRepository(gormDB)
	chats := implementation.NewChatRepository(gormDB)
	messages := implementation.NewMessageRepository(gormDB)
	notifications := implementation.NewNotificationRepository(gormDB)

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	ctx := context.Background()

	t.Run("Check User Presence Columns", func(t *testing.T) {
		user := &model.User{
			Email:     "relay-integration-" + uuid.NewString() + "@example.com",
			FirstName: "Integration",
			LastName:  "User",
		}
		require.NoError(t, gormDB.WithContext(ctx).Create(user).Error)
		defer gormDB.WithContext(ctx).Unscoped().Delete(user)

		assert.NoError(t, users.SetOnline(ctx, user.Id, true))
		assert.NoError(t, users.Touch(ctx, user.Id, time.Now()))

		loaded, err := users.FindById(ctx, user.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.True(t, loaded.IsOnline)
	})

	t.Run("Check Chat Message Pipeline", func(t *testing.T) {
		a := &model.User{Email: "relay-a-" + uuid.NewString() + "@example.com", FirstName: "A"}
		b := &model.User{Email: "relay-b-" + uuid.NewString() + "@example.com", FirstName: "B"}
		require.NoError(t, gormDB.WithContext(ctx).Create(a).Error)
		require.NoError(t, gormDB.WithContext(ctx).Create(b).Error)
		defer gormDB.WithContext(ctx).Unscoped().Delete(a)
		defer gormDB.WithContext(ctx).Unscoped().Delete(b)

		chat := &model.Chat{Participants: []model.User{*a, *b}}
		require.NoError(t, gormDB.WithContext(ctx).Create(chat).Error)
		defer gormDB.WithContext(ctx).Unscoped().Delete(chat)

		message := &model.Message{
			ChatId:      chat.Id,
			SenderId:    a.Id,
			Content:     "integration hello",
			MessageType: model.MessageTypeText,
		}
		require.NoError(t, messages.Create(ctx, message))
		defer gormDB.WithContext(ctx).Unscoped().Delete(message)

		require.NoError(t, chats.SetLastMessage(ctx, chat.Id, message.Id))

		loaded, err := chats.FindById(ctx, chat.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.True(t, loaded.HasParticipant(a.Id))
		assert.True(t, loaded.HasParticipant(b.Id))
		require.NotNil(t, loaded.LastMessageId)
		assert.Equal(t, message.Id, *loaded.LastMessageId)

		joined, err := chats.FindByParticipant(ctx, b.Id)
		require.NoError(t, err)
		assert.NotEmpty(t, joined)
	})

	t.Run("Check Notification Read Cycle", func(t *testing.T) {
		user := &model.User{Email: "relay-notif-" + uuid.NewString() + "@example.com", FirstName: "N"}
		require.NoError(t, gormDB.WithContext(ctx).Create(user).Error)
		defer gormDB.WithContext(ctx).Unscoped().Delete(user)

		notification := &model.Notification{
			UserId:  user.Id,
			Type:    model.NotificationTypeMessage,
			Title:   "New message",
			Message: "integration test",
		}
		require.NoError(t, notifications.Create(ctx, notification))
		defer gormDB.WithContext(ctx).Unscoped().Delete(notification)

		count, err := notifications.UnreadCount(ctx, user.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		// A different identity cannot ack the row.
		err = notifications.MarkAsRead(ctx, uuid.New(), notification.Id)
		assert.ErrorIs(t, err, contract.ErrNotificationNotFound)

		require.NoError(t, notifications.MarkAsRead(ctx, user.Id, notification.Id))
		count, err = notifications.UnreadCount(ctx, user.Id)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		require.NoError(t, notifications.DeleteAllByUserId(ctx, user.Id))
		found, total, err := notifications.FindByUserId(ctx, user.Id, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, found)
		assert.Equal(t, int64(0), total)
	})
}
