package relay

import (
	"encoding/json"
	"time"

	"matrimony-relay-be/internal/model"

	"github.com/google/uuid"
)

// Inbound event names.
const (
	EventJoinChat     = "join-chat"
	EventSendMessage  = "send-message"
	EventTyping       = "typing"
	EventStopTyping   = "stop-typing"
	EventInitiateCall = "initiate-call"
	EventAcceptCall   = "accept-call"
	EventRejectCall   = "reject-call"
	EventEndCall      = "end-call"
	EventIceCandidate = "ice-candidate"
	EventCallTimeout  = "call-timeout"
	EventHeartbeat    = "heartbeat"
)

// Outbound event names.
const (
	EventOnlineUsers         = "online-users"
	EventUserOnline          = "user-online"
	EventUserOffline         = "user-offline"
	EventNewMessage          = "new-message"
	EventMessageError        = "message-error"
	EventMessageNotification = "message-notification"
	EventChatUpdated         = "chat-updated"
	EventUserTyping          = "user-typing"
	EventUserStopTyping      = "user-stop-typing"
	EventIncomingCall        = "incoming-call"
	EventCallAnswered        = "call-answered"
	EventCallRejected        = "call-rejected"
	EventCallEnded           = "call-ended"
	EventUserUnavailable     = "userUnavailable"
	EventUserBusy            = "userBusy"
	EventCallWhileBusy       = "incomingCallWhileBusy"
	EventError               = "error"
)

// Error codes carried by EventError and EventMessageError payloads.
const (
	ErrCodeIdentityInvalid     = "identity_invalid"
	ErrCodeAuthorizationDenied = "authorization_denied"
	ErrCodeBadPayload          = "bad_payload"
	ErrCodeUnknownEvent        = "unknown_event"
	ErrCodePersistenceFailure  = "persistence_failure"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeEvent(event string, data interface{}) []byte {
	payload, _ := json.Marshal(data)
	frame, _ := json.Marshal(Envelope{Event: event, Data: payload})
	return frame
}

// Inbound payloads. Validation tags are enforced by the dispatcher
// before any handler runs.

type JoinChatPayload struct {
	ChatId uuid.UUID `json:"chatId" validate:"required"`
}

type SendMessagePayload struct {
	ChatId      uuid.UUID       `json:"chatId" validate:"required"`
	Content     string          `json:"content" validate:"required"`
	MessageType string          `json:"messageType" validate:"omitempty,oneof=text image video document file"`
	File        *model.FileMeta `json:"file,omitempty"`
}

type TypingPayload struct {
	ChatId uuid.UUID `json:"chatId" validate:"required"`
}

// CallerMeta rides along on initiate-call. The relay fills the outbound
// caller fields from the verified session, so these are advisory only.
type CallerMeta struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type InitiateCallPayload struct {
	TargetId   uuid.UUID       `json:"targetId" validate:"required"`
	Offer      json.RawMessage `json:"offer" validate:"required"`
	CallerMeta CallerMeta      `json:"callerMeta"`
}

type AcceptCallPayload struct {
	ToUserId uuid.UUID       `json:"toUserId" validate:"required"`
	Answer   json.RawMessage `json:"answer" validate:"required"`
	RoomId   string          `json:"roomId,omitempty"`
}

type IceCandidatePayload struct {
	TargetId  uuid.UUID       `json:"targetId" validate:"required"`
	Candidate json.RawMessage `json:"candidate" validate:"required"`
}

type RejectCallPayload struct {
	TargetId uuid.UUID  `json:"targetId" validate:"required"`
	CallId   *uuid.UUID `json:"callId,omitempty"`
}

type EndCallPayload struct {
	TargetId uuid.UUID `json:"targetId" validate:"required"`
}

type CallTimeoutPayload struct {
	TargetId uuid.UUID  `json:"targetId" validate:"required"`
	CallId   *uuid.UUID `json:"callId,omitempty"`
}

// Outbound payloads.

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

type PresencePayload struct {
	UserId uuid.UUID `json:"userId"`
}

type MessageNotificationPayload struct {
	ChatId       uuid.UUID `json:"chatId"`
	FromUser     uuid.UUID `json:"fromUser"`
	SenderName   string    `json:"senderName"`
	SenderAvatar string    `json:"senderAvatar,omitempty"`
	Message      string    `json:"message"`
	MessageType  string    `json:"messageType"`
	Timestamp    time.Time `json:"timestamp"`
}

type ChatUpdatedPayload struct {
	ChatId      uuid.UUID      `json:"chatId"`
	LastMessage *model.Message `json:"lastMessage"`
}

type TypingEventPayload struct {
	UserId   uuid.UUID `json:"userId"`
	UserName string    `json:"userName,omitempty"`
	ChatId   uuid.UUID `json:"chatId"`
}

type IncomingCallPayload struct {
	FromUserId   uuid.UUID       `json:"fromUserId"`
	Offer        json.RawMessage `json:"offer"`
	CallerName   string          `json:"callerName"`
	CallerEmail  string          `json:"callerEmail,omitempty"`
	CallerAvatar string          `json:"callerAvatar,omitempty"`
}

type CallAnsweredPayload struct {
	FromUserId uuid.UUID       `json:"fromUserId"`
	Answer     json.RawMessage `json:"answer"`
	RoomId     string          `json:"roomId,omitempty"`
}

type CallRejectedPayload struct {
	FromUserId uuid.UUID  `json:"fromUserId"`
	CallId     *uuid.UUID `json:"callId,omitempty"`
}

type CallEndedPayload struct {
	FromUserId uuid.UUID `json:"fromUserId"`
}

type CallTimeoutEventPayload struct {
	FromUserId uuid.UUID  `json:"fromUserId"`
	CallId     *uuid.UUID `json:"callId,omitempty"`
}

type IceCandidateEventPayload struct {
	FromUserId uuid.UUID       `json:"fromUserId"`
	Candidate  json.RawMessage `json:"candidate"`
}

type CallNoticePayload struct {
	Message string `json:"message"`
}

type CallWhileBusyPayload struct {
	FromUserId   uuid.UUID `json:"fromUserId"`
	CallerName   string    `json:"callerName"`
	CallerEmail  string    `json:"callerEmail,omitempty"`
	CallerAvatar string    `json:"callerAvatar,omitempty"`
}
