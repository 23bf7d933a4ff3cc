package relay

import (
	"context"
	"encoding/json"
	"time"

	"matrimony-relay-be/internal/pkg/logger"
	"matrimony-relay-be/internal/repository/contract"

	"github.com/go-playground/validator/v10"
)

// Dispatcher is the single switch over the inbound event union. Every
// payload is decoded and validated here before its handler runs, so
// the handlers can assume well-formed input.
type Dispatcher struct {
	hub      *Hub
	chat     *ChatRelay
	typing   *TypingCoordinator
	calls    *CallSignaler
	users    contract.UserRepository
	validate *validator.Validate
	logger   logger.ILogger
}

func NewDispatcher(
	hub *Hub,
	chat *ChatRelay,
	typing *TypingCoordinator,
	calls *CallSignaler,
	users contract.UserRepository,
	log logger.ILogger,
) *Dispatcher {
	return &Dispatcher{
		hub:      hub,
		chat:     chat,
		typing:   typing,
		calls:    calls,
		users:    users,
		validate: validator.New(),
		logger:   log,
	}
}

// Dispatch routes one inbound frame. Malformed frames and unknown
// event names get an explicit error event instead of a silent drop.
func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		d.hub.SendToClient(c, EventError, ErrorPayload{Code: ErrCodeBadPayload, Message: "Malformed frame"})
		return
	}

	switch envelope.Event {
	case EventJoinChat:
		var p JoinChatPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.chat.JoinChat(ctx, c, p)

	case EventSendMessage:
		var p SendMessagePayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.chat.SendMessage(ctx, c, p)

	case EventTyping:
		var p TypingPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.typing.Relay(ctx, c, p, true)

	case EventStopTyping:
		var p TypingPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.typing.Relay(ctx, c, p, false)

	case EventInitiateCall:
		var p InitiateCallPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.calls.InitiateCall(ctx, c, p)

	case EventAcceptCall:
		var p AcceptCallPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.calls.AcceptCall(ctx, c, p)

	case EventRejectCall:
		var p RejectCallPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.calls.RejectCall(ctx, c, p)

	case EventEndCall:
		var p EndCallPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.calls.EndCall(ctx, c, p)

	case EventIceCandidate:
		var p IceCandidatePayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.calls.RelayIceCandidate(c, p)

	case EventCallTimeout:
		var p CallTimeoutPayload
		if !d.decode(c, envelope.Data, &p) {
			return
		}
		d.calls.Timeout(ctx, c, p)

	case EventHeartbeat:
		// No payload, no ack. Write volume is bounded by client-side
		// throttling, not here.
		if err := d.users.Touch(ctx, c.UserID, time.Now()); err != nil {
			d.logger.Warn("Dispatcher", "Heartbeat touch failed", map[string]interface{}{"user_id": c.UserID, "error": err.Error()})
		}

	default:
		d.hub.SendToClient(c, EventError, ErrorPayload{Code: ErrCodeUnknownEvent, Message: "Unknown event: " + envelope.Event})
	}
}

func (d *Dispatcher) decode(c *Client, data json.RawMessage, out interface{}) bool {
	if err := json.Unmarshal(data, out); err != nil {
		d.hub.SendToClient(c, EventError, ErrorPayload{Code: ErrCodeBadPayload, Message: "Malformed payload"})
		return false
	}
	if err := d.validate.Struct(out); err != nil {
		d.hub.SendToClient(c, EventError, ErrorPayload{Code: ErrCodeBadPayload, Message: "Invalid payload: " + err.Error()})
		return false
	}
	return true
}
