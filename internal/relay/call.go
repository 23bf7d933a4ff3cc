package relay

import (
	"context"
	"sync"
	"time"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/internal/pkg/logger"
	"matrimony-relay-be/internal/repository/contract"
	"matrimony-relay-be/pkg/events"

	"github.com/google/uuid"
)

// EventPublisher is the internal bus leg; implementations must not
// block the relay path.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// CallSignaler relays WebRTC signaling between exactly two users and
// owns the busy table, a map from each in-call identity to its peer.
// Busy-table mutations are synchronous, under the mutex, before any
// persistence call; two racing disconnects must not interleave around
// an await point.
//
// Invariant: a user identity holds at most one busy entry, and after
// any terminal transition (end, reject, timeout, disconnect) no entry
// references either former participant.
type CallSignaler struct {
	mu   sync.Mutex
	busy map[uuid.UUID]uuid.UUID

	hub       *Hub
	calls     contract.CallRepository
	publisher EventPublisher
	logger    logger.ILogger
}

func NewCallSignaler(hub *Hub, calls contract.CallRepository, publisher EventPublisher, log logger.ILogger) *CallSignaler {
	return &CallSignaler{
		busy:      make(map[uuid.UUID]uuid.UUID),
		hub:       hub,
		calls:     calls,
		publisher: publisher,
		logger:    log,
	}
}

// busyPeer reports the counterpart of an in-call user.
func (s *CallSignaler) busyPeer(userId uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	peer, ok := s.busy[userId]
	s.mu.Unlock()
	return peer, ok
}

// InitiateCall forwards an SDP offer to the target. Offline target:
// userUnavailable to the caller only. Busy target: userBusy to the
// caller and incomingCallWhileBusy to the target — the target-side
// notice is observed production behavior and is kept as is.
func (s *CallSignaler) InitiateCall(ctx context.Context, from *Client, p InitiateCallPayload) {
	target, online := s.hub.Resolve(p.TargetId)
	if !online {
		s.hub.SendToClient(from, EventUserUnavailable, CallNoticePayload{Message: "User is offline."})
		return
	}

	s.mu.Lock()
	_, targetBusy := s.busy[p.TargetId]
	s.mu.Unlock()

	if targetBusy {
		s.hub.SendToClient(from, EventUserBusy, CallNoticePayload{Message: "User is currently in another call."})
		s.hub.SendToClient(target, EventCallWhileBusy, CallWhileBusyPayload{
			FromUserId:   from.UserID,
			CallerName:   from.UserName,
			CallerEmail:  from.Email,
			CallerAvatar: from.Avatar,
		})
		return
	}

	// Caller identity comes from the verified session, not the payload.
	s.hub.SendToClient(target, EventIncomingCall, IncomingCallPayload{
		FromUserId:   from.UserID,
		Offer:        p.Offer,
		CallerName:   from.UserName,
		CallerEmail:  from.Email,
		CallerAvatar: from.Avatar,
	})
}

// AcceptCall is the single canonical accept path: relay the answer to
// the caller and book both sides in the busy table. Acceptance is
// refused when either side is already in another call, which keeps the
// one-entry-per-user invariant.
func (s *CallSignaler) AcceptCall(ctx context.Context, from *Client, p AcceptCallPayload) {
	caller, online := s.hub.Resolve(p.ToUserId)
	if !online {
		s.hub.SendToClient(from, EventUserUnavailable, CallNoticePayload{Message: "Caller is no longer online."})
		return
	}

	s.mu.Lock()
	if peer, ok := s.busy[from.UserID]; ok && peer != p.ToUserId {
		s.mu.Unlock()
		s.hub.SendToClient(from, EventUserBusy, CallNoticePayload{Message: "You are already in another call."})
		return
	}
	if peer, ok := s.busy[p.ToUserId]; ok && peer != from.UserID {
		s.mu.Unlock()
		s.hub.SendToClient(from, EventUserBusy, CallNoticePayload{Message: "Caller is already in another call."})
		return
	}
	s.busy[from.UserID] = p.ToUserId
	s.busy[p.ToUserId] = from.UserID
	s.mu.Unlock()

	s.hub.SendToClient(caller, EventCallAnswered, CallAnsweredPayload{
		FromUserId: from.UserID,
		Answer:     p.Answer,
		RoomId:     p.RoomId,
	})

	if p.RoomId != "" {
		if err := s.calls.UpdateStatusByRoomId(ctx, p.RoomId, model.CallStatusCompleted); err != nil {
			s.logger.Error("CallSignaler", "Failed to persist call completion", map[string]interface{}{"room_id": p.RoomId, "error": err.Error()})
		}
		s.publishEvent(ctx, events.TypeCallCompleted, map[string]interface{}{
			"caller_id": p.ToUserId.String(),
			"callee_id": from.UserID.String(),
			"room_id":   p.RoomId,
		})
	}
}

// RelayIceCandidate is an exact pass-through: the candidate payload is
// forwarded byte-identical, and silently dropped when the target is
// offline. ICE is real-time-only; there is no buffering.
func (s *CallSignaler) RelayIceCandidate(from *Client, p IceCandidatePayload) {
	target, online := s.hub.Resolve(p.TargetId)
	if !online {
		return
	}
	s.hub.SendToClient(target, EventIceCandidate, IceCandidateEventPayload{
		FromUserId: from.UserID,
		Candidate:  p.Candidate,
	})
}

// RejectCall relays the rejection and persists the terminal status.
func (s *CallSignaler) RejectCall(ctx context.Context, from *Client, p RejectCallPayload) {
	s.clearPair(from.UserID, p.TargetId)

	if target, online := s.hub.Resolve(p.TargetId); online {
		s.hub.SendToClient(target, EventCallRejected, CallRejectedPayload{
			FromUserId: from.UserID,
			CallId:     p.CallId,
		})
	}

	if p.CallId != nil {
		if err := s.calls.UpdateStatusById(ctx, *p.CallId, model.CallStatusRejected); err != nil {
			s.logger.Error("CallSignaler", "Failed to persist call rejection", map[string]interface{}{"call_id": p.CallId, "error": err.Error()})
		}
	}
	s.publishEvent(ctx, events.TypeCallRejected, map[string]interface{}{
		"from_id": from.UserID.String(),
		"to_id":   p.TargetId.String(),
	})
}

// EndCall relays the end event and clears both busy entries regardless
// of which side hangs up.
func (s *CallSignaler) EndCall(ctx context.Context, from *Client, p EndCallPayload) {
	s.clearPair(from.UserID, p.TargetId)

	if target, online := s.hub.Resolve(p.TargetId); online {
		s.hub.SendToClient(target, EventCallEnded, CallEndedPayload{FromUserId: from.UserID})
	}
}

// Timeout relays the timeout, persists the call as missed, and clears
// busy state exactly like EndCall.
func (s *CallSignaler) Timeout(ctx context.Context, from *Client, p CallTimeoutPayload) {
	s.clearPair(from.UserID, p.TargetId)

	if target, online := s.hub.Resolve(p.TargetId); online {
		s.hub.SendToClient(target, EventCallTimeout, CallTimeoutEventPayload{
			FromUserId: from.UserID,
			CallId:     p.CallId,
		})
	}

	if p.CallId != nil {
		if err := s.calls.UpdateStatusById(ctx, *p.CallId, model.CallStatusMissed); err != nil {
			s.logger.Error("CallSignaler", "Failed to persist missed call", map[string]interface{}{"call_id": p.CallId, "error": err.Error()})
		}
	}
	s.publishEvent(ctx, events.TypeCallMissed, map[string]interface{}{
		"from_id": from.UserID.String(),
		"to_id":   p.TargetId.String(),
	})
}

// ReleaseUser clears both directions of any busy entry referencing the
// identity. Runs on disconnect; this is what force-frees a counterpart
// whose peer crashed without sending end-call.
func (s *CallSignaler) ReleaseUser(userId uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	peer, had := s.busy[userId]
	if had {
		delete(s.busy, userId)
		if reverse, ok := s.busy[peer]; ok && reverse == userId {
			delete(s.busy, peer)
		}
	}
	s.mu.Unlock()
	return peer, had
}

func (s *CallSignaler) clearPair(a, b uuid.UUID) {
	s.mu.Lock()
	if peer, ok := s.busy[a]; ok && peer == b {
		delete(s.busy, a)
	}
	if peer, ok := s.busy[b]; ok && peer == a {
		delete(s.busy, b)
	}
	s.mu.Unlock()
}

func (s *CallSignaler) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("CallSignaler", "Failed to publish relay event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
