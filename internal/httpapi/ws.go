package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/antoniostano/rin/internal/dialogue"
	"github.com/antoniostano/rin/internal/observability"
	"github.com/antoniostano/rin/internal/protocol"
	"github.com/antoniostano/rin/internal/session"
)

// eventHub fans system events out to every connected websocket. It doubles
// as the assistant's turn observer.
type eventHub struct {
	sessions *session.Manager
	metrics  *observability.Metrics

	mu   sync.Mutex
	subs map[chan any]struct{}
}

func newEventHub(sessions *session.Manager, metrics *observability.Metrics) *eventHub {
	return &eventHub{
		sessions: sessions,
		metrics:  metrics,
		subs:     make(map[chan any]struct{}),
	}
}

func (h *eventHub) subscribe(ch chan any) func() {
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// publish never blocks; a subscriber with a full queue misses the event.
func (h *eventHub) publish(msg protocol.SystemEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.metrics.WSMessages.WithLabelValues("dropped", string(msg.Type)).Inc()
		}
	}
}

func (h *eventHub) currentSessionID() string {
	sess, err := h.sessions.Current()
	if err != nil {
		return ""
	}
	return sess.ID
}

func (h *eventHub) GenerationStarted(turnID string) {
	h.publish(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: h.currentSessionID(),
		Code:      protocol.EventGenerationStarted,
		TurnID:    turnID,
	})
}

func (h *eventHub) ResponseReady(turnID string, reply dialogue.Reply) {
	h.publish(protocol.SystemEvent{
		Type:      protocol.TypeSystemEvent,
		SessionID: h.currentSessionID(),
		Code:      protocol.EventResponseReady,
		TurnID:    turnID,
		Detail:    string(reply.Route),
	})
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if s.assistant == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "assistant not configured")
		return
	}

	sess, err := s.sessions.Current()
	if err != nil || sess.ID != sessionID {
		respondSessionError(w, session.ErrNotFound)
		return
	}
	if sess.Status != session.StatusActive {
		respondSessionError(w, session.ErrEnded)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan any, 16)
	outbound := make(chan any, 256)
	unsubscribe := s.events.subscribe(outbound)
	defer unsubscribe()

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		s.runConnection(ctx, sessionID, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					s.logger.Debug("websocket write failed", zap.String("session_id", sessionID), zap.Error(err))
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
				if ev, ok := msg.(protocol.SystemEvent); ok && ev.Code == protocol.EventSessionEnded && ev.SessionID == sessionID {
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
						time.Now().Add(time.Second))
					cancel()
					_ = conn.Close()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			enqueue(ctx, outbound, protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Detail:    err.Error(),
			})
			continue
		}

		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- parsed:
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

// runConnection handles client messages for one websocket in arrival order.
func (s *Server) runConnection(ctx context.Context, sessionID string, inbound <-chan any, outbound chan<- any) {
	for msg := range inbound {
		switch m := msg.(type) {
		case protocol.ClientUtterance:
			if m.SessionID != sessionID {
				enqueue(ctx, outbound, sessionMismatch(sessionID))
				continue
			}
			_, reply, err := s.runTurn(ctx, sessionID, m.Text)
			if err != nil {
				enqueue(ctx, outbound, sessionErrorEvent(sessionID, err))
				continue
			}
			enqueue(ctx, outbound, protocol.AssistantReply{
				Type:      protocol.TypeAssistantReply,
				SessionID: sessionID,
				TurnID:    reply.TurnID,
				Text:      reply.Text,
				Route:     string(reply.Route),
				Kind:      reply.Kind,
				Ended:     reply.Ended,
			})
			s.finishTurn(sessionID, reply)
		case protocol.ClientControl:
			if m.SessionID != sessionID {
				enqueue(ctx, outbound, sessionMismatch(sessionID))
				continue
			}
			switch m.Action {
			case protocol.ActionEnd:
				if _, err := s.sessions.End(sessionID, session.ReasonExplicit); err != nil {
					enqueue(ctx, outbound, sessionErrorEvent(sessionID, err))
				}
			case protocol.ActionReset:
				s.assistant.Reset(ctx)
				s.metrics.SessionEvents.WithLabelValues("reset").Inc()
				enqueue(ctx, outbound, protocol.SystemEvent{
					Type:      protocol.TypeSystemEvent,
					SessionID: sessionID,
					Code:      protocol.EventConversationReset,
				})
			}
		}
	}
}

func enqueue(ctx context.Context, outbound chan<- any, msg any) {
	select {
	case <-ctx.Done():
	case outbound <- msg:
	}
}

func sessionMismatch(sessionID string) protocol.ErrorEvent {
	return protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      "session_mismatch",
		Source:    "gateway",
		Detail:    "message session_id does not match the connection",
	}
}

func sessionErrorEvent(sessionID string, err error) protocol.ErrorEvent {
	code := "internal"
	switch {
	case errors.Is(err, session.ErrNotFound):
		code = "session_not_found"
	case errors.Is(err, session.ErrEnded):
		code = "session_ended"
	}
	return protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      code,
		Source:    "session",
		Detail:    err.Error(),
	}
}
