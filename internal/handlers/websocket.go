package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chetan5734v/freelancer/internal/api/middleware"
	"github.com/chetan5734v/freelancer/internal/metrics"
	"github.com/chetan5734v/freelancer/internal/models"
	"github.com/chetan5734v/freelancer/internal/ws"
)

const (
	// maxFrameSize caps inbound websocket frames.
	maxFrameSize = 8 * 1024
	// pongWait is how long a silent connection is kept before it is
	// considered dead; pings go out at a third of it.
	pongWait     = 60 * time.Second
	pingInterval = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin enforcement happens in the CORS layer; tokens, not
	// origins, authenticate the socket.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// sendMessagePayload is the client's sendMessage event body.
type sendMessagePayload struct {
	RoomID  string         `json:"roomId"`
	Message models.Message `json:"message"`
}

// WebSocket upgrades the connection and runs the read loop for one
// session. The route sits behind RequireAuth, which also accepts the
// token as a query parameter for clients that cannot set headers on the
// upgrade request.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsername(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Warn().Err(err).Str("username", username).Msg("websocket upgrade failed")
		return
	}

	sess := ws.NewSession(uuid.NewString(), username, conn)
	h.hub.Register(sess)
	metrics.WebsocketConnections.Inc()
	h.logger.Info().Str("session", sess.ID).Str("username", username).Msg("websocket connected")

	go sess.WritePump()
	go pingLoop(conn)

	defer func() {
		h.hub.Disconnect(sess)
		metrics.WebsocketConnections.Dec()
		h.logger.Info().Str("session", sess.ID).Str("username", username).Msg("websocket disconnected")
	}()

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			sess.Send(ws.EventMessageError, "invalid event frame")
			continue
		}
		h.dispatch(r, sess, env)
	}
}

// dispatch routes one inbound event to the hub or the relay.
func (h *Handler) dispatch(r *http.Request, sess *ws.Session, env ws.Envelope) {
	switch env.Event {
	case ws.EventJoinRoom:
		var p ws.RoomPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			sess.Send(ws.EventMessageError, "joinRoom requires a roomId")
			return
		}
		h.hub.Join(sess, p.RoomID)

	case ws.EventSendMessage:
		var p sendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			sess.Send(ws.EventMessageError, "sendMessage requires a roomId and message")
			return
		}
		p.Message.Text = sanitizeText(p.Message.Text, maxMessageLength)
		if p.Message.Text == "" {
			sess.Send(ws.EventMessageError, "message text is required")
			return
		}
		// Sender identity always comes from the session, not the payload.
		p.Message.Sender = sess.Username
		if err := h.relay.HandleMessage(r.Context(), sess, p.RoomID, p.Message); err != nil {
			h.logger.Debug().Err(err).Str("room", p.RoomID).Str("username", sess.Username).Msg("message rejected")
		}

	case ws.EventTyping:
		var p ws.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		h.hub.BroadcastRoomExcept(p.RoomID, sess, ws.EventUserTyping, ws.TypingEvent{Sender: sess.Username})

	case ws.EventStopTyping:
		var p ws.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.RoomID == "" {
			return
		}
		h.hub.BroadcastRoomExcept(p.RoomID, sess, ws.EventUserStoppedTyping, ws.TypingEvent{Sender: sess.Username})

	default:
		sess.Send(ws.EventMessageError, "unknown event: "+env.Event)
	}
}

// pingLoop keeps the connection alive until the first failed ping.
// Control frames may be written concurrently with WritePump's data
// frames.
func pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return
		}
	}
}
