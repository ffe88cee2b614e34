package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"chatline-platform/internal/auth"
	"chatline-platform/internal/config"
	"chatline-platform/internal/message"
	"chatline-platform/internal/rbac"
)

// SessionAccess answers whether an account may join a session's room.
type SessionAccess interface {
	IsParticipant(ctx context.Context, sessionID, accountID string) (bool, error)
}

// MessageStore persists inbound text messages before they are broadcast.
type MessageStore interface {
	CreateText(ctx context.Context, req message.CreateTextRequest) (message.Message, error)
}

// PresenceStore tracks per-account connection counts and last-seen times.
type PresenceStore interface {
	Connect(ctx context.Context, userID string) (bool, error)
	Disconnect(ctx context.Context, userID string) (bool, error)
	Refresh(ctx context.Context, userID string) error
	Status(ctx context.Context, userID string) (bool, *time.Time, error)
}

type gatewayRecorder interface {
	RecordMessagePersisted(msgType string)
	SocketConnected()
	SocketDisconnected()
}

type nopGatewayRecorder struct{}

func (nopGatewayRecorder) RecordMessagePersisted(string) {}
func (nopGatewayRecorder) SocketConnected() {}
func (nopGatewayRecorder) SocketDisconnected() {}

// Gateway terminates websocket connections and routes chat events between
// clients, the message store, and the presence store.
type Gateway struct {
	hub      *Hub
	sessions SessionAccess
	messages MessageStore
	presence PresenceStore
	tokens   *auth.Manager

	logger  *slog.Logger
	metrics gatewayRecorder

	ratePerSec float64
	burst      int

	upgrader websocket.Upgrader
	clock    func() time.Time
}

func NewGateway(hub *Hub, sessions SessionAccess, messages MessageStore, presence PresenceStore, tokens *auth.Manager, cfg config.ChatConfig, logger *slog.Logger, metrics gatewayRecorder) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopGatewayRecorder{}
	}
	ratePerSec := cfg.MessageRatePerSec
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	burst := cfg.MessageBurst
	if burst <= 0 {
		burst = 10
	}
	return &Gateway{
		hub:        hub,
		sessions:   sessions,
		messages:   messages,
		presence:   presence,
		tokens:     tokens,
		logger:     logger,
		metrics:    metrics,
		ratePerSec: ratePerSec,
		burst:      burst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers cannot set Authorization headers on websocket
			// dials, so the token arrives in the query string and origin
			// checks are left to the edge proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clock: time.Now,
	}
}

// Handle upgrades an authenticated HTTP request to a websocket and runs the
// connection until it drops.
func (g *Gateway) Handle(c *gin.Context) {
	token := auth.BearerToken(c.Request)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := g.tokens.Verify(token, auth.TokenTypeAccess, g.clock())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		g.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	limiter := rate.NewLimiter(rate.Limit(g.ratePerSec), g.burst)
	client := newClient(g.hub, conn, claims.UserID, claims.Role, limiter, g.logger)
	g.hub.Register(client)
	g.metrics.SocketConnected()

	ctx := context.Background()
	cameOnline, err := g.presence.Connect(ctx, client.userID)
	if err != nil {
		g.logger.Error("presence connect failed", "user_id", client.userID, "error", err)
	} else if cameOnline {
		g.broadcastStatus(client.userID, true, nil)
	}

	go client.writePump()
	go client.readPump(ctx, g)
}

// disconnect tears the client down after its read pump exits.
func (g *Gateway) disconnect(ctx context.Context, c *Client) {
	g.hub.Unregister(c)
	g.metrics.SocketDisconnected()
	_ = c.conn.Close()

	wentOffline, err := g.presence.Disconnect(ctx, c.userID)
	if err != nil {
		g.logger.Error("presence disconnect failed", "user_id", c.userID, "error", err)
		return
	}
	if wentOffline {
		now := g.clock().UTC()
		g.broadcastStatus(c.userID, false, &now)
	}
}

// dispatch routes one inbound frame to its event handler.
func (g *Gateway) dispatch(ctx context.Context, c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply(encodeError("malformed frame"))
		return
	}

	switch env.Event {
	case EventJoinSession:
		g.handleJoin(ctx, c, env.Data)
	case EventSendMessage:
		g.handleSend(ctx, c, env.Data)
	case EventUserOnline:
		g.handleUserOnline(ctx, c, env.Data)
	default:
		c.reply(encodeError("unknown event: " + env.Event))
	}
}

// handleJoin admits the client to a session room after verifying it is one of
// the session's two participants. Admins may join any room.
func (g *Gateway) handleJoin(ctx context.Context, c *Client, data json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.SessionID == "" {
		c.reply(encodeError("joinSession requires session_id"))
		return
	}

	if !rbac.IsAdmin(c.role) {
		ok, err := g.sessions.IsParticipant(ctx, p.SessionID, c.userID)
		if err != nil {
			g.logger.Error("participant check failed", "session_id", p.SessionID, "error", err)
			c.reply(encodeError("could not join session"))
			return
		}
		if !ok {
			c.reply(encodeError("not a participant of this session"))
			return
		}
	}

	g.hub.JoinRoom(p.SessionID, c)
}

// handleSend persists a text message and echoes it to the session room. The
// sender receives the stored record through the same broadcast.
func (g *Gateway) handleSend(ctx context.Context, c *Client, data json.RawMessage) {
	if !c.limiter.Allow() {
		c.reply(encodeError("slow down"))
		return
	}

	var p SendPayload
	if err := json.Unmarshal(data, &p); err != nil {
		c.reply(encodeError("malformed sendMessage payload"))
		return
	}
	if c.room == "" || p.SessionID != c.room {
		c.reply(encodeError("join the session before sending"))
		return
	}

	m, err := g.messages.CreateText(ctx, message.CreateTextRequest{
		SessionID:  p.SessionID,
		SenderID:   c.userID,
		ReceiverID: p.ReceiverID,
		Body:       p.Body,
	})
	if err != nil {
		if errors.Is(err, message.ErrInvalidArgument) {
			c.reply(encodeError("empty or invalid message"))
			return
		}
		g.logger.Error("persist message failed", "session_id", p.SessionID, "error", err)
		c.reply(encodeError("could not send message"))
		return
	}
	g.metrics.RecordMessagePersisted(string(m.Type))

	frame, err := encodeMessage(m)
	if err != nil {
		g.logger.Error("encode message failed", "message_id", m.ID, "error", err)
		return
	}
	g.hub.Broadcast(p.SessionID, frame)
}

// handleUserOnline serves two shapes. A client naming itself (or sending no
// user_id) is re-announcing: its presence TTL refreshes and everyone hears a
// userStatusUpdate. Naming another account is a status query answered to the
// asking client alone.
func (g *Gateway) handleUserOnline(ctx context.Context, c *Client, data json.RawMessage) {
	var p UserOnlinePayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			c.reply(encodeError("malformed userOnline payload"))
			return
		}
	}

	if p.UserID == "" || p.UserID == c.userID {
		if err := g.presence.Refresh(ctx, c.userID); err != nil {
			g.logger.Error("presence refresh failed", "user_id", c.userID, "error", err)
		}
		g.broadcastStatus(c.userID, true, nil)
		return
	}

	online, lastSeen, err := g.presence.Status(ctx, p.UserID)
	if err != nil {
		g.logger.Error("presence status failed", "user_id", p.UserID, "error", err)
		c.reply(encodeError("could not fetch presence"))
		return
	}
	frame, err := encodeEvent(EventUserStatusUpdate, StatusUpdatePayload{
		UserID:   p.UserID,
		Online:   online,
		LastSeen: lastSeen,
	})
	if err != nil {
		return
	}
	c.reply(frame)
}

// BroadcastMessage pushes an already-persisted message into its session room.
// The voice upload endpoint delivers through here after storing the audio.
func (g *Gateway) BroadcastMessage(m message.Message) {
	frame, err := encodeMessage(m)
	if err != nil {
		g.logger.Error("encode message failed", "message_id", m.ID, "error", err)
		return
	}
	g.hub.Broadcast(m.SessionID, frame)
}

func (g *Gateway) broadcastStatus(userID string, online bool, lastSeen *time.Time) {
	frame, err := encodeEvent(EventUserStatusUpdate, StatusUpdatePayload{
		UserID:   userID,
		Online:   online,
		LastSeen: lastSeen,
	})
	if err != nil {
		return
	}
	g.hub.BroadcastAll(frame)
}
