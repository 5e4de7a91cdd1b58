package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"trivia-session-service/internal/app"
	"trivia-session-service/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	outboxSize     = 64
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	logger   *slog.Logger
	limit    rate.Limit
	burst    int
}

func NewWSHandler(service *app.GameService, logger *slog.Logger, limit rate.Limit, burst int) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		limit:   limit,
		burst:   burst,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// session is the per-connection context: the client handle plus the room it is bound to.
type session struct {
	client *app.Client
	room   string
}

// ServeWS upgrades HTTP requests to websockets and wires them into the room use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	sess := &session{client: app.NewClient(uuid.NewString(), outboxSize)}
	log := h.logger.With("conn", sess.client.ID)
	log.Debug("ws connected", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, sess.client, log)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := r.Context()
	limiter := rate.NewLimiter(h.limit, h.burst)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			sess.client.Deliver(domain.NewErrorMessage("too many messages"))
			continue
		}
		cmd, err := parseCommand(data)
		if err != nil {
			sess.client.Deliver(domain.NewErrorMessage(err.Error()))
			continue
		}
		if err := h.dispatch(ctx, sess, cmd); err != nil {
			log.Debug("command rejected", "type", cmd.commandType(), "room", sess.room, "err", err)
			sess.client.Deliver(domain.NewErrorMessage(err.Error()))
		}
	}

	h.service.Disconnect(ctx, sess.client, sess.room)
	sess.client.Close()
	<-writerDone
	log.Debug("ws disconnected", "room", sess.room)
}

// writeLoop is the only writer of conn. It exits when the outbox is closed (connection
// finished or dropped as too slow) or a write fails, and closes conn to stop the reader.
func (h *WSHandler) writeLoop(conn *websocket.Conn, client *app.Client, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Outbox():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write error", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(ctx context.Context, sess *session, cmd command) error {
	switch c := cmd.(type) {
	case createRoomCommand:
		code, err := h.service.CreateRoom(ctx, sess.client, c.PreferredCode, c.Rounds, domain.ParseFilterMode(c.TaskFilterMode))
		if err != nil {
			return err
		}
		h.bind(ctx, sess, code)
	case attachCommand:
		if err := h.service.AttachAdmin(ctx, sess.client, c.RoomCode); err != nil {
			return err
		}
		h.bind(ctx, sess, c.RoomCode)
	case joinCommand:
		if _, err := h.service.Join(ctx, sess.client, c.RoomCode, c.PlayerName); err != nil {
			return err
		}
		h.bind(ctx, sess, c.RoomCode)
	case startCommand:
		return h.service.Start(ctx, sess.client, c.RoomCode)
	case answerCommand:
		return h.service.SubmitAnswer(ctx, c.RoomCode, c.PlayerID, c.Text, c.Choice)
	case endCommand:
		return h.service.End(ctx, sess.client, c.RoomCode)
	}
	return nil
}

// bind moves the connection to code, leaving the room it was attached to before.
func (h *WSHandler) bind(ctx context.Context, sess *session, code string) {
	if sess.room != "" && sess.room != code {
		h.service.Disconnect(ctx, sess.client, sess.room)
	}
	sess.room = code
}
