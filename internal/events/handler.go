package events

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/boxdrop/service/internal/middleware"
	"github.com/boxdrop/service/internal/response"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// clients only send control frames
	maxMessageSize = 512
)

// SnapshotFunc returns the full state sent when a dashboard connects.
type SnapshotFunc func(ctx context.Context, ownerID string) (interface{}, error)

// Handler streams an owner's collection events over a websocket.
type Handler struct {
	broker   Broker
	snapshot SnapshotFunc
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler creates a Handler accepting connections from allowedOrigin.
func NewHandler(broker Broker, snapshot SnapshotFunc, allowedOrigin string, log *zap.Logger) *Handler {
	return &Handler{
		broker:   broker,
		snapshot: snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
		log: log,
	}
}

// Stream godoc
//
//	@Summary		Collection change feed
//	@Description	Websocket. The first message is a snapshot of all collections; change events follow. The session token may be passed as access_token.
//	@Tags			collections
//	@Security		BearerAuth
//	@Param			access_token	query	string	false	"Session token for browsers"
//	@Success		101
//	@Failure		401	{object}	response.Envelope
//	@Router			/collections/events [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// subscribe before reading the snapshot so no change falls in between
	events, unsubscribe, err := h.broker.Subscribe(ctx, ownerID)
	if err != nil {
		h.log.Error("subscribe to collection events", zap.String("owner_id", ownerID), zap.Error(err))
		response.InternalError(w)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("owner_id", ownerID), zap.Error(err))
		return
	}
	defer conn.Close()

	state, err := h.snapshot(ctx, ownerID)
	if err != nil {
		h.log.Error("load snapshot", zap.String("owner_id", ownerID), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"),
			time.Now().Add(writeWait))
		return
	}
	snap, err := New(Snapshot, ownerID, "", state)
	if err != nil {
		h.log.Error("encode snapshot", zap.Error(err))
		return
	}
	if err := writeEvent(conn, snap); err != nil {
		return
	}

	go h.readPump(conn, cancel, ownerID)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			if err := writeEvent(conn, e); err != nil {
				h.log.Debug("write event", zap.String("owner_id", ownerID), zap.Error(err))
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

// readPump drains client frames so pongs and close frames are processed,
// and cancels the stream when the connection ends.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc, ownerID string) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.String("owner_id", ownerID), zap.Error(err))
			}
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, e Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(e)
}
