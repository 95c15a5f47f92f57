package live

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 以WebSocket推送对话记录
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, cursor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	logger := h.logger.With(zap.String("session", session.ID()))
	logger.Info("websocket connected")

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.pingLoop(ctx, conn)
	go h.readLoop(cancel, conn, logger)

	send := func(msgType string, data interface{}) error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(outgoingMessage{
			Type:      msgType,
			SessionID: session.ID(),
			Data:      data,
			Timestamp: time.Now().Unix(),
		})
	}

	if err := send("status", session.Status()); err != nil {
		return
	}

	status, err := h.tail(ctx, session, cursor, func(entry model.TranscriptEntry) error {
		return send("entry", entry)
	})
	if err != nil {
		logger.Debug("websocket tail stopped", zap.Error(err))
		return
	}

	if err := send("end", status); err != nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "debate finished"),
		time.Now().Add(writeWait))
}

// readLoop 读取客户端消息，连接断开时取消推送
func (h *Handler) readLoop(cancel context.CancelFunc, conn *websocket.Conn, logger *zap.Logger) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
