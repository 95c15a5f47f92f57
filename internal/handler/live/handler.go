// Package live tails a debate transcript to browsers over Server-Sent Events
// or a WebSocket.
package live

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
	debateService "github.com/zhouzirui/roundtable/backend/internal/service/debate"
	"github.com/zhouzirui/roundtable/backend/pkg/utils"
)

const defaultPollInterval = 200 * time.Millisecond

// Handler 实时对话记录推送处理器
type Handler struct {
	manager  *debateService.Manager
	logger   *zap.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// Option 配置处理器
type Option func(*Handler)

// WithPollInterval 设置对话记录的轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.interval = d
		}
	}
}

// New 创建实时推送处理器
func New(manager *debateService.Manager, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		manager:  manager,
		logger:   logger.With(zap.String("component", "live_handler")),
		interval: defaultPollInterval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes 注册SSE与WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
	r.Get("/ws", h.handleWebSocket)
}

// tail emits every transcript entry after cursor until the session stops
// running or ctx ends. It returns the final status of the session.
func (h *Handler) tail(ctx context.Context, session *debateService.Session, cursor int, emit func(model.TranscriptEntry) error) (debateService.Status, error) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		entries, running := session.TranscriptSince(cursor)
		for _, entry := range entries {
			if err := emit(entry); err != nil {
				return debateService.Status{}, err
			}
		}
		cursor += len(entries)

		if !running {
			return session.Status(), nil
		}

		select {
		case <-ctx.Done():
			return debateService.Status{}, ctx.Err()
		case <-session.Done():
		case <-ticker.C:
		}
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*debateService.Session, int, bool) {
	session, err := h.manager.Session(sessionIDFrom(r))
	if err != nil {
		if errors.Is(err, debateService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
		} else {
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, 0, false
	}

	cursor := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return nil, 0, false
		}
		cursor = n
	}
	return session, cursor, true
}

func sessionIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(chi.URLParam(r, "sessionID")); id != "" {
		return id
	}
	return debateService.DefaultSessionID
}
