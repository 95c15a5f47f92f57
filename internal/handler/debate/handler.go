package debate

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
	debateService "github.com/zhouzirui/roundtable/backend/internal/service/debate"
	"github.com/zhouzirui/roundtable/backend/pkg/utils"
)

// Handler 辩论会话的HTTP处理器
type Handler struct {
	manager *debateService.Manager
	logger  *zap.Logger
}

// New 创建辩论处理器
func New(manager *debateService.Manager, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		manager: manager,
		logger:  logger.With(zap.String("component", "debate_handler")),
	}
}

// RegisterRoutes 注册会话管理路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSessions)
	r.Post("/sessions", h.handleCreateSession)
}

// RegisterSessionRoutes 注册单个会话的路由。挂在 /api 下时作用于 default 会话，
// 挂在 /api/sessions/{sessionID} 下时作用于指定会话。
func (h *Handler) RegisterSessionRoutes(r chi.Router) {
	r.Post("/deck", h.handleDeck)
	r.Post("/puzzle", h.handleStart(false))
	r.Post("/puzzle/local", h.handleStart(true))
	r.Get("/sync", h.handleSync)
	r.Get("/status", h.handleStatus)
	r.Post("/reset", h.handleReset)
	r.Get("/transcript", h.handleTranscript)
}

// RegisterSessionAdmin 注册 /api/sessions/{sessionID} 本身的查询与删除
func (h *Handler) RegisterSessionAdmin(r chi.Router) {
	r.Get("/", h.handleStatus)
	r.Delete("/", h.handleDeleteSession)
}

// StatusResponse 会话状态
type StatusResponse struct {
	SessionID       string              `json:"sessionId"`
	Debating        bool                `json:"debating"`
	State           debateService.State `json:"state"`
	Round           int                 `json:"round"`
	MaxRounds       int                 `json:"maxRounds"`
	CardsConfigured int                 `json:"cardsConfigured"`
	Turns           int                 `json:"turns"`
	Queued          int                 `json:"queued"`
	Puzzle          *string             `json:"puzzle"`
	GatewayURL      string              `json:"gatewayUrl"`
	Cards           []model.Participant `json:"cards,omitempty"`
}

// SyncResponse 轮询结果，队列为空时各字段为空字符串
type SyncResponse struct {
	Text     string `json:"text"`
	Colour   string `json:"colour"`
	Role     string `json:"role"`
	Model    string `json:"model"`
	Debating bool   `json:"debating"`
}

// handleDeck 配置参与者卡牌
func (h *Handler) handleDeck(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Agents *[]model.Participant `json:"agents"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Agents == nil {
		utils.RespondError(w, http.StatusBadRequest, "missing field: agents")
		return
	}

	sessionID := sessionIDFrom(r)
	if err := h.manager.Configure(sessionID, *payload.Agents); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.logger.Info("deck configured",
		zap.String("session", sessionID),
		zap.Int("cards", len(*payload.Agents)),
	)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "configured",
		"cards":  len(*payload.Agents),
	})
}

// handleStart 启动辩论，local 为 true 时跳过远程网关
func (h *Handler) handleStart(local bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Puzzle *string `json:"puzzle"`
		}

		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if payload.Puzzle == nil {
			utils.RespondError(w, http.StatusBadRequest, "missing puzzle field")
			return
		}

		sessionID := sessionIDFrom(r)
		if err := h.manager.Start(sessionID, *payload.Puzzle, debateService.StartOptions{Local: local}); err != nil {
			h.respondServiceError(w, err)
			return
		}

		h.logger.Info("debate started",
			zap.String("session", sessionID),
			zap.Bool("local", local),
		)
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":    "started",
			"sessionId": sessionID,
		})
	}
}

// handleSync 非阻塞地取出一条结果
func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	entry, _ := session.Poll()
	utils.RespondJSON(w, http.StatusOK, SyncResponse{
		Text:     entry.Message,
		Colour:   entry.Colour,
		Role:     string(entry.Role),
		Model:    entry.Model,
		Debating: entry.Debating,
	})
}

// handleStatus 返回会话状态
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.status(session))
}

// handleReset 清空队列与配置
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := session.Reset(); err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleTranscript 返回当前对话记录的快照，不消费结果队列
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	entries, running := session.TranscriptSince(0)
	if entries == nil {
		entries = []model.TranscriptEntry{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": session.ID(),
		"debating":  running,
		"entries":   entries,
	})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": h.manager.Sessions()})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.manager.CreateSession()
	utils.RespondJSON(w, http.StatusCreated, map[string]string{"id": session.ID()})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.DeleteSession(sessionIDFrom(r)); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*debateService.Session, bool) {
	session, err := h.manager.Session(sessionIDFrom(r))
	if err != nil {
		h.respondServiceError(w, err)
		return nil, false
	}
	return session, true
}

func (h *Handler) status(session *debateService.Session) StatusResponse {
	st := session.Status()
	return StatusResponse{
		SessionID:       st.SessionID,
		Debating:        st.Debating,
		State:           st.State,
		Round:           st.Round,
		MaxRounds:       h.manager.MaxRounds(),
		CardsConfigured: st.CardsConfigured,
		Turns:           st.Turns,
		Queued:          st.Queued,
		Puzzle:          st.Puzzle,
		GatewayURL:      h.manager.GatewayURL(),
		Cards:           session.Cards(),
	}
}

// respondServiceError 把服务层错误映射为HTTP状态码
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	utils.RespondError(w, status, err.Error())
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, debateService.ErrSessionNotFound):
		return http.StatusNotFound
	case debateService.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, debateService.ErrNoBackend):
		return http.StatusServiceUnavailable
	case debateService.IsConfiguration(err), errors.Is(err, debateService.ErrDefaultSession):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func sessionIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(chi.URLParam(r, "sessionID")); id != "" {
		return id
	}
	return debateService.DefaultSessionID
}
