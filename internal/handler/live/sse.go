package live

import (
	"net/http"

	"go.uber.org/zap"

	model "github.com/zhouzirui/roundtable/backend/internal/model/debate"
	"github.com/zhouzirui/roundtable/backend/pkg/utils"
)

// handleStream 以SSE推送对话记录，辩论结束后发送 end 事件
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	session, cursor, ok := h.lookup(w, r)
	if !ok {
		return
	}

	utils.SetupSSEHeaders(w)
	if err := utils.SendSSEEvent(w, flusher, "status", session.Status()); err != nil {
		return
	}

	status, err := h.tail(r.Context(), session, cursor, func(entry model.TranscriptEntry) error {
		return utils.SendSSEEvent(w, flusher, "entry", entry)
	})
	if err != nil {
		h.logger.Debug("sse client went away", zap.String("session", session.ID()), zap.Error(err))
		return
	}

	if err := utils.SendSSEEvent(w, flusher, "end", status); err != nil {
		h.logger.Debug("failed to send end event", zap.Error(err))
	}
}
