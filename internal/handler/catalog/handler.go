package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/roundtable/backend/internal/model/catalog"
	"github.com/zhouzirui/roundtable/backend/internal/model/debate"
	"github.com/zhouzirui/roundtable/backend/pkg/utils"
)

// Handler 卡牌目录的HTTP处理器
type Handler struct {
	store catalog.Store
}

// New 创建目录处理器
func New(store catalog.Store) *Handler {
	return &Handler{
		store: store,
	}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/catalog", h.handleGetCatalog)
}

// roleView 角色及其展示颜色
type roleView struct {
	Role         debate.Role `json:"role"`
	Label        string      `json:"label"`
	Colour       string      `json:"colour"`
	Instructions string      `json:"instructions"`
}

// handleGetCatalog 返回可选的模型、专长、性格与角色
func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	c := h.store.Get()

	roles := make([]roleView, 0, len(c.Roles))
	for _, spec := range c.Roles {
		roles = append(roles, roleView{
			Role:         spec.Role,
			Label:        spec.Role.Label(),
			Colour:       spec.Role.Colour(),
			Instructions: spec.Instructions,
		})
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"models":        c.Models,
		"expertises":    c.Expertises,
		"personalities": c.Personalities,
		"roles":         roles,
	})
}
