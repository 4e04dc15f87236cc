package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/spaces-backend/internal/http/handlers/common"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/service"
)

// ModerationHandler — админская поверхность очереди модерации
// и приёмная точка внешнего сканера.
type ModerationHandler struct {
	svc *service.ModerationService
}

// NewModerationHandler создаёт новый хэндлер.
func NewModerationHandler(svc *service.ModerationService) *ModerationHandler {
	return &ModerationHandler{svc: svc}
}

// ListQueue обрабатывает GET /moderation/queue.
func (h *ModerationHandler) ListQueue(c *gin.Context) {
	limit := common.GetLimit(c, 50, 200)

	items, err := h.svc.ListQueue(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	out := make([]gin.H, 0, len(items))
	for i := range items {
		out = append(out, gin.H{
			"entry": items[i].Entry,
			"media": mediaResponse(&items[i].Media),
		})
	}
	c.JSON(http.StatusOK, out)
}

// Approve обрабатывает POST /moderation/media/:id/approve.
func (h *ModerationHandler) Approve(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.Approve(c.Request.Context(), mediaID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reject обрабатывает POST /moderation/media/:id/reject.
func (h *ModerationHandler) Reject(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.Reject(c.Request.Context(), mediaID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BanOwner обрабатывает POST /moderation/users/:id/ban.
func (h *ModerationHandler) BanOwner(c *gin.Context) {
	ownerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.BanOwner(c.Request.Context(), ownerID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyScanResult обрабатывает POST /moderation/media/:id/scan —
// write-поверхность внешнего автоматического сканера.
func (h *ModerationHandler) ApplyScanResult(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Provider string   `json:"provider" binding:"required"`
		Score    float64  `json:"score"`
		Flags    []string `json:"flags"`
		Verdict  string   `json:"verdict" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result := service.ScanResult{
		Provider: req.Provider,
		Score:    req.Score,
		Flags:    req.Flags,
		Verdict:  models.MediaStatus(req.Verdict),
	}
	if err := h.svc.ApplyScanResult(c.Request.Context(), mediaID, result); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dequeue обрабатывает DELETE /moderation/queue/:id. Идемпотентно.
func (h *ModerationHandler) Dequeue(c *gin.Context) {
	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.DequeueReview(c.Request.Context(), mediaID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
