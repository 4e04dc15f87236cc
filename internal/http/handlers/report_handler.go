package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/spaces-backend/internal/http/handlers/common"
	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/service"
)

// ReportHandler — приём жалоб и их административный жизненный цикл.
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler создаёт новый хэндлер.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Submit обрабатывает POST /reports.
func (h *ReportHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Type         string  `json:"type" binding:"required"`
		TargetUserID string  `json:"targetUserId" binding:"required,uuid"`
		TargetPostID *string `json:"targetPostId"`
		Reason       string  `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	targetUserID, _ := uuid.Parse(req.TargetUserID)
	report, err := h.svc.Submit(c.Request.Context(), userID, service.SubmitReportInput{
		Type:         models.ReportType(req.Type),
		TargetUserID: targetUserID,
		TargetPostID: req.TargetPostID,
		Reason:       req.Reason,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListPending обрабатывает GET /moderation/reports — необработанные жалобы,
// свежие первыми.
func (h *ReportHandler) ListPending(c *gin.Context) {
	reports, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Dismiss обрабатывает POST /moderation/reports/:id/dismiss.
// На терминальной жалобе — тихий no-op.
func (h *ReportHandler) Dismiss(c *gin.Context) {
	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.Dismiss(c.Request.Context(), reportID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove обрабатывает POST /moderation/reports/:id/remove.
func (h *ReportHandler) Remove(c *gin.Context) {
	reportID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.svc.Remove(c.Request.Context(), reportID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemovedPosts обрабатывает GET /moderation/removed-posts — полный набор
// скрытых постов. Его читает каждая контентная поверхность перед рендером.
func (h *ReportHandler) RemovedPosts(c *gin.Context) {
	ids, err := h.svc.RemovedIDs(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"postIds": ids})
}

// Invalidate обрабатывает POST /moderation/reports/invalidate — сброс
// локального кэша очереди жалоб в embedded-режиме.
func (h *ReportHandler) Invalidate(c *gin.Context) {
	h.svc.Invalidate()
	c.Status(http.StatusNoContent)
}
