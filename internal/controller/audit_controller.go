package controller

import (
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuditController struct {
	Store repository.AuditStore
}

func NewAuditController(store repository.AuditStore) *AuditController {
	return &AuditController{Store: store}
}

// @Summary 审计日志
// @Tags 系统
// @Produce json
// @Security BearerAuth
// @Param entityType query string true "实体类型" Enums(enrollment, quiz, course)
// @Param entityId query string true "实体ID"
// @Success 200 {object} util.Response{data=[]model.AuditLog}
// @Router /audit-logs [get]
func (c *AuditController) ListAuditLogs(ctx *gin.Context) {
	entityType, entityID := ctx.Query("entityType"), ctx.Query("entityId")
	if entityType == "" || entityID == "" {
		util.BadRequest(ctx, "entityType and entityId are required")
		return
	}
	logs, err := c.Store.ListByEntity(ctx.Request.Context(), entityType, entityID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, logs)
}
