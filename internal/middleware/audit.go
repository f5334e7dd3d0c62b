package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"
	"lms_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const auditWriteTimeout = 3 * time.Second

// Audit 记录管理端写操作，只记录成功(2xx)的请求。
// entityType 为审计对象类型，实体 ID 默认取路径参数 :id
func Audit(store repository.AuditStore, entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		entry := &model.AuditLog{
			Action:     c.Request.Method + " " + c.FullPath(),
			EntityType: entityType,
			EntityID:   c.Param("id"),
			IPAddress:  c.ClientIP(),
			StatusCode: status,
		}
		if id := c.GetString(AuditEntityIDKey); id != "" {
			entry.EntityID = id
		}
		if user := util.GetUserFromContext(c); user != nil {
			entry.UserID = user.UserID
		}
		if changes, ok := c.Get(AuditChangesKey); ok {
			if raw, err := json.Marshal(changes); err == nil {
				entry.Changes = datatypes.JSON(raw)
			}
		}

		// 请求 ctx 可能已被取消，审计写入使用独立的超时
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), auditWriteTimeout)
		defer cancel()
		if err := store.CreateAuditLog(ctx, entry); err != nil {
			logger.Log.Error("Write audit log failed", zap.String("action", entry.Action), zap.Error(err))
		}
	}
}

// 控制器通过这两个 key 把新建实体 ID 和变更内容交给审计记录
const (
	AuditEntityIDKey = "audit_entity_id"
	AuditChangesKey  = "audit_changes"
)
