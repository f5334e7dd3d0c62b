package controller

import (
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// EnrollmentGuard 非管理员只能访问自己的选课数据
type EnrollmentGuard struct {
	Enrollments repository.EnrollmentStore
}

// Allow 校验失败时已写好响应，调用方直接返回
func (g EnrollmentGuard) Allow(ctx *gin.Context, enrollmentID string) bool {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return false
	}
	if user.IsAdmin() {
		return true
	}
	e, err := g.Enrollments.GetEnrollment(ctx.Request.Context(), enrollmentID)
	if err != nil {
		util.HandleError(ctx, err)
		return false
	}
	if e.UserID != user.UserID {
		util.Forbidden(ctx)
		return false
	}
	return true
}
