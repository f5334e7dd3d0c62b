package controller

import (
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
	ProgressService   *service.ProgressService
	Guard             EnrollmentGuard
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService, progressService *service.ProgressService, guard EnrollmentGuard) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService, ProgressService: progressService, Guard: guard}
}

// @Summary 选课
// @Tags 选课管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.EnrollRequest true "选课信息"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 400 {object} util.Response "重复选课或课程未发布"
// @Router /enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req service.EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	e, err := c.EnrollmentService.Enroll(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, e.ID)
	ctx.Set(middleware.AuditChangesKey, req)
	util.Created(ctx, e)
}

// @Summary 批量选课
// @Tags 选课管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.BulkEnrollRequest true "课程与用户列表"
// @Success 201 {object} util.Response{data=service.BulkEnrollResult}
// @Router /enrollments/bulk [post]
func (c *EnrollmentController) BulkEnroll(ctx *gin.Context) {
	var req service.BulkEnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result, err := c.EnrollmentService.BulkEnroll(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, req.CourseID)
	ctx.Set(middleware.AuditChangesKey, gin.H{"created": len(result.Created), "failed": result.Failed})
	util.Created(ctx, result)
}

// @Summary 选课详情
// @Description 包含各课时的进度汇总
// @Tags 选课管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "选课ID"
// @Success 200 {object} util.Response{data=service.EnrollmentDetail}
// @Failure 404 {object} util.Response
// @Router /enrollments/{id} [get]
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.Guard.Allow(ctx, id) {
		return
	}
	detail, err := c.EnrollmentService.Get(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 选课列表
// @Description 非管理员只能看到自己的选课
// @Tags 选课管理
// @Produce json
// @Security BearerAuth
// @Param userId query string false "用户ID"
// @Param courseId query string false "课程ID"
// @Param status query string false "状态"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /enrollments [get]
func (c *EnrollmentController) ListEnrollments(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	page, limit := util.Pagination(ctx)
	f := repository.EnrollmentFilter{
		UserID:   ctx.Query("userId"),
		CourseID: ctx.Query("courseId"),
		Status:   model.EnrollmentStatus(ctx.Query("status")),
		Page:     page,
		Limit:    limit,
	}
	if !user.IsAdmin() {
		f.UserID = user.UserID
	}

	list, total, err := c.EnrollmentService.List(ctx.Request.Context(), f)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, util.NewPage(list, total, page, limit))
}

// @Summary 修改选课状态
// @Description 只支持退课(DROPPED)和恢复已退课(ENROLLED)
// @Tags 选课管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "选课ID"
// @Param body body service.UpdateEnrollmentRequest true "状态"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 400 {object} util.Response
// @Router /enrollments/{id} [put]
func (c *EnrollmentController) UpdateEnrollment(ctx *gin.Context) {
	var req service.UpdateEnrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	e, err := c.EnrollmentService.UpdateStatus(ctx.Request.Context(), ctx.Param("id"), req.Status)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, e)
}

// @Summary 退课
// @Tags 选课管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "选课ID"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Router /enrollments/{id} [delete]
func (c *EnrollmentController) DropEnrollment(ctx *gin.Context) {
	e, err := c.EnrollmentService.Drop(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, e)
}

// @Summary 重建选课进度
// @Description 从事件日志和测验记录重建全部课时汇总及选课进度
// @Tags 选课管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "选课ID"
// @Success 200 {object} util.Response{data=service.RebuildResult}
// @Router /enrollments/{id}/rebuild [post]
func (c *EnrollmentController) RebuildEnrollment(ctx *gin.Context) {
	result, err := c.ProgressService.RebuildEnrollment(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
