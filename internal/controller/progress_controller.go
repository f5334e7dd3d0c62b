package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	Guard           EnrollmentGuard
}

func NewProgressController(progressService *service.ProgressService, guard EnrollmentGuard) *ProgressController {
	return &ProgressController{ProgressService: progressService, Guard: guard}
}

// @Summary 上报学习事件
// @Description 记录一次学习事件，判定内容是否完成并重算课时与选课进度
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body service.TrackEventRequest true "学习事件"
// @Success 201 {object} util.Response{data=service.TrackEventResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /progress/events [post]
func (c *ProgressController) TrackEvent(ctx *gin.Context) {
	var req service.TrackEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !c.Guard.Allow(ctx, req.EnrollmentID) {
		return
	}

	result, err := c.ProgressService.TrackEvent(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// @Summary 获取进度汇总
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param enrollmentId query string true "选课ID"
// @Param lessonId query string false "课时ID"
// @Success 200 {object} util.Response
// @Router /progress/summary [get]
func (c *ProgressController) GetSummary(ctx *gin.Context) {
	enrollmentID := ctx.Query("enrollmentId")
	if enrollmentID == "" {
		util.BadRequest(ctx, "enrollmentId is required")
		return
	}
	if !c.Guard.Allow(ctx, enrollmentID) {
		return
	}

	list, err := c.ProgressService.GetSummary(ctx.Request.Context(), enrollmentID, ctx.Query("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"progressSummaries": list})
}

// @Summary 获取课时详细进度
// @Description 课时汇总及每个内容的事件历史
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param enrollmentId path string true "选课ID"
// @Param lessonId path string true "课时ID"
// @Success 200 {object} util.Response{data=service.DetailedProgress}
// @Failure 404 {object} util.Response
// @Router /progress/{enrollmentId}/lessons/{lessonId} [get]
func (c *ProgressController) GetDetailedProgress(ctx *gin.Context) {
	enrollmentID := ctx.Param("enrollmentId")
	if !c.Guard.Allow(ctx, enrollmentID) {
		return
	}
	detail, err := c.ProgressService.GetDetailedProgress(ctx.Request.Context(), enrollmentID, ctx.Param("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}
