package controller

import (
	"io"
	"net/http"

	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// maxImportSize 课程定义文件大小上限
const maxImportSize = 4 << 20

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// @Summary 导入课程
// @Description 请求体为 YAML 或 JSON 格式的完整课程定义(模块、课时、内容、内嵌测验)
// @Tags 课程管理
// @Accept plain
// @Produce json
// @Security BearerAuth
// @Param definition body service.CourseDefinition true "课程定义"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Router /courses/import [post]
func (c *CourseController) ImportCourse(ctx *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxImportSize))
	if err != nil {
		util.BadRequest(ctx, "course definition too large or unreadable")
		return
	}
	course, err := c.CourseService.Import(ctx.Request.Context(), data)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, course.ID)
	ctx.Set(middleware.AuditChangesKey, gin.H{"title": course.Title, "status": course.Status})
	util.Created(ctx, course)
}

// @Summary 发布课程
// @Tags 课程管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "课程没有模块"
// @Router /courses/{id}/publish [post]
func (c *CourseController) PublishCourse(ctx *gin.Context) {
	course, err := c.CourseService.Publish(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param status query string false "状态" Enums(DRAFT, PUBLISHED, ARCHIVED)
// @Success 200 {object} util.Response
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	status := model.CourseStatus(ctx.Query("status"))
	// 非管理员只能看到已发布课程
	if user := util.GetUserFromContext(ctx); user == nil || !user.IsAdmin() {
		status = model.CoursePublished
	}
	courses, err := c.CourseService.List(ctx.Request.Context(), status)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary 课程详情
// @Description 返回完整的模块、课时、内容树
// @Tags 课程
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	course, err := c.CourseService.Get(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if user := util.GetUserFromContext(ctx); course.Status != model.CoursePublished && (user == nil || !user.IsAdmin()) {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, course)
}

// @Summary 更新课程
// @Description 状态改为 PUBLISHED 时要求至少有一个模块
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param course body service.UpdateCourseRequest true "课程"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var req service.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	course, err := c.CourseService.UpdateCourse(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, course)
}

// @Summary 删除课程
// @Description 只归档，已有选课和进度保留
// @Tags 课程管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	course, err := c.CourseService.ArchiveCourse(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary 新建模块
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课程ID"
// @Param module body service.ModuleRequest true "模块"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Failure 404 {object} util.Response
// @Router /courses/{id}/modules [post]
func (c *CourseController) CreateModule(ctx *gin.Context) {
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.CourseService.CreateModule(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, module.ID)
	ctx.Set(middleware.AuditChangesKey, req)
	util.Created(ctx, module)
}

// @Summary 更新模块
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Param module body service.ModuleRequest true "模块"
// @Success 200 {object} util.Response{data=model.CourseModule}
// @Router /modules/{id} [put]
func (c *CourseController) UpdateModule(ctx *gin.Context) {
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	module, err := c.CourseService.UpdateModule(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, module)
}

// @Summary 删除模块
// @Description 连同课时和内容一起删除，并重算该课程所有选课的进度
// @Tags 课程管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Success 200 {object} util.Response
// @Router /modules/{id} [delete]
func (c *CourseController) DeleteModule(ctx *gin.Context) {
	if err := c.CourseService.DeleteModule(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 新建课时
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "模块ID"
// @Param lesson body service.LessonRequest true "课时"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /modules/{id}/lessons [post]
func (c *CourseController) CreateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.CourseService.CreateLesson(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, lesson.ID)
	ctx.Set(middleware.AuditChangesKey, req)
	util.Created(ctx, lesson)
}

// @Summary 更新课时
// @Description 修改 isRequired 会重算该课程所有选课的进度
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Param lesson body service.LessonRequest true "课时"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Router /lessons/{id} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	lesson, err := c.CourseService.UpdateLesson(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, lesson)
}

// @Summary 删除课时
// @Tags 课程管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Success 200 {object} util.Response
// @Router /lessons/{id} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	if err := c.CourseService.DeleteLesson(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// @Summary 新建课时内容
// @Description 新增必修内容会重算该课程所有选课的进度
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "课时ID"
// @Param content body service.CreateContentRequest true "内容"
// @Success 201 {object} util.Response{data=model.LessonContent}
// @Failure 400 {object} util.Response
// @Router /lessons/{id}/contents [post]
func (c *CourseController) CreateContent(ctx *gin.Context) {
	var req service.CreateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content, err := c.CourseService.CreateContent(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, content.ID)
	ctx.Set(middleware.AuditChangesKey, gin.H{"contentType": content.ContentType, "isRequired": content.IsRequired})
	util.Created(ctx, content)
}

// @Summary 更新课时内容
// @Tags 课程管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Param content body service.UpdateContentRequest true "内容"
// @Success 200 {object} util.Response{data=model.LessonContent}
// @Router /contents/{id} [put]
func (c *CourseController) UpdateContent(ctx *gin.Context) {
	var req service.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	content, err := c.CourseService.UpdateContent(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, content)
}

// @Summary 删除课时内容
// @Tags 课程管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "内容ID"
// @Success 200 {object} util.Response
// @Router /contents/{id} [delete]
func (c *CourseController) DeleteContent(ctx *gin.Context) {
	if err := c.CourseService.DeleteContent(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
