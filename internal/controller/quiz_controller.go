package controller

import (
	"lms_backend/internal/middleware"
	"lms_backend/internal/progress"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
	Guard       EnrollmentGuard
}

func NewQuizController(quizService *service.QuizService, guard EnrollmentGuard) *QuizController {
	return &QuizController{QuizService: quizService, Guard: guard}
}

type StartAttemptRequest struct {
	EnrollmentID string `json:"enrollmentId" binding:"required"`
}

type SubmitAttemptRequest struct {
	Responses []progress.Answer `json:"responses"`
}

// @Summary 开始作答
// @Description 返回的试卷不包含正确答案
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param body body StartAttemptRequest true "选课"
// @Success 201 {object} util.Response{data=service.StartAttemptResult}
// @Failure 400 {object} util.Response "超过最大作答次数"
// @Failure 404 {object} util.Response
// @Router /quizzes/{id}/attempts [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	var req StartAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if !c.Guard.Allow(ctx, req.EnrollmentID) {
		return
	}

	result, err := c.QuizService.StartAttempt(ctx.Request.Context(), ctx.Param("id"), req.EnrollmentID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// @Summary 提交作答
// @Tags 测验
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "作答ID"
// @Param body body SubmitAttemptRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmitAttemptResult}
// @Failure 400 {object} util.Response "作答已提交"
// @Failure 404 {object} util.Response
// @Router /quizzes/attempts/{id}/submit [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.QuizService.Quizzes.GetAttempt(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if !c.Guard.Allow(ctx, attempt.EnrollmentID) {
		return
	}

	result, err := c.QuizService.SubmitAttempt(ctx.Request.Context(), attempt.ID, req.Responses)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 测验列表
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param lessonId query string false "课时ID"
// @Success 200 {object} util.Response
// @Router /quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	quizzes, err := c.QuizService.ListQuizzes(ctx.Request.Context(), ctx.Query("lessonId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// @Summary 测验详情
// @Description 仅管理员传 includeAnswers=true 时返回正确答案
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param includeAnswers query bool false "是否包含答案"
// @Success 200 {object} util.Response
// @Router /quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user != nil && user.IsAdmin() && ctx.Query("includeAnswers") == "true" {
		quiz, err := c.QuizService.GetQuiz(ctx.Request.Context(), ctx.Param("id"))
		if err != nil {
			util.HandleError(ctx, err)
			return
		}
		util.Success(ctx, quiz)
		return
	}

	paper, err := c.QuizService.GetQuizPaper(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, paper)
}

// @Summary 作答记录
// @Description 按开始时间倒序；非管理员必须指定自己的 enrollmentId
// @Tags 测验
// @Produce json
// @Security BearerAuth
// @Param quizId query string false "测验ID"
// @Param enrollmentId query string false "选课ID"
// @Success 200 {object} util.Response
// @Router /quizzes/attempts [get]
func (c *QuizController) ListAttempts(ctx *gin.Context) {
	f := repository.AttemptFilter{QuizID: ctx.Query("quizId"), EnrollmentID: ctx.Query("enrollmentId")}
	user := util.GetUserFromContext(ctx)
	if user == nil || !user.IsAdmin() {
		if f.EnrollmentID == "" {
			util.BadRequest(ctx, "enrollmentId is required")
			return
		}
		if !c.Guard.Allow(ctx, f.EnrollmentID) {
			return
		}
	}

	attempts, err := c.QuizService.ListAttempts(ctx.Request.Context(), f)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}

// @Summary 创建测验
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quiz body service.CreateQuizRequest true "测验信息"
// @Success 201 {object} util.Response
// @Router /quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.CreateQuiz(ctx.Request.Context(), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditEntityIDKey, quiz.ID)
	ctx.Set(middleware.AuditChangesKey, req)
	util.Created(ctx, quiz)
}

// @Summary 更新测验设置
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param quiz body service.UpdateQuizRequest true "测验设置"
// @Success 200 {object} util.Response
// @Router /quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	var req service.UpdateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	quiz, err := c.QuizService.UpdateQuiz(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, quiz)
}

// @Summary 更新题目
// @Description 修改分值不影响进行中作答的满分
// @Tags 测验管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "测验ID"
// @Param questionId path string true "题目ID"
// @Param question body service.UpdateQuestionRequest true "题目"
// @Success 200 {object} util.Response
// @Router /quizzes/{id}/questions/{questionId} [put]
func (c *QuizController) UpdateQuestion(ctx *gin.Context) {
	var req service.UpdateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	question, err := c.QuizService.UpdateQuestion(ctx.Request.Context(), ctx.Param("id"), ctx.Param("questionId"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.Set(middleware.AuditChangesKey, req)
	util.Success(ctx, question)
}
