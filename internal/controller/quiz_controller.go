package controller

import (
	"quiz_backend/internal/service"
	"quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService    *service.QuizService
	AttemptService *service.AttemptService
}

func NewQuizController(quizService *service.QuizService, attemptService *service.AttemptService) *QuizController {
	return &QuizController{
		QuizService:    quizService,
		AttemptService: attemptService,
	}
}

func quizID(ctx *gin.Context) (uint, bool) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.HandleError(ctx, util.ErrQuizNotFound)
		return 0, false
	}
	return id, true
}

// ListQuizzes godoc
// @Summary 测验列表
// @Description 公开且启用的测验，支持分类、难度、标签、关键字过滤与排序
// @Tags 测验
// @Produce  json
// @Param category query string false "分类"
// @Param difficulty query string false "难度 easy/medium/hard"
// @Param search query string false "标题/描述关键字"
// @Param tags query string false "逗号分隔的标签"
// @Param sort query string false "newest/oldest/popular/rating"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse[repository.QuizListRow]}
// @Failure 400 {object} util.Response "查询参数错误"
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	var query service.QuizListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		util.HandleError(ctx, util.BindingError(err, "Invalid query parameters"))
		return
	}

	result, err := c.QuizService.List(ctx.Request.Context(), query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// GetQuiz godoc
// @Summary 测验详情
// @Description 创建者与管理员可见正确答案和解析
// @Tags 测验
// @Produce  json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizDetail}
// @Failure 403 {object} util.Response "私有测验"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := quizID(ctx)
	if !ok {
		return
	}

	viewerID, role := util.Viewer(ctx)
	detail, err := c.QuizService.Get(id, viewerID, role)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 测验
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   body body service.QuizInput true "测验内容"
// @Success 201 {object} util.Response{data=service.QuizDetail}
// @Failure 400 {object} util.Response "校验失败"
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.QuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.BindingError(err, "Invalid request body"))
		return
	}

	userID, _ := util.Viewer(ctx)
	quiz, err := c.QuizService.Create(ctx.Request.Context(), userID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, service.NewQuizDetail(quiz, true))
}

// UpdateQuiz godoc
// @Summary 更新测验
// @Description 仅创建者或管理员；questions 按 id 合并，缺失的题目被移除
// @Tags 测验
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param id path int true "测验ID"
// @Param   body body service.QuizInput true "需要修改的字段"
// @Success 200 {object} util.Response{data=service.QuizDetail}
// @Failure 403 {object} util.Response "无权修改"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	id, ok := quizID(ctx)
	if !ok {
		return
	}

	var req service.QuizInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.BindingError(err, "Invalid request body"))
		return
	}

	userID, role := util.Viewer(ctx)
	quiz, err := c.QuizService.Update(ctx.Request.Context(), id, userID, role, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, service.NewQuizDetail(quiz, true))
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Tags 测验
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	id, ok := quizID(ctx)
	if !ok {
		return
	}

	userID, role := util.Viewer(ctx)
	if err := c.QuizService.Delete(ctx.Request.Context(), id, userID, role); err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"message": "Quiz deleted successfully"})
}

// StartAttempt godoc
// @Summary 开始答题
// @Tags 答题
// @Security ApiKeyAuth
// @Produce  json
// @Param id path int true "测验ID"
// @Success 201 {object} util.Response{data=service.StartResult}
// @Failure 404 {object} util.Response "测验不可用"
// @Router /api/quizzes/{id}/start [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	id, ok := quizID(ctx)
	if !ok {
		return
	}

	userID, role := util.Viewer(ctx)
	result, err := c.AttemptService.Start(ctx.Request.Context(), userID, role, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Created(ctx, result)
}

// SubmitAttempt godoc
// @Summary 提交答案
// @Description 评分并更新测验与用户统计，同一次答题只能提交一次
// @Tags 答题
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param id path int true "测验ID"
// @Param   body body service.SubmitInput true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response "缺少字段或已提交"
// @Failure 403 {object} util.Response "非本人答题"
// @Failure 404 {object} util.Response "答题不存在"
// @Router /api/quizzes/{id}/submit [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	id, ok := quizID(ctx)
	if !ok {
		return
	}

	var req service.SubmitInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.BindingError(err, "Invalid request body"))
		return
	}

	userID, _ := util.Viewer(ctx)
	result, err := c.AttemptService.Submit(ctx.Request.Context(), userID, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// MyAttempts godoc
// @Summary 我的答题记录
// @Tags 答题
// @Security ApiKeyAuth
// @Produce  json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse[service.AttemptSummary]}
// @Router /api/quizzes/attempts/me [get]
func (c *QuizController) MyAttempts(ctx *gin.Context) {
	userID, _ := util.Viewer(ctx)
	page := util.ParseIntDefault(ctx.Query("page"), 1)
	limit := util.ParseIntDefault(ctx.Query("limit"), 0)

	result, err := c.AttemptService.ListMine(userID, page, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
