package controller

import (
	"quiz_backend/internal/service"
	"quiz_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 个人学习分析
// @Description 分类、难度、每日表现与学习建议
// @Tags 分析
// @Security ApiKeyAuth
// @Produce json
// @Param timeframe query string false "week/month/year" default(month)
// @Success 200 {object} util.Response{data=model.UserAnalytics}
// @Router /api/analytics/user [get]
func (c *AnalyticsController) UserAnalytics(ctx *gin.Context) {
	userID, _ := util.Viewer(ctx)
	timeframe := ctx.DefaultQuery("timeframe", service.TimeframeMonth)

	result, err := c.AnalyticsService.UserAnalytics(ctx.Request.Context(), userID, timeframe)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 测验分析
// @Description 仅创建者或管理员可查看
// @Tags 分析
// @Security ApiKeyAuth
// @Produce json
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.QuizAnalytics}
// @Failure 403 {object} util.Response "无权查看"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/analytics/quiz/{id} [get]
func (c *AnalyticsController) QuizAnalytics(ctx *gin.Context) {
	id, ok := quizID(ctx)
	if !ok {
		return
	}

	userID, role := util.Viewer(ctx)
	result, err := c.AnalyticsService.QuizAnalytics(id, userID, role)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
