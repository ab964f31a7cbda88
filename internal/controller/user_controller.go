package controller

import (
	"quiz_backend/internal/service"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserController struct {
	UserService        *service.UserService
	AuthService        *service.AuthService
	AchievementService *service.AchievementService
	AnalyticsService   *service.AnalyticsService
}

func NewUserController(
	userService *service.UserService,
	authService *service.AuthService,
	achievementService *service.AchievementService,
	analyticsService *service.AnalyticsService,
) *UserController {
	return &UserController{
		UserService:        userService,
		AuthService:        authService,
		AchievementService: achievementService,
		AnalyticsService:   analyticsService,
	}
}

// UpdateProfile godoc
// @Summary 更新个人资料
// @Tags 用户
// @Security ApiKeyAuth
// @Accept  json
// @Produce  json
// @Param   body body service.ProfileInput true "名称与偏好"
// @Success 200 {object} util.Response{data=model.UserProfile}
// @Failure 400 {object} util.Response "校验失败"
// @Router /api/users/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	var req service.ProfileInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.BindingError(err, "Invalid request body"))
		return
	}

	userID, _ := util.Viewer(ctx)
	profile, err := c.UserService.UpdateProfile(userID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

// UploadAvatar godoc
// @Summary 上传头像
// @Description 仅支持图片，最大 5MB
// @Tags 用户
// @Security ApiKeyAuth
// @Accept  multipart/form-data
// @Produce  json
// @Param avatar formData file true "头像文件"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "文件无效"
// @Router /api/users/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	header, err := ctx.FormFile("avatar")
	if err != nil {
		util.BadRequest(ctx, "Avatar file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	userID, _ := util.Viewer(ctx)
	url, err := c.UserService.UploadAvatar(ctx.Request.Context(), userID, file, header.Size)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"avatar": url})
}

// Leaderboard godoc
// @Summary 排行榜
// @Description 按平均分排名，timeframe 仅支持 week/month，其余视为全部
// @Tags 用户
// @Produce  json
// @Param timeframe query string false "week/month/all"
// @Param category query string false "分类"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse[model.LeaderboardEntry]}
// @Router /api/users/leaderboard [get]
func (c *UserController) Leaderboard(ctx *gin.Context) {
	query := service.LeaderboardQuery{
		Timeframe: ctx.DefaultQuery("timeframe", service.TimeframeAll),
		Category:  ctx.Query("category"),
		Page:      util.ParseIntDefault(ctx.Query("page"), 1),
		Limit:     util.ParseIntDefault(ctx.Query("limit"), 0),
	}

	result, err := c.AnalyticsService.Leaderboard(query)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// @Summary 我的成就
// @Tags 用户
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} util.Response{data=service.UserAchievements}
// @Router /api/users/achievements [get]
func (c *UserController) Achievements(ctx *gin.Context) {
	userID, _ := util.Viewer(ctx)
	result, err := c.AchievementService.GetAchievements(userID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// DeleteAccount godoc
// @Summary 注销账号
// @Description 需要当前密码，账号停用后当前令牌同时失效
// @Tags 用户
// @Security ApiKeyAuth
// @Accept  json
// @Param   body body deleteAccountRequest true "当前密码"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "缺少密码或密码错误"
// @Router /api/users/account [delete]
func (c *UserController) DeleteAccount(ctx *gin.Context) {
	var req deleteAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.HandleError(ctx, util.BindingError(err, "Invalid request body"))
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.UserService.DeleteAccount(claims.UserID, req.Password); err != nil {
		util.HandleError(ctx, err)
		return
	}

	if err := c.AuthService.Logout(ctx.Request.Context(), claims, util.GetTokenFromContext(ctx)); err != nil {
		logger.Log.Warn("Failed to revoke token after account deletion",
			zap.Uint("userId", claims.UserID), zap.Error(err))
	}

	util.Success(ctx, gin.H{"message": "Account deleted successfully"})
}
