package controller

import (
	"quiz_backend/internal/util"
	"quiz_backend/pkg/cache"
	"quiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController 运维接口，仅管理员
type AdminController struct {
	Cache cache.Store
}

func NewAdminController(store cache.Store) *AdminController {
	return &AdminController{Cache: store}
}

// FlushCache godoc
// @Summary 清空测验列表与分析缓存
// @Description 会话与令牌黑名单不受影响
// @Tags 系统
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/cache/flush [post]
func (c *AdminController) FlushCache(ctx *gin.Context) {
	for _, prefix := range []string{util.CacheKeyQuizList, util.CacheKeyUserAnalytics} {
		if err := c.Cache.DeletePrefix(ctx.Request.Context(), prefix); err != nil {
			util.LogInternalError(ctx, err)
			return
		}
	}

	userID, _ := util.Viewer(ctx)
	logger.Log.Info("Cache flushed", zap.Uint("adminId", userID))
	util.Success(ctx, gin.H{"message": "Cache flushed"})
}
