package middleware

import (
	"context"
	"errors"
	"quiz_backend/internal/config"
	"quiz_backend/internal/model"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TokenChecker 查询令牌是否已注销
type TokenChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserLoader 校验令牌所属账号仍然存在且有效
type UserLoader interface {
	FindByID(id uint) (*model.User, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// authenticate 返回 nil 表示认证通过
func authenticate(c *gin.Context, cfg *config.Config, tokens TokenChecker, users UserLoader) *util.AppError {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return util.NewError(util.KindUnauthorized, "Not authorized, no token")
	}

	claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
	if err != nil {
		logger.Log.Debug("JWT rejected", zap.Error(err))
		return util.NewError(util.KindUnauthorized, "Not authorized, token failed")
	}

	revoked, err := tokens.IsRevoked(c.Request.Context(), claims.TokenID(tokenString))
	if err != nil {
		// 黑名单不可用时按未注销处理
		logger.Log.Warn("Token blacklist lookup failed", zap.Error(err))
	}
	if revoked {
		return util.ErrTokenRevoked
	}

	user, err := users.FindByID(claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.NewError(util.KindUnauthorized, "Not authorized, user not found")
	}
	if err != nil {
		return util.Internal("load token user", err)
	}
	if !user.IsActive {
		return util.ErrAccountDeactivated
	}

	// 角色以数据库为准，令牌签发后的角色变更立即生效
	claims.Role = user.Role
	c.Set(util.ContextUserKey, claims)
	c.Set(util.ContextTokenKey, tokenString)
	return nil
}

func AuthMiddleware(cfg *config.Config, tokens TokenChecker, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appErr := authenticate(c, cfg, tokens, users); appErr != nil {
			util.HandleError(c, appErr)
			c.Abort()
			return
		}
		c.Next()
	}
}

// TryAuthMiddleware 可选认证：携带有效令牌时注入用户，否则按匿名访问继续
func TryAuthMiddleware(cfg *config.Config, tokens TokenChecker, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearerToken(c) != "" {
			if appErr := authenticate(c, cfg, tokens, users); appErr != nil && appErr.Kind == util.KindInternal {
				util.HandleError(c, appErr)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

func RoleMiddleware(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := user.Role == model.RoleAdmin
		for _, role := range roles {
			if user.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
