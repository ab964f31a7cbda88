package service

import (
	"context"
	"errors"
	"fmt"
	"quiz_backend/internal/config"
	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/cache"
	"quiz_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo  *repository.UserRepository
	Cfg       *config.Config
	Blacklist *TokenBlacklist
	Sessions  cache.Store
	now       func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config, blacklist *TokenBlacklist, sessions cache.Store) *AuthService {
	return &AuthService{
		UserRepo:  userRepo,
		Cfg:       cfg,
		Blacklist: blacklist,
		Sessions:  sessions,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

// SessionSummary 登录后缓存的会话摘要
type SessionSummary struct {
	ID      uint           `json:"id"`
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Role    model.UserRole `json:"role"`
	LoginAt time.Time      `json:"loginAt"`
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("%s%d", util.CacheKeySession, userID)
}

// ValidateRegisterInput 名称与邮箱去掉首尾空白后再校验
func ValidateRegisterInput(in RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	errs := checkStruct(&in)
	validatePasswordStrength(&errs, in.Password)
	return errs.err()
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := ValidateRegisterInput(in); err != nil {
		return nil, err
	}

	email := model.NormalizeEmail(in.Email)
	exists, err := s.UserRepo.ExistsByEmail(email)
	if err != nil {
		return nil, util.Internal("check email", err)
	}
	if exists {
		return nil, util.ErrEmailRegistered
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, util.Internal("hash password", err)
	}

	now := s.now()
	user := &model.User{
		Name:        strings.TrimSpace(in.Name),
		Email:       email,
		Password:    string(hashedPassword),
		Role:        model.RoleUser,
		IsActive:    true,
		LastLogin:   &now,
		Preferences: model.DefaultPreferences(),
	}
	if err := s.UserRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrEmailRegistered
		}
		return nil, util.Internal("create user", err)
	}

	logger.Log.Info("User registered", zap.Uint("userId", user.ID), zap.String("email", user.Email))
	return s.issue(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := util.ValidateStruct(&in); err != nil {
		return nil, err
	}

	user, err := s.UserRepo.FindByEmail(in.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, util.Internal("find user", err)
	}

	if !user.IsActive {
		return nil, util.ErrAccountDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.UserRepo.UpdateLastLogin(user.ID, now); err != nil {
		return nil, util.Internal("update last login", err)
	}
	user.LastLogin = &now

	summary := SessionSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, LoginAt: now}
	if err := cache.SetJSON(ctx, s.Sessions, sessionKey(user.ID), summary, s.Cfg.Cache.SessionTTL()); err != nil {
		logger.Log.Warn("Failed to cache session", zap.Uint("userId", user.ID), zap.Error(err))
	}

	logger.Log.Info("User logged in", zap.Uint("userId", user.ID))
	return s.issue(ctx, user)
}

func (s *AuthService) issue(_ context.Context, user *model.User) (*AuthResult, error) {
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, util.Internal("sign token", err)
	}
	return &AuthResult{Token: token, User: user.Profile()}, nil
}

// Logout 令牌加入黑名单直到其自然过期，并清除会话缓存
func (s *AuthService) Logout(ctx context.Context, claims *util.Claims, rawToken string) error {
	ttl := claims.Remaining(s.now())
	if err := s.Blacklist.Revoke(ctx, claims.TokenID(rawToken), ttl); err != nil {
		return util.Internal("revoke token", err)
	}
	if err := s.Sessions.Delete(ctx, sessionKey(claims.UserID)); err != nil {
		logger.Log.Warn("Failed to drop session", zap.Uint("userId", claims.UserID), zap.Error(err))
	}

	logger.Log.Info("User logged out", zap.Uint("userId", claims.UserID))
	return nil
}

func (s *AuthService) Me(userID uint) (*model.UserProfile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, util.Internal("find user", err)
	}
	profile := user.Profile()
	return &profile, nil
}
