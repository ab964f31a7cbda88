package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
	now      func() time.Time
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
		now:      time.Now,
	}
}

// ProfileInput 仅允许修改名称和偏好设置
type ProfileInput struct {
	Name        *string                `json:"name" binding:"omitnil,min=2,max=50"`
	Preferences *model.UserPreferences `json:"preferences"`
}

func (s *UserService) findUser(userID uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, util.Internal("find user", err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(userID uint, in ProfileInput) (*model.UserProfile, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := util.ValidateStruct(&in); err != nil {
		return nil, err
	}

	user, err := s.findUser(userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Preferences != nil {
		prefs := *in.Preferences
		if prefs.Difficulty == "" {
			prefs.Difficulty = user.Preferences.Difficulty
		}
		if prefs.Subjects == nil {
			prefs.Subjects = []string{}
		}
		user.Preferences = prefs
	}

	if err := s.UserRepo.UpdateProfile(user); err != nil {
		return nil, util.Internal("update profile", err)
	}

	logger.Log.Info("Profile updated", zap.Uint("userId", user.ID))
	profile := user.Profile()
	return &profile, nil
}

// UploadAvatar 校验图片类型后写入存储，返回访问地址
func (s *UserService) UploadAvatar(ctx context.Context, userID uint, file io.ReadSeeker, size int64) (string, error) {
	if size > util.MaxAvatarSize {
		return "", util.NewError(util.KindValidationFailed, "Avatar must be smaller than 5MB")
	}

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil {
		return "", util.ErrInvalidAvatar
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", util.Internal("rewind avatar", err)
	}

	if _, err := s.findUser(userID); err != nil {
		return "", err
	}

	filename := path.Join(util.AvatarDirectory, fmt.Sprintf("%d_%s%s", userID, model.GenerateUUID(), util.ExtensionForMime(mimeType)))
	url, err := s.Storage.Upload(ctx, filename, file, size, mimeType)
	if err != nil {
		return "", util.Internal("store avatar", err)
	}

	if err := s.UserRepo.UpdateAvatar(userID, url); err != nil {
		return "", util.Internal("save avatar", err)
	}

	logger.Log.Info("Avatar uploaded", zap.Uint("userId", userID), zap.String("url", url))
	return url, nil
}

// DeleteAccount 校验密码后软删除账号
func (s *UserService) DeleteAccount(userID uint, password string) error {
	if password == "" {
		return util.ErrPasswordRequired
	}

	user, err := s.findUser(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return util.ErrInvalidPassword
	}

	tombstone := fmt.Sprintf("deleted_%d_%s", s.now().UnixMilli(), user.Email)
	if err := s.UserRepo.Deactivate(user.ID, tombstone); err != nil {
		return util.Internal("deactivate user", err)
	}

	logger.Log.Info("Account deleted", zap.Uint("userId", user.ID))
	return nil
}
