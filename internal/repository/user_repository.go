package repository

import (
	"quiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", model.NormalizeEmail(email)).First(&user).Error
	return &user, err
}

func (r *UserRepository) ExistsByEmail(email string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.User{}).Where("email = ?", model.NormalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateLastLogin(userID uint, at time.Time) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", at).
		Error
}

// UpdateProfile 只更新名称与偏好设置
func (r *UserRepository) UpdateProfile(user *model.User) error {
	return r.DB.Model(user).
		Select("name", "preferences").
		Updates(user).
		Error
}

func (r *UserRepository) UpdateAvatar(userID uint, avatar string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("avatar", avatar).
		Error
}

// Deactivate 软删除：停用账号并改写邮箱以释放原邮箱
func (r *UserRepository) Deactivate(userID uint, email string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_active": false,
			"email":     email,
		}).
		Error
}
