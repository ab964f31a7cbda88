package model

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"
)

type NotificationPreferences struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

type UserPreferences struct {
	Difficulty    Difficulty              `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Subjects      []string                `json:"subjects"`
	Notifications NotificationPreferences `json:"notifications"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Difficulty:    DifficultyMedium,
		Subjects:      []string{},
		Notifications: NotificationPreferences{Email: true, Push: true},
	}
}

// UserStats 只由答题结算更新
type UserStats struct {
	TotalQuizzes     int        `gorm:"default:0" json:"totalQuizzes"`
	CompletedQuizzes int        `gorm:"default:0" json:"completedQuizzes"`
	AverageScore     int        `gorm:"default:0" json:"averageScore"`
	TotalTimeSpent   int        `gorm:"default:0" json:"totalTimeSpent"`
	Streak           int        `gorm:"default:0" json:"streak"`
	LastQuizDate     *time.Time `json:"lastQuizDate,omitempty"`
}

// swagger:model User
type User struct {
	BaseModel
	Name        string          `gorm:"size:50;not null" json:"name"`
	Email       string          `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password    string          `gorm:"size:100;not null" json:"-"`
	Role        UserRole        `gorm:"size:20;default:'user'" json:"role"`
	Avatar      string          `gorm:"size:255" json:"avatar"`
	IsVerified  bool            `json:"isVerified"`
	IsActive    bool            `json:"isActive"`
	LastLogin   *time.Time      `json:"lastLogin,omitempty"`
	Preferences UserPreferences `gorm:"type:text;serializer:json" json:"preferences"`
	Stats       UserStats       `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
}

func (User) TableName() string {
	return "users"
}

// Level 按完成测验数划分等级
func (u *User) Level() string {
	switch n := u.Stats.CompletedQuizzes; {
	case n < 5:
		return LevelBeginner
	case n < 20:
		return LevelIntermediate
	case n < 50:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormalizeEmail 邮箱统一小写去空格
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserProfile 对外返回的用户资料
type UserProfile struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Role        UserRole        `json:"role"`
	Avatar      string          `json:"avatar"`
	IsVerified  bool            `json:"isVerified"`
	Level       string          `json:"level"`
	Stats       UserStats       `json:"stats"`
	Preferences UserPreferences `json:"preferences"`
	LastLogin   *time.Time      `json:"lastLogin,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Avatar:      u.Avatar,
		IsVerified:  u.IsVerified,
		Level:       u.Level(),
		Stats:       u.Stats,
		Preferences: u.Preferences,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}
