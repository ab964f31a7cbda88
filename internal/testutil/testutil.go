// Package testutil 提供测试用的内存数据库与数据构造函数
package testutil

import (
	"fmt"
	"quiz_backend/internal/model"
	"quiz_backend/pkg/database"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const Password = "Password123"

// NewDB 每个测试独立的 sqlite 内存库，单连接保证同一个库
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Name:        name,
		Email:       model.NormalizeEmail(fmt.Sprintf("%s@example.com", name)),
		Password:    string(hash),
		Role:        role,
		IsActive:    true,
		Preferences: model.DefaultPreferences(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// QuizOption 修改默认测验
type QuizOption func(q *model.Quiz)

func WithCategory(category string) QuizOption {
	return func(q *model.Quiz) { q.Category = category }
}

func WithDifficulty(d model.Difficulty) QuizOption {
	return func(q *model.Quiz) { q.Difficulty = d }
}

func Private() QuizOption {
	return func(q *model.Quiz) { q.IsPublic = false }
}

func WithSettings(s model.QuizSettings) QuizOption {
	return func(q *model.Quiz) { q.Settings = s }
}

func WithTags(tags ...string) QuizOption {
	return func(q *model.Quiz) { q.Tags = tags }
}

func WithTitle(title string) QuizOption {
	return func(q *model.Quiz) { q.Title = title }
}

// WithQuestions 每个元素为 {分值, 正确选项下标}
func WithQuestions(specs ...[2]int) QuizOption {
	return func(q *model.Quiz) {
		q.Questions = nil
		for i, spec := range specs {
			q.Questions = append(q.Questions, NewQuestion(i, spec[0], spec[1]))
		}
	}
}

func NewQuestion(position, points, correct int) model.Question {
	options := make([]model.QuestionOption, 3)
	for i := range options {
		options[i] = model.QuestionOption{Text: fmt.Sprintf("option %d", i), IsCorrect: i == correct}
	}
	return model.Question{
		Position:    position,
		Text:        fmt.Sprintf("question %d", position+1),
		Options:     options,
		Explanation: fmt.Sprintf("explanation %d", position+1),
		Difficulty:  model.DifficultyMedium,
		Points:      points,
	}
}

// CreateQuiz 默认两道各 1 分的题，正确答案分别为 0 和 2
func CreateQuiz(t testing.TB, db *gorm.DB, creatorID uint, opts ...QuizOption) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		Title:      "General Knowledge",
		Category:   "Programming",
		Difficulty: model.DifficultyEasy,
		TimeLimit:  15,
		CreatorID:  creatorID,
		IsPublic:   true,
		IsActive:   true,
		Tags:       []string{"basics"},
		Settings:   model.DefaultQuizSettings(),
		Questions: []model.Question{
			NewQuestion(0, 1, 0),
			NewQuestion(1, 1, 2),
		},
	}
	for _, opt := range opts {
		opt(quiz)
	}
	quiz.RecalculateTotalPoints()
	require.NoError(t, db.Create(quiz).Error)
	return quiz
}
