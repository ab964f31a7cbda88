package model

import (
	"gorm.io/datatypes"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

const (
	DefaultTimeLimit    = 30
	DefaultPassingScore = 60
)

type QuestionOption struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

// swagger:model Question
type Question struct {
	BaseModel
	QuizID      uint                                `gorm:"index;not null" json:"quizId"`
	Position    int                                 `gorm:"default:0" json:"position"`
	Text        string                              `gorm:"type:text;not null" json:"question" binding:"required"`
	Options     datatypes.JSONSlice[QuestionOption] `json:"options" binding:"min=2,max=6,dive"`
	Explanation string                              `gorm:"type:text" json:"explanation"`
	Difficulty  Difficulty                          `gorm:"size:10;default:'medium'" json:"difficulty" binding:"oneof=easy medium hard"`
	Points      int                                 `gorm:"default:1" json:"points" binding:"min=0"`
	Tags        datatypes.JSONSlice[string]         `json:"tags"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// CorrectOption 返回第一个正确选项的下标，没有时返回 -1
func (q *Question) CorrectOption() int {
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

// IsCorrectSelection 越界的下标视为答错
func (q *Question) IsCorrectSelection(index int) bool {
	if index < 0 || index >= len(q.Options) {
		return false
	}
	return q.Options[index].IsCorrect
}

type QuizSettings struct {
	ShuffleQuestions   bool `json:"shuffleQuestions"`
	ShuffleOptions     bool `json:"shuffleOptions"`
	AllowReview        bool `json:"allowReview"`
	ShowCorrectAnswers bool `json:"showCorrectAnswers"`
	PassingScore       int  `json:"passingScore" binding:"min=0,max=100"`
}

func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		AllowReview:        true,
		ShowCorrectAnswers: true,
		PassingScore:       DefaultPassingScore,
	}
}

type QuizStats struct {
	TotalAttempts     int `gorm:"default:0" json:"totalAttempts"`
	CompletedAttempts int `gorm:"default:0" json:"completedAttempts"`
	AverageScore      int `gorm:"default:0" json:"averageScore"`
	AverageTimeSpent  int `gorm:"default:0" json:"averageTimeSpent"`
	PassRate          int `gorm:"default:0" json:"passRate"`
}

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title       string                      `gorm:"size:100;not null" json:"title" binding:"required,max=100"`
	Description string                      `gorm:"size:500" json:"description" binding:"max=500"`
	Category    string                      `gorm:"size:100;index;not null" json:"category" binding:"required,max=100"`
	Difficulty  Difficulty                  `gorm:"size:10;index;default:'medium'" json:"difficulty" binding:"oneof=easy medium hard"`
	TimeLimit   int                         `gorm:"default:30" json:"timeLimit" binding:"min=1,max=180"`
	TotalPoints int                         `gorm:"default:0" json:"totalPoints"`
	CreatorID   uint                        `gorm:"index;not null" json:"creatorId"`
	Creator     *User                       `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	IsPublic    bool                        `gorm:"index" json:"isPublic"`
	IsActive    bool                        `gorm:"index" json:"isActive"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Settings    QuizSettings                `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
	Stats       QuizStats                   `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	Questions   []Question                  `gorm:"foreignKey:QuizID" json:"questions,omitempty" binding:"min=1,dive"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// RecalculateTotalPoints 题目变更后重新计算总分
func (q *Quiz) RecalculateTotalPoints() int {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	q.TotalPoints = total
	return total
}

func (q *Quiz) PassingScore() int {
	if q.Settings.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return q.Settings.PassingScore
}

func (q *Quiz) QuestionByID(id uint) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// IsOwnedBy 创建者或管理员
func (q *Quiz) IsOwnedBy(userID uint, role UserRole) bool {
	return role == RoleAdmin || (userID != 0 && q.CreatorID == userID)
}

// CanBeViewedBy 私有测验仅对创建者和管理员可见
func (q *Quiz) CanBeViewedBy(userID uint, role UserRole) bool {
	return q.IsPublic || q.IsOwnedBy(userID, role)
}
