package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptAnswer struct {
	QuestionID     uint `json:"questionId"`
	SelectedOption int  `json:"selectedOption"`
	IsCorrect      bool `json:"isCorrect"`
	TimeSpent      int  `json:"timeSpent"`
}

// swagger:model QuizAttempt
type QuizAttempt struct {
	UUIDBase
	UserID       uint                               `gorm:"index;not null" json:"userId"`
	User         *User                              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	QuizID       uint                               `gorm:"index;not null" json:"quizId"`
	Quiz         *Quiz                              `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	Answers      datatypes.JSONSlice[AttemptAnswer] `json:"answers"`
	Score        int                                `gorm:"default:0" json:"score"`
	TotalPoints  int                                `gorm:"default:0" json:"totalPoints"`
	EarnedPoints int                                `gorm:"default:0" json:"earnedPoints"`
	TimeSpent    int                                `gorm:"default:0" json:"timeSpent"`
	Completed    bool                               `gorm:"index" json:"completed"`
	StartedAt    time.Time                          `json:"startedAt"`
	CompletedAt  *time.Time                         `gorm:"index" json:"completedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
