package model

import "time"

// CategoryStat 分类维度成绩
type CategoryStat struct {
	Category     string `json:"category"`
	Attempts     int    `json:"attempts"`
	AverageScore int    `json:"averageScore"`
	TotalScore   int    `json:"-"`
}

// DifficultyStat 难度维度成绩
type DifficultyStat struct {
	Difficulty   Difficulty `json:"difficulty"`
	Attempts     int        `json:"attempts"`
	AverageScore int        `json:"averageScore"`
}

// DailyPerformance 每日表现
type DailyPerformance struct {
	Date         string `json:"date"`
	AverageScore int    `json:"averageScore"`
	QuizCount    int    `json:"quizCount"`
}

const (
	RecommendationImprovement = "improvement"
	RecommendationChallenge   = "challenge"
	RecommendationConsistency = "consistency"
)

type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

type UserAnalytics struct {
	Timeframe        string             `json:"timeframe"`
	TotalAttempts    int                `json:"totalAttempts"`
	AverageScore     int                `json:"averageScore"`
	TotalTimeSpent   int                `json:"totalTimeSpent"`
	ImprovementRate  int                `json:"improvementRate"`
	CategoryStats    []CategoryStat     `json:"categoryStats"`
	DifficultyStats  []DifficultyStat   `json:"difficultyStats"`
	Strengths        []CategoryStat     `json:"strengths"`
	Weaknesses       []CategoryStat     `json:"weaknesses"`
	DailyPerformance []DailyPerformance `json:"dailyPerformance"`
	Recommendations  []Recommendation   `json:"recommendations"`
}

// QuestionStat 单题正确率
type QuestionStat struct {
	QuestionID  uint   `json:"questionId"`
	Question    string `json:"question"`
	Attempts    int    `json:"attempts"`
	Correct     int    `json:"correct"`
	SuccessRate int    `json:"successRate"`
}

type RecentAttempt struct {
	AttemptID   string     `json:"attemptId"`
	UserID      uint       `json:"userId"`
	UserName    string     `json:"userName"`
	Score       int        `json:"score"`
	TimeSpent   int        `json:"timeSpent"`
	CompletedAt *time.Time `json:"completedAt"`
}

type QuizAnalytics struct {
	QuizID            uint            `json:"quizId"`
	Title             string          `json:"title"`
	TotalAttempts     int             `json:"totalAttempts"`
	AverageScore      int             `json:"averageScore"`
	AverageTimeSpent  int             `json:"averageTimeSpent"`
	PassRate          int             `json:"passRate"`
	ScoreDistribution map[string]int  `json:"scoreDistribution"`
	QuestionStats     []QuestionStat  `json:"questionStats"`
	RecentAttempts    []RecentAttempt `json:"recentAttempts"`
}

// LeaderboardRow 单个用户已完成答题的汇总
type LeaderboardRow struct {
	UserID        uint
	Name          string
	Avatar        string
	TotalScore    int
	TotalAttempts int
	TotalPoints   int
	BestScore     int
}

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        uint    `json:"userId"`
	Name          string  `json:"name"`
	Avatar        string  `json:"avatar"`
	TotalScore    int     `json:"totalScore"`
	TotalAttempts int     `json:"totalAttempts"`
	AverageScore  float64 `json:"averageScore"`
	TotalPoints   int     `json:"totalPoints"`
	BestScore     int     `json:"bestScore"`
}

type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Category    string     `json:"category"`
	UnlockedAt  *time.Time `json:"unlockedAt"`
}
