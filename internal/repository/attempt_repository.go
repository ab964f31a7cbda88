package repository

import (
	"quiz_backend/internal/model"
	"quiz_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func quizSummary(db *gorm.DB) *gorm.DB {
	return db.Unscoped().Select("id", "title", "category", "difficulty", "total_points", "creator_id")
}

// Start 创建答题记录并累加测验的尝试次数
func (r *AttemptRepository) Start(attempt *model.QuizAttempt) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		return tx.Model(&model.Quiz{}).
			Where("id = ?", attempt.QuizID).
			UpdateColumn("stats_total_attempts", gorm.Expr("stats_total_attempts + ?", 1)).
			Error
	})
}

func (r *AttemptRepository) FindByID(id string) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.First(&attempt, "id = ?", id).Error
	return &attempt, err
}

// Complete 在一个事务内保存答题结果、测验统计与用户统计；
// 答题记录已完成时返回 util.ErrAttemptCompleted 且不做任何修改
func (r *AttemptRepository) Complete(attempt *model.QuizAttempt, quizStats model.QuizStats, userStats model.UserStats) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QuizAttempt{}).
			Where("id = ? AND completed = ?", attempt.ID, false).
			Updates(map[string]interface{}{
				"answers":       attempt.Answers,
				"score":         attempt.Score,
				"earned_points": attempt.EarnedPoints,
				"time_spent":    attempt.TimeSpent,
				"completed":     true,
				"completed_at":  attempt.CompletedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAttemptCompleted
		}

		err := tx.Model(&model.Quiz{}).Where("id = ?", attempt.QuizID).Updates(map[string]interface{}{
			"stats_completed_attempts": quizStats.CompletedAttempts,
			"stats_average_score":      quizStats.AverageScore,
			"stats_average_time_spent": quizStats.AverageTimeSpent,
			"stats_pass_rate":          quizStats.PassRate,
		}).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.User{}).Where("id = ?", attempt.UserID).Updates(map[string]interface{}{
			"stats_total_quizzes":     userStats.TotalQuizzes,
			"stats_completed_quizzes": userStats.CompletedQuizzes,
			"stats_average_score":     userStats.AverageScore,
			"stats_total_time_spent":  userStats.TotalTimeSpent,
			"stats_streak":            userStats.Streak,
			"stats_last_quiz_date":    userStats.LastQuizDate,
		}).Error
	})
}

// ListCompletedByUser 分页查询用户已完成的答题，最近完成的在前
func (r *AttemptRepository) ListCompletedByUser(userID uint, page, limit int) ([]model.QuizAttempt, int64, error) {
	query := r.DB.Model(&model.QuizAttempt{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	attempts := make([]model.QuizAttempt, 0)
	err := query.
		Preload("Quiz", quizSummary).
		Order("completed_at DESC").
		Offset(util.Offset(page, limit)).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}

// ListCompletedByUserSince since 为空时返回全部，按完成时间升序
func (r *AttemptRepository) ListCompletedByUserSince(userID uint, since *time.Time) ([]model.QuizAttempt, error) {
	query := r.DB.Where("user_id = ? AND completed = ?", userID, true)
	if since != nil {
		query = query.Where("completed_at >= ?", *since)
	}

	var attempts []model.QuizAttempt
	err := query.
		Preload("Quiz", quizSummary).
		Order("completed_at ASC").
		Find(&attempts).Error
	return attempts, err
}

// ListCompletedByQuiz 按完成时间升序
func (r *AttemptRepository) ListCompletedByQuiz(quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("quiz_id = ? AND completed = ?", quizID, true).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "name", "avatar")
		}).
		Order("completed_at ASC").
		Find(&attempts).Error
	return attempts, err
}

// LeaderboardRows 按用户汇总已完成的答题，仅统计有效账号；排序交给调用方
func (r *AttemptRepository) LeaderboardRows(since *time.Time, category string) ([]model.LeaderboardRow, error) {
	query := r.DB.Table("quiz_attempts AS a").
		Select("a.user_id, u.name, u.avatar, " +
			"SUM(a.score) AS total_score, COUNT(*) AS total_attempts, " +
			"SUM(a.earned_points) AS total_points, MAX(a.score) AS best_score").
		Joins("JOIN users u ON u.id = a.user_id AND u.deleted_at IS NULL AND u.is_active = ?", true).
		Where("a.completed = ? AND a.deleted_at IS NULL", true).
		Group("a.user_id, u.name, u.avatar")

	if since != nil {
		query = query.Where("a.completed_at >= ?", *since)
	}
	if category != "" {
		query = query.Joins("JOIN quizzes q ON q.id = a.quiz_id").Where("q.category = ?", category)
	}

	rows := make([]model.LeaderboardRow, 0)
	err := query.Scan(&rows).Error
	return rows, err
}
