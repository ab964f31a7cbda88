package repository

import (
	"encoding/json"
	"quiz_backend/internal/model"
	"strings"

	"gorm.io/gorm"
)

const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortPopular = "popular"
	SortRating  = "rating"
)

type QuizFilter struct {
	Category   string
	Difficulty string
	Search     string
	Tags       []string
	Sort       string
	Page       int
	Limit      int
}

// QuizListRow 列表行，不含题目，附带题目数量与创建者名称
type QuizListRow struct {
	model.Quiz
	QuestionCount int    `json:"questionCount"`
	CreatorName   string `json:"creatorName"`
}

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Creator", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped().Select("id", "name", "avatar")
		}).
		First(&quiz, id).Error
	return &quiz, err
}

// likeEscaper 用户输入里的 % 和 _ 按字面匹配，转义符取 ! 以兼容 MySQL 与 SQLite
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func applyQuizFilter(db *gorm.DB, f QuizFilter) *gorm.DB {
	db = db.Where("quizzes.is_public = ? AND quizzes.is_active = ?", true, true)
	if f.Category != "" {
		db = db.Where("LOWER(quizzes.category) LIKE ? ESCAPE '!'", containsPattern(strings.ToLower(f.Category)))
	}
	if f.Difficulty != "" {
		db = db.Where("quizzes.difficulty = ?", f.Difficulty)
	}
	if f.Search != "" {
		db = db.Where("LOWER(quizzes.title) LIKE ? ESCAPE '!'", containsPattern(strings.ToLower(f.Search)))
	}
	if len(f.Tags) > 0 {
		// 标签以 JSON 数组存储，按带引号的元素匹配任一标签
		clauses := make([]string, 0, len(f.Tags))
		args := make([]interface{}, 0, len(f.Tags))
		for _, tag := range f.Tags {
			quoted, _ := json.Marshal(tag)
			clauses = append(clauses, "quizzes.tags LIKE ? ESCAPE '!'")
			args = append(args, containsPattern(string(quoted)))
		}
		db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	return db
}

func quizOrder(sort string) string {
	switch sort {
	case SortOldest:
		return "quizzes.created_at ASC, quizzes.id ASC"
	case SortPopular:
		return "quizzes.stats_total_attempts DESC, quizzes.id DESC"
	case SortRating:
		return "quizzes.stats_average_score DESC, quizzes.id DESC"
	default:
		return "quizzes.created_at DESC, quizzes.id DESC"
	}
}

func (r *QuizRepository) List(f QuizFilter) ([]QuizListRow, int64, error) {
	var total int64
	if err := applyQuizFilter(r.DB.Model(&model.Quiz{}), f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]QuizListRow, 0)
	err := applyQuizFilter(r.DB.Model(&model.Quiz{}), f).
		Select("quizzes.*, " +
			"(SELECT COUNT(*) FROM quiz_questions qq WHERE qq.quiz_id = quizzes.id AND qq.deleted_at IS NULL) AS question_count, " +
			"u.name AS creator_name").
		Joins("LEFT JOIN users u ON u.id = quizzes.creator_id").
		Order(quizOrder(f.Sort)).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Scan(&rows).Error
	return rows, total, err
}

// UpdateWithQuestions 更新可编辑字段并同步题目，统计字段不在此处写入
func (r *QuizRepository) UpdateWithQuestions(quiz *model.Quiz, removedIDs []uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Quiz{}).Where("id = ?", quiz.ID).Updates(map[string]interface{}{
			"title":                         quiz.Title,
			"description":                   quiz.Description,
			"category":                      quiz.Category,
			"difficulty":                    quiz.Difficulty,
			"time_limit":                    quiz.TimeLimit,
			"total_points":                  quiz.TotalPoints,
			"is_public":                     quiz.IsPublic,
			"tags":                          quiz.Tags,
			"settings_shuffle_questions":    quiz.Settings.ShuffleQuestions,
			"settings_shuffle_options":      quiz.Settings.ShuffleOptions,
			"settings_allow_review":         quiz.Settings.AllowReview,
			"settings_show_correct_answers": quiz.Settings.ShowCorrectAnswers,
			"settings_passing_score":        quiz.Settings.PassingScore,
		}).Error
		if err != nil {
			return err
		}

		if len(removedIDs) > 0 {
			if err := tx.Where("quiz_id = ? AND id IN ?", quiz.ID, removedIDs).Delete(&model.Question{}).Error; err != nil {
				return err
			}
		}

		for i := range quiz.Questions {
			question := &quiz.Questions[i]
			question.QuizID = quiz.ID
			if err := tx.Save(question).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Deactivate 软删除测验
func (r *QuizRepository) Deactivate(id uint) error {
	return r.DB.Model(&model.Quiz{}).
		Where("id = ?", id).
		Update("is_active", false).
		Error
}
