package service

import (
	"context"
	"errors"
	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/logger"
	"quiz_backend/pkg/monitoring"
	"quiz_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultAttemptPageSize = 10
	maxAttemptPageSize     = 100
)

type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
	QuizRepo    *repository.QuizRepository
	UserRepo    *repository.UserRepository
	now         func() time.Time
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, quizRepo *repository.QuizRepository, userRepo *repository.UserRepository) *AttemptService {
	return &AttemptService{
		AttemptRepo: attemptRepo,
		QuizRepo:    quizRepo,
		UserRepo:    userRepo,
		now:         time.Now,
	}
}

type StartResult struct {
	AttemptID string      `json:"attemptId"`
	Quiz      *QuizDetail `json:"quiz"`
	TimeLimit int         `json:"timeLimit"`
	StartedAt time.Time   `json:"startedAt"`
}

type SubmitInput struct {
	AttemptID string            `json:"attemptId"`
	Answers   []SubmittedAnswer `json:"answers"`
	TimeSpent int               `json:"timeSpent"`
}

// ReviewedAnswer 仅在测验允许显示正确答案时返回
type ReviewedAnswer struct {
	QuestionID     uint   `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	CorrectOption  int    `json:"correctOption"`
	Explanation    string `json:"explanation"`
}

type SubmitResult struct {
	AttemptID    string           `json:"attemptId"`
	Score        int              `json:"score"`
	EarnedPoints int              `json:"earnedPoints"`
	TotalPoints  int              `json:"totalPoints"`
	TimeSpent    int              `json:"timeSpent"`
	Passed       bool             `json:"passed"`
	Answers      []ReviewedAnswer `json:"answers,omitempty"`
}

// AttemptSummary 历史记录中的一条已完成答题
type AttemptSummary struct {
	ID           string     `json:"id"`
	QuizID       uint       `json:"quizId"`
	Quiz         *QuizBrief `json:"quiz,omitempty"`
	Score        int        `json:"score"`
	EarnedPoints int        `json:"earnedPoints"`
	TotalPoints  int        `json:"totalPoints"`
	TimeSpent    int        `json:"timeSpent"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

type QuizBrief struct {
	ID         uint             `json:"id"`
	Title      string           `json:"title"`
	Category   string           `json:"category"`
	Difficulty model.Difficulty `json:"difficulty"`
}

func (s *AttemptService) loadQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizUnavailable
	}
	if err != nil {
		return nil, util.Internal("find quiz", err)
	}
	return quiz, nil
}

// Start 创建答题记录，快照当前总分，返回不含答案的测验
func (s *AttemptService) Start(ctx context.Context, userID uint, role model.UserRole, quizID uint) (_ *StartResult, err error) {
	_, span := tracing.StartSpan(ctx, "attempt.start", attribute.Int64("quiz.id", int64(quizID)))
	defer func() { tracing.EndSpan(span, err) }()

	quiz, err := s.loadQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if !quiz.IsActive {
		return nil, util.ErrQuizUnavailable
	}
	if !quiz.CanBeViewedBy(userID, role) {
		return nil, util.ErrQuizPrivate
	}

	attempt := &model.QuizAttempt{
		UserID:      userID,
		QuizID:      quiz.ID,
		Answers:     []model.AttemptAnswer{},
		TotalPoints: quiz.TotalPoints,
		StartedAt:   s.now(),
	}
	if err := s.AttemptRepo.Start(attempt); err != nil {
		return nil, util.Internal("start attempt", err)
	}

	monitoring.AttemptsStarted.Inc()
	logger.Log.Info("Attempt started",
		zap.String("attemptId", attempt.ID),
		zap.Uint("quizId", quiz.ID),
		zap.Uint("userId", userID))

	return &StartResult{
		AttemptID: attempt.ID,
		Quiz:      NewQuizDetail(quiz, false),
		TimeLimit: quiz.TimeLimit,
		StartedAt: attempt.StartedAt,
	}, nil
}

// Submit 评分并同步更新测验与用户统计；quizID 为 0 时不校验答题所属测验
func (s *AttemptService) Submit(ctx context.Context, userID, quizID uint, in SubmitInput) (_ *SubmitResult, err error) {
	_, span := tracing.StartSpan(ctx, "attempt.submit", attribute.String("attempt.id", in.AttemptID))
	defer func() { tracing.EndSpan(span, err) }()

	if in.AttemptID == "" || in.Answers == nil {
		return nil, util.ErrAttemptFieldsMissing
	}

	attempt, err := s.AttemptRepo.FindByID(in.AttemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, util.Internal("find attempt", err)
	}
	if quizID != 0 && attempt.QuizID != quizID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.UserID != userID {
		return nil, util.ErrNotAttemptOwner
	}
	if attempt.Completed {
		return nil, util.ErrAttemptCompleted
	}

	quiz, err := s.QuizRepo.FindByID(attempt.QuizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, util.Internal("find quiz", err)
	}
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, util.Internal("find user", err)
	}

	timeSpent := in.TimeSpent
	if timeSpent < 0 {
		timeSpent = 0
	}
	result := ScoreAnswers(quiz, attempt.TotalPoints, in.Answers)
	now := s.now()

	attempt.Answers = result.Answers
	attempt.EarnedPoints = result.EarnedPoints
	attempt.Score = result.Score
	attempt.TimeSpent = timeSpent
	attempt.Completed = true
	attempt.CompletedAt = &now

	passingScore := quiz.PassingScore()
	quizStats := RollupQuizStats(quiz.Stats, result.Score, timeSpent, passingScore)
	userStats := RollupUserStats(user.Stats, result.Score, timeSpent, now)

	if err := s.AttemptRepo.Complete(attempt, quizStats, userStats); err != nil {
		if errors.Is(err, util.ErrAttemptCompleted) {
			return nil, err
		}
		return nil, util.Internal("complete attempt", err)
	}

	passed := result.Score >= passingScore
	monitoring.ObserveAttempt(result.Score, passed)
	logger.Log.Info("Attempt completed",
		zap.String("attemptId", attempt.ID),
		zap.Uint("quizId", quiz.ID),
		zap.Uint("userId", userID),
		zap.Int("score", result.Score),
		zap.Bool("passed", passed))

	out := &SubmitResult{
		AttemptID:    attempt.ID,
		Score:        result.Score,
		EarnedPoints: result.EarnedPoints,
		TotalPoints:  attempt.TotalPoints,
		TimeSpent:    timeSpent,
		Passed:       passed,
	}
	if quiz.Settings.ShowCorrectAnswers {
		out.Answers = reviewAnswers(quiz, result.Answers)
	}
	return out, nil
}

func reviewAnswers(quiz *model.Quiz, answers []model.AttemptAnswer) []ReviewedAnswer {
	reviewed := make([]ReviewedAnswer, 0, len(answers))
	for _, ans := range answers {
		question, ok := quiz.QuestionByID(ans.QuestionID)
		if !ok {
			continue
		}
		reviewed = append(reviewed, ReviewedAnswer{
			QuestionID:     ans.QuestionID,
			SelectedOption: ans.SelectedOption,
			IsCorrect:      ans.IsCorrect,
			CorrectOption:  question.CorrectOption(),
			Explanation:    question.Explanation,
		})
	}
	return reviewed
}

func (s *AttemptService) ListMine(userID uint, page, limit int) (*util.PageResponse[AttemptSummary], error) {
	page, limit = util.ClampPage(page, limit, defaultAttemptPageSize, maxAttemptPageSize)

	attempts, total, err := s.AttemptRepo.ListCompletedByUser(userID, page, limit)
	if err != nil {
		return nil, util.Internal("list attempts", err)
	}

	items := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		item := AttemptSummary{
			ID:           a.ID,
			QuizID:       a.QuizID,
			Score:        a.Score,
			EarnedPoints: a.EarnedPoints,
			TotalPoints:  a.TotalPoints,
			TimeSpent:    a.TimeSpent,
			StartedAt:    a.StartedAt,
			CompletedAt:  a.CompletedAt,
		}
		if a.Quiz != nil {
			item.Quiz = &QuizBrief{ID: a.Quiz.ID, Title: a.Quiz.Title, Category: a.Quiz.Category, Difficulty: a.Quiz.Difficulty}
		}
		items = append(items, item)
	}
	return util.NewPageResponse(items, page, limit, total), nil
}
