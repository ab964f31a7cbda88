package service

import (
	"context"
	"errors"
	"fmt"
	"quiz_backend/internal/config"
	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
	"quiz_backend/pkg/cache"
	"sort"
	"time"

	"gorm.io/gorm"
)

const (
	TimeframeAll   = "all"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
	TimeframeYear  = "year"

	defaultLeaderboardSize = 20
	maxLeaderboardSize     = 50
	recentAttemptLimit     = 10
	questionPreviewLength  = 50
	weakCategoryThreshold  = 70
	challengeThreshold     = 80
	consistencyStreak      = 3
)

type AnalyticsService struct {
	AttemptRepo *repository.AttemptRepository
	QuizRepo    *repository.QuizRepository
	UserRepo    *repository.UserRepository
	Cfg         *config.Config
	Cache       *cache.Loader
	now         func() time.Time
}

func NewAnalyticsService(
	attemptRepo *repository.AttemptRepository,
	quizRepo *repository.QuizRepository,
	userRepo *repository.UserRepository,
	cfg *config.Config,
	loader *cache.Loader,
) *AnalyticsService {
	return &AnalyticsService{
		AttemptRepo: attemptRepo,
		QuizRepo:    quizRepo,
		UserRepo:    userRepo,
		Cfg:         cfg,
		Cache:       loader,
		now:         time.Now,
	}
}

// TimeframeStart 以当前时间向前滚动的起点，未知的 timeframe 返回 nil
func TimeframeStart(timeframe string, now time.Time) *time.Time {
	var days int
	switch timeframe {
	case TimeframeWeek:
		days = 7
	case TimeframeMonth:
		days = 30
	case TimeframeYear:
		days = 365
	default:
		return nil
	}
	since := now.Add(-time.Duration(days) * 24 * time.Hour)
	return &since
}

func meanScore(attempts []model.QuizAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0
	for _, a := range attempts {
		sum += a.Score
	}
	return float64(sum) / float64(len(attempts))
}

// ImprovementRate attempts 需按完成时间升序；前半段均分为 0 时返回 0
func ImprovementRate(attempts []model.QuizAttempt) int {
	if len(attempts) < 2 {
		return 0
	}
	half := len(attempts) / 2
	first := meanScore(attempts[:half])
	second := meanScore(attempts[half:])
	if first == 0 {
		return 0
	}
	return util.Round((second - first) / first * 100)
}

func quizCategory(a model.QuizAttempt) string {
	if a.Quiz == nil {
		return ""
	}
	return a.Quiz.Category
}

// CategoryStats 按平均分降序，平均分相同按分类名升序
func CategoryStats(attempts []model.QuizAttempt) []model.CategoryStat {
	index := make(map[string]int)
	stats := make([]model.CategoryStat, 0)
	for _, a := range attempts {
		category := quizCategory(a)
		i, ok := index[category]
		if !ok {
			i = len(stats)
			index[category] = i
			stats = append(stats, model.CategoryStat{Category: category})
		}
		stats[i].Attempts++
		stats[i].TotalScore += a.Score
	}
	for i := range stats {
		stats[i].AverageScore = util.Round(float64(stats[i].TotalScore) / float64(stats[i].Attempts))
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].AverageScore != stats[j].AverageScore {
			return stats[i].AverageScore > stats[j].AverageScore
		}
		return stats[i].Category < stats[j].Category
	})
	return stats
}

// StrengthsAndWeaknesses categories 已按平均分降序；弱项最弱的在前
func StrengthsAndWeaknesses(categories []model.CategoryStat) ([]model.CategoryStat, []model.CategoryStat) {
	n := len(categories)
	top := 3
	if n < top {
		top = n
	}
	strengths := append([]model.CategoryStat{}, categories[:top]...)

	weaknesses := make([]model.CategoryStat, 0, top)
	for i := n - 1; i >= n-top; i-- {
		weaknesses = append(weaknesses, categories[i])
	}
	return strengths, weaknesses
}

// DifficultyStats 固定输出 easy、medium、hard 三档
func DifficultyStats(attempts []model.QuizAttempt) []model.DifficultyStat {
	levels := []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard}
	totals := make(map[model.Difficulty][2]int, len(levels))
	for _, a := range attempts {
		if a.Quiz == nil {
			continue
		}
		t := totals[a.Quiz.Difficulty]
		t[0]++
		t[1] += a.Score
		totals[a.Quiz.Difficulty] = t
	}

	stats := make([]model.DifficultyStat, 0, len(levels))
	for _, level := range levels {
		stat := model.DifficultyStat{Difficulty: level}
		if t := totals[level]; t[0] > 0 {
			stat.Attempts = t[0]
			stat.AverageScore = util.Round(float64(t[1]) / float64(t[0]))
		}
		stats = append(stats, stat)
	}
	return stats
}

// DailyPerformance 按完成时间的 UTC 日期分组，日期升序
func DailyPerformance(attempts []model.QuizAttempt) []model.DailyPerformance {
	type day struct {
		total, count int
	}
	days := make(map[string]*day)
	for _, a := range attempts {
		if a.CompletedAt == nil {
			continue
		}
		key := a.CompletedAt.UTC().Format(util.DateFormat)
		d, ok := days[key]
		if !ok {
			d = &day{}
			days[key] = d
		}
		d.total += a.Score
		d.count++
	}

	series := make([]model.DailyPerformance, 0, len(days))
	for date, d := range days {
		series = append(series, model.DailyPerformance{
			Date:         date,
			AverageScore: util.Round(float64(d.total) / float64(d.count)),
			QuizCount:    d.count,
		})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

func Recommendations(categories []model.CategoryStat, stats model.UserStats) []model.Recommendation {
	recs := make([]model.Recommendation, 0, 3)
	for _, c := range categories {
		if c.AverageScore < weakCategoryThreshold {
			recs = append(recs, model.Recommendation{
				Type:        model.RecommendationImprovement,
				Title:       "Focus on weak subjects",
				Description: fmt.Sprintf("Consider practicing more %s quizzes to improve your score from %d%%", c.Category, c.AverageScore),
				Category:    c.Category,
			})
			break
		}
	}
	if stats.AverageScore > challengeThreshold {
		recs = append(recs, model.Recommendation{
			Type:        model.RecommendationChallenge,
			Title:       "Try harder difficulty",
			Description: "Your performance is excellent! Consider challenging yourself with harder difficulty quizzes.",
		})
	}
	if stats.Streak < consistencyStreak {
		recs = append(recs, model.Recommendation{
			Type:        model.RecommendationConsistency,
			Title:       "Build a learning streak",
			Description: "Try to take quizzes regularly to build knowledge retention and improve your learning streak.",
		})
	}
	return recs
}

// BuildUserAnalytics attempts 需按完成时间升序
func BuildUserAnalytics(timeframe string, user *model.User, attempts []model.QuizAttempt) *model.UserAnalytics {
	totalTime := 0
	for _, a := range attempts {
		totalTime += a.TimeSpent
	}

	categories := CategoryStats(attempts)
	strengths, weaknesses := StrengthsAndWeaknesses(categories)
	return &model.UserAnalytics{
		Timeframe:        timeframe,
		TotalAttempts:    len(attempts),
		AverageScore:     util.Round(meanScore(attempts)),
		TotalTimeSpent:   totalTime,
		ImprovementRate:  ImprovementRate(attempts),
		CategoryStats:    categories,
		DifficultyStats:  DifficultyStats(attempts),
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		DailyPerformance: DailyPerformance(attempts),
		Recommendations:  Recommendations(categories, user.Stats),
	}
}

func (s *AnalyticsService) UserAnalytics(ctx context.Context, userID uint, timeframe string) (*model.UserAnalytics, error) {
	since := TimeframeStart(timeframe, s.now())
	if since == nil {
		timeframe = TimeframeMonth
		since = TimeframeStart(timeframe, s.now())
	}
	key := fmt.Sprintf("%s%d:%s", util.CacheKeyUserAnalytics, userID, timeframe)

	var analytics model.UserAnalytics
	err := s.Cache.Remember(ctx, key, s.Cfg.Cache.AnalyticsTTL(), &analytics, func() (interface{}, error) {
		user, err := s.UserRepo.FindByID(userID)
		if err != nil {
			return nil, err
		}
		attempts, err := s.AttemptRepo.ListCompletedByUserSince(userID, since)
		if err != nil {
			return nil, err
		}
		return BuildUserAnalytics(timeframe, user, attempts), nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, util.Internal("build user analytics", err)
	}
	return &analytics, nil
}

// ScoreDistribution 区间上界包含在内
func ScoreDistribution(attempts []model.QuizAttempt) map[string]int {
	dist := map[string]int{"0-20": 0, "21-40": 0, "41-60": 0, "61-80": 0, "81-100": 0}
	for _, a := range attempts {
		switch {
		case a.Score <= 20:
			dist["0-20"]++
		case a.Score <= 40:
			dist["21-40"]++
		case a.Score <= 60:
			dist["41-60"]++
		case a.Score <= 80:
			dist["61-80"]++
		default:
			dist["81-100"]++
		}
	}
	return dist
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= questionPreviewLength {
		return text
	}
	return string(runes[:questionPreviewLength]) + "..."
}

// QuestionSuccessRates 只统计作答过该题的答题记录，按正确率升序
func QuestionSuccessRates(quiz *model.Quiz, attempts []model.QuizAttempt) []model.QuestionStat {
	stats := make([]model.QuestionStat, 0, len(quiz.Questions))
	index := make(map[uint]int, len(quiz.Questions))
	for _, q := range quiz.Questions {
		index[q.ID] = len(stats)
		stats = append(stats, model.QuestionStat{QuestionID: q.ID, Question: previewText(q.Text)})
	}

	for _, a := range attempts {
		for _, ans := range a.Answers {
			i, ok := index[ans.QuestionID]
			if !ok {
				continue
			}
			stats[i].Attempts++
			if ans.IsCorrect {
				stats[i].Correct++
			}
		}
	}
	for i := range stats {
		if stats[i].Attempts > 0 {
			stats[i].SuccessRate = util.Round(float64(stats[i].Correct) / float64(stats[i].Attempts) * 100)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].SuccessRate < stats[j].SuccessRate })
	return stats
}

// BuildQuizAnalytics attempts 需按完成时间升序
func BuildQuizAnalytics(quiz *model.Quiz, attempts []model.QuizAttempt) *model.QuizAnalytics {
	n := len(attempts)
	analytics := &model.QuizAnalytics{
		QuizID:            quiz.ID,
		Title:             quiz.Title,
		TotalAttempts:     n,
		ScoreDistribution: ScoreDistribution(attempts),
		QuestionStats:     QuestionSuccessRates(quiz, attempts),
		RecentAttempts:    make([]model.RecentAttempt, 0, recentAttemptLimit),
	}
	if n == 0 {
		return analytics
	}

	passing := quiz.PassingScore()
	totalTime, passed := 0, 0
	for _, a := range attempts {
		totalTime += a.TimeSpent
		if a.Score >= passing {
			passed++
		}
	}
	analytics.AverageScore = util.Round(meanScore(attempts))
	analytics.AverageTimeSpent = util.Round(float64(totalTime) / float64(n))
	analytics.PassRate = util.Round(float64(passed) / float64(n) * 100)

	for i := n - 1; i >= 0 && len(analytics.RecentAttempts) < recentAttemptLimit; i-- {
		a := attempts[i]
		recent := model.RecentAttempt{
			AttemptID:   a.ID,
			UserID:      a.UserID,
			Score:       a.Score,
			TimeSpent:   a.TimeSpent,
			CompletedAt: a.CompletedAt,
		}
		if a.User != nil {
			recent.UserName = a.User.Name
		}
		analytics.RecentAttempts = append(analytics.RecentAttempts, recent)
	}
	return analytics
}

// QuizAnalytics 仅创建者和管理员可查看
func (s *AnalyticsService) QuizAnalytics(quizID, userID uint, role model.UserRole) (*model.QuizAnalytics, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, util.Internal("find quiz", err)
	}
	if !quiz.IsOwnedBy(userID, role) {
		return nil, util.ErrQuizAnalyticsDenied
	}

	attempts, err := s.AttemptRepo.ListCompletedByQuiz(quizID)
	if err != nil {
		return nil, util.Internal("list quiz attempts", err)
	}
	return BuildQuizAnalytics(quiz, attempts), nil
}

// RankLeaderboard 平均分降序，其次累计得分降序，最后按用户 ID 升序
func RankLeaderboard(rows []model.LeaderboardRow) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		if row.TotalAttempts == 0 {
			continue
		}
		entries = append(entries, model.LeaderboardEntry{
			UserID:        row.UserID,
			Name:          row.Name,
			Avatar:        row.Avatar,
			TotalScore:    row.TotalScore,
			TotalAttempts: row.TotalAttempts,
			AverageScore:  util.Round2(float64(row.TotalScore) / float64(row.TotalAttempts)),
			TotalPoints:   row.TotalPoints,
			BestScore:     row.BestScore,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

type LeaderboardQuery struct {
	Timeframe string
	Category  string
	Page      int
	Limit     int
}

// Leaderboard 只支持 week 与 month，其他 timeframe 视为 all
func (s *AnalyticsService) Leaderboard(q LeaderboardQuery) (*util.PageResponse[model.LeaderboardEntry], error) {
	page, limit := util.ClampPage(q.Page, q.Limit, defaultLeaderboardSize, maxLeaderboardSize)

	var since *time.Time
	switch q.Timeframe {
	case TimeframeWeek, TimeframeMonth:
		since = TimeframeStart(q.Timeframe, s.now())
	}

	rows, err := s.AttemptRepo.LeaderboardRows(since, q.Category)
	if err != nil {
		return nil, util.Internal("load leaderboard", err)
	}

	ranked := RankLeaderboard(rows)
	total := int64(len(ranked))
	start := util.Offset(page, limit)
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return util.NewPageResponse(ranked[start:end], page, limit, total), nil
}
