package service

import (
	"context"
	"testing"
	"time"

	"quiz_backend/internal/model"
	"quiz_backend/internal/testutil"
	"quiz_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(scores ...int) []model.QuizAttempt {
	attempts := make([]model.QuizAttempt, len(scores))
	for i, s := range scores {
		attempts[i].Score = s
	}
	return attempts
}

func inCategory(category string, difficulty model.Difficulty, score int, at time.Time) model.QuizAttempt {
	return model.QuizAttempt{
		Score:       score,
		TimeSpent:   60,
		CompletedAt: &at,
		Quiz:        &model.Quiz{Category: category, Difficulty: difficulty},
	}
}

func TestImprovementRate(t *testing.T) {
	assert.Equal(t, 55, ImprovementRate(scored(50, 60, 80, 90)))
	assert.Equal(t, 0, ImprovementRate(scored(70)))
	assert.Equal(t, 0, ImprovementRate(scored(0, 80)))
	assert.Equal(t, -50, ImprovementRate(scored(80, 40)))
}

func TestTimeframeStart(t *testing.T) {
	now := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now.AddDate(0, 0, -7), *TimeframeStart(TimeframeWeek, now))
	assert.Equal(t, now.AddDate(0, 0, -30), *TimeframeStart(TimeframeMonth, now))
	assert.Equal(t, now.AddDate(0, 0, -365), *TimeframeStart(TimeframeYear, now))
	assert.Nil(t, TimeframeStart(TimeframeAll, now))
	assert.Nil(t, TimeframeStart("decade", now))
}

func TestCategoryStrengthsAndWeaknesses(t *testing.T) {
	now := time.Now()
	attempts := []model.QuizAttempt{
		inCategory("Programming", model.DifficultyEasy, 90, now),
		inCategory("Programming", model.DifficultyEasy, 80, now),
		inCategory("Frontend", model.DifficultyMedium, 60, now),
		inCategory("Backend", model.DifficultyHard, 40, now),
		inCategory("Databases", model.DifficultyMedium, 70, now),
	}

	categories := CategoryStats(attempts)
	require.Len(t, categories, 4)
	assert.Equal(t, "Programming", categories[0].Category)
	assert.Equal(t, 85, categories[0].AverageScore)
	assert.Equal(t, 2, categories[0].Attempts)

	strengths, weaknesses := StrengthsAndWeaknesses(categories)
	assert.Equal(t, []string{"Programming", "Databases", "Frontend"}, categoryNames(strengths))
	assert.Equal(t, []string{"Backend", "Frontend", "Databases"}, categoryNames(weaknesses))

	strengths, weaknesses = StrengthsAndWeaknesses(nil)
	assert.Empty(t, strengths)
	assert.Empty(t, weaknesses)

	difficulties := DifficultyStats(attempts)
	require.Len(t, difficulties, 3)
	assert.Equal(t, model.DifficultyEasy, difficulties[0].Difficulty)
	assert.Equal(t, 85, difficulties[0].AverageScore)
	assert.Equal(t, 2, difficulties[1].Attempts)
	assert.Equal(t, 65, difficulties[1].AverageScore)
	assert.Equal(t, 40, difficulties[2].AverageScore)
}

func categoryNames(stats []model.CategoryStat) []string {
	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Category
	}
	return names
}

func TestDailyPerformance(t *testing.T) {
	d1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC)
	series := DailyPerformance([]model.QuizAttempt{
		inCategory("A", model.DifficultyEasy, 100, d2),
		inCategory("A", model.DifficultyEasy, 50, d1),
		inCategory("A", model.DifficultyEasy, 75, d1.Add(time.Hour)),
	})

	require.Len(t, series, 2)
	assert.Equal(t, model.DailyPerformance{Date: "2024-03-01", AverageScore: 63, QuizCount: 2}, series[0])
	assert.Equal(t, "2024-03-03", series[1].Date)
}

func TestRecommendations(t *testing.T) {
	categories := []model.CategoryStat{
		{Category: "Programming", AverageScore: 90},
		{Category: "Frontend", AverageScore: 65},
		{Category: "Backend", AverageScore: 40},
	}

	recs := Recommendations(categories, model.UserStats{AverageScore: 85, Streak: 1})
	require.Len(t, recs, 3)
	assert.Equal(t, model.RecommendationImprovement, recs[0].Type)
	assert.Equal(t, "Frontend", recs[0].Category)
	assert.Contains(t, recs[0].Description, "65%")
	assert.Equal(t, model.RecommendationChallenge, recs[1].Type)
	assert.Equal(t, model.RecommendationConsistency, recs[2].Type)

	recs = Recommendations(categories[:1], model.UserStats{AverageScore: 80, Streak: 3})
	assert.Empty(t, recs)
}

func TestScoreDistribution(t *testing.T) {
	dist := ScoreDistribution(scored(0, 20, 21, 40, 60, 61, 80, 81, 100))
	assert.Equal(t, map[string]int{"0-20": 2, "21-40": 2, "41-60": 1, "61-80": 2, "81-100": 2}, dist)
}

func TestQuestionSuccessRates(t *testing.T) {
	long := "Which of the following statements about closures in JavaScript is correct?"
	quiz := &model.Quiz{Questions: []model.Question{
		{BaseModel: model.BaseModel{ID: 1}, Text: long},
		{BaseModel: model.BaseModel{ID: 2}, Text: "short"},
		{BaseModel: model.BaseModel{ID: 3}, Text: "never answered"},
	}}
	attempts := []model.QuizAttempt{
		{Answers: []model.AttemptAnswer{{QuestionID: 1, IsCorrect: true}, {QuestionID: 2, IsCorrect: false}}},
		{Answers: []model.AttemptAnswer{{QuestionID: 1, IsCorrect: true}, {QuestionID: 2, IsCorrect: true}}},
		{Answers: []model.AttemptAnswer{{QuestionID: 1, IsCorrect: false}}},
	}

	stats := QuestionSuccessRates(quiz, attempts)
	require.Len(t, stats, 3)
	assert.Equal(t, uint(3), stats[0].QuestionID)
	assert.Equal(t, 0, stats[0].Attempts)
	assert.Equal(t, uint(2), stats[1].QuestionID)
	assert.Equal(t, 50, stats[1].SuccessRate)
	assert.Equal(t, uint(1), stats[2].QuestionID)
	assert.Equal(t, 67, stats[2].SuccessRate)
	assert.Equal(t, long[:50]+"...", stats[2].Question)
	assert.Equal(t, "short", stats[1].Question)
}

func TestRankLeaderboard(t *testing.T) {
	rows := []model.LeaderboardRow{
		{UserID: 3, Name: "carol", TotalScore: 90, TotalAttempts: 1, TotalPoints: 9, BestScore: 90},
		{UserID: 1, Name: "alice", TotalScore: 180, TotalAttempts: 2, TotalPoints: 18, BestScore: 100},
		{UserID: 2, Name: "bob", TotalScore: 90, TotalAttempts: 1, TotalPoints: 18, BestScore: 90},
		{UserID: 4, Name: "dave", TotalScore: 90, TotalAttempts: 1, TotalPoints: 9, BestScore: 90},
		{UserID: 5, Name: "erin", TotalScore: 200, TotalAttempts: 3, TotalPoints: 3, BestScore: 100},
		{UserID: 6, Name: "nobody"},
	}

	entries := RankLeaderboard(rows)
	require.Len(t, entries, 5)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, []uint{entries[0].UserID, entries[1].UserID, entries[2].UserID, entries[3].UserID, entries[4].UserID})
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 5, entries[4].Rank)

	alice := entries[0]
	assert.Equal(t, 180, alice.TotalScore)
	assert.Equal(t, 2, alice.TotalAttempts)
	assert.Equal(t, 90.0, alice.AverageScore)
	assert.Equal(t, 18, alice.TotalPoints)
	assert.Equal(t, 100, alice.BestScore)

	assert.Equal(t, 66.67, entries[4].AverageScore)
}

func completeAttempt(t *testing.T, f *fixture, userID uint, quiz *model.Quiz, correct int, at time.Time) {
	t.Helper()
	f.attempts.now = func() time.Time { return at }
	started, err := f.attempts.Start(context.Background(), userID, model.RoleUser, quiz.ID)
	require.NoError(t, err)

	answers := []SubmittedAnswer{}
	for i, q := range quiz.Questions {
		selected := 1
		if i < correct {
			selected = q.CorrectOption()
		}
		answers = append(answers, SubmittedAnswer{QuestionID: q.ID, SelectedOption: selected})
	}
	_, err = f.attempts.Submit(context.Background(), userID, quiz.ID, SubmitInput{AttemptID: started.AttemptID, Answers: answers, TimeSpent: 30})
	require.NoError(t, err)
}

func TestUserAnalyticsIsCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)

	now := time.Now()
	completeAttempt(t, f, taker.ID, quiz, 1, now.Add(-40*24*time.Hour))
	completeAttempt(t, f, taker.ID, quiz, 1, now.Add(-2*time.Hour))
	completeAttempt(t, f, taker.ID, quiz, 2, now.Add(-time.Hour))

	analytics, err := f.analytics.UserAnalytics(ctx, taker.ID, "bogus")
	require.NoError(t, err)
	assert.Equal(t, TimeframeMonth, analytics.Timeframe)
	assert.Equal(t, 2, analytics.TotalAttempts)
	assert.Equal(t, 75, analytics.AverageScore)
	assert.Equal(t, 60, analytics.TotalTimeSpent)
	assert.Equal(t, 100, analytics.ImprovementRate)
	require.Len(t, analytics.CategoryStats, 1)
	assert.Equal(t, "Programming", analytics.CategoryStats[0].Category)

	year, err := f.analytics.UserAnalytics(ctx, taker.ID, TimeframeYear)
	require.NoError(t, err)
	assert.Equal(t, 3, year.TotalAttempts)

	completeAttempt(t, f, taker.ID, quiz, 0, now)
	cached, err := f.analytics.UserAnalytics(ctx, taker.ID, TimeframeMonth)
	require.NoError(t, err)
	assert.Equal(t, 2, cached.TotalAttempts, "served from cache until the entry expires")
}

func TestQuizAnalytics(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)

	base := time.Now().Add(-time.Hour)
	completeAttempt(t, f, taker.ID, quiz, 2, base)
	completeAttempt(t, f, taker.ID, quiz, 1, base.Add(time.Minute))
	completeAttempt(t, f, owner.ID, quiz, 0, base.Add(2*time.Minute))

	_, err := f.analytics.QuizAnalytics(quiz.ID, taker.ID, model.RoleUser)
	assert.ErrorIs(t, err, util.ErrQuizAnalyticsDenied)
	_, err = f.analytics.QuizAnalytics(9999, owner.ID, model.RoleUser)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))

	analytics, err := f.analytics.QuizAnalytics(quiz.ID, owner.ID, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 3, analytics.TotalAttempts)
	assert.Equal(t, 50, analytics.AverageScore)
	assert.Equal(t, 30, analytics.AverageTimeSpent)
	assert.Equal(t, 33, analytics.PassRate)
	assert.Equal(t, 1, analytics.ScoreDistribution["0-20"])
	assert.Equal(t, 1, analytics.ScoreDistribution["41-60"])
	assert.Equal(t, 1, analytics.ScoreDistribution["81-100"])
	require.Len(t, analytics.RecentAttempts, 3)
	assert.Equal(t, "owner", analytics.RecentAttempts[0].UserName)
	assert.Equal(t, 100, analytics.RecentAttempts[2].Score)
	require.Len(t, analytics.QuestionStats, 2)
	assert.Equal(t, 33, analytics.QuestionStats[0].SuccessRate)
	assert.Equal(t, 67, analytics.QuestionStats[1].SuccessRate)
}

func TestLeaderboardPaginationAndFilters(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	alice := testutil.CreateUser(t, f.db, "alice", model.RoleUser)
	bob := testutil.CreateUser(t, f.db, "bob", model.RoleUser)
	carol := testutil.CreateUser(t, f.db, "carol", model.RoleUser)
	programming := testutil.CreateQuiz(t, f.db, owner.ID)
	frontend := testutil.CreateQuiz(t, f.db, owner.ID, testutil.WithCategory("Frontend"))

	now := time.Now()
	completeAttempt(t, f, alice.ID, programming, 2, now.Add(-time.Hour))
	completeAttempt(t, f, bob.ID, programming, 1, now.Add(-time.Hour))
	completeAttempt(t, f, carol.ID, frontend, 2, now.Add(-20*24*time.Hour))

	page, err := f.analytics.Leaderboard(LeaderboardQuery{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 1, page.Data[0].Rank)
	assert.Equal(t, 100.0, page.Data[0].AverageScore)
	assert.Equal(t, carol.ID, page.Data[1].UserID, "equal averages fall back to total points then user id")

	page, err = f.analytics.Leaderboard(LeaderboardQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 3, page.Data[0].Rank)
	assert.Equal(t, bob.ID, page.Data[0].UserID)
	assert.NotNil(t, page.Pagination.Prev)

	page, err = f.analytics.Leaderboard(LeaderboardQuery{Timeframe: TimeframeWeek})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 20, page.Pagination.Limit)

	page, err = f.analytics.Leaderboard(LeaderboardQuery{Category: "Frontend"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, carol.ID, page.Data[0].UserID)

	page, err = f.analytics.Leaderboard(LeaderboardQuery{Page: 9, Limit: 500})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 50, page.Pagination.Limit)
}
