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

func TestStartAttemptSnapshotsQuiz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)

	res, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, res.AttemptID)
	assert.Equal(t, 15, res.TimeLimit)
	require.Len(t, res.Quiz.Questions, 2)
	for _, q := range res.Quiz.Questions {
		assert.Empty(t, q.Explanation)
		for _, opt := range q.Options {
			assert.Nil(t, opt.IsCorrect)
		}
	}

	var stored model.QuizAttempt
	require.NoError(t, f.db.First(&stored, "id = ?", res.AttemptID).Error)
	assert.Equal(t, 2, stored.TotalPoints)
	assert.False(t, stored.Completed)

	var reloaded model.Quiz
	require.NoError(t, f.db.First(&reloaded, quiz.ID).Error)
	assert.Equal(t, 1, reloaded.Stats.TotalAttempts)
}

func TestStartAttemptRejectsUnavailableQuiz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)

	_, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, 9999)
	assert.ErrorIs(t, err, util.ErrQuizUnavailable)

	private := testutil.CreateQuiz(t, f.db, owner.ID, testutil.Private())
	_, err = f.attempts.Start(ctx, taker.ID, model.RoleUser, private.ID)
	assert.Equal(t, util.KindForbidden, util.KindOf(err))

	_, err = f.attempts.Start(ctx, owner.ID, model.RoleUser, private.ID)
	assert.NoError(t, err)

	inactive := testutil.CreateQuiz(t, f.db, owner.ID)
	require.NoError(t, f.db.Model(&model.Quiz{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)
	_, err = f.attempts.Start(ctx, taker.ID, model.RoleUser, inactive.ID)
	assert.Equal(t, util.KindNotFound, util.KindOf(err))
}

func TestSubmitScoresAndRollsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)

	started, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
	require.NoError(t, err)

	res, err := f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{
		AttemptID: started.AttemptID,
		Answers: []SubmittedAnswer{
			{QuestionID: quiz.Questions[0].ID, SelectedOption: 0, TimeSpent: 20},
			{QuestionID: quiz.Questions[1].ID, SelectedOption: 1, TimeSpent: 30},
			{QuestionID: 424242, SelectedOption: 0},
		},
		TimeSpent: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, 1, res.EarnedPoints)
	assert.Equal(t, 2, res.TotalPoints)
	assert.Equal(t, 50, res.TimeSpent)
	assert.False(t, res.Passed)
	require.Len(t, res.Answers, 2)
	assert.Equal(t, 2, res.Answers[1].CorrectOption)
	assert.Equal(t, "explanation 2", res.Answers[1].Explanation)

	var reloaded model.Quiz
	require.NoError(t, f.db.First(&reloaded, quiz.ID).Error)
	assert.Equal(t, 1, reloaded.Stats.TotalAttempts)
	assert.Equal(t, 1, reloaded.Stats.CompletedAttempts)
	assert.Equal(t, 50, reloaded.Stats.AverageScore)
	assert.Equal(t, 50, reloaded.Stats.AverageTimeSpent)
	assert.Equal(t, 0, reloaded.Stats.PassRate)

	var user model.User
	require.NoError(t, f.db.First(&user, taker.ID).Error)
	assert.Equal(t, 1, user.Stats.TotalQuizzes)
	assert.Equal(t, 1, user.Stats.CompletedQuizzes)
	assert.Equal(t, 50, user.Stats.AverageScore)
	assert.Equal(t, 50, user.Stats.TotalTimeSpent)
	assert.Equal(t, 1, user.Stats.Streak)
	assert.NotNil(t, user.Stats.LastQuizDate)

	_, err = f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{AttemptID: started.AttemptID, Answers: []SubmittedAnswer{}})
	assert.ErrorIs(t, err, util.ErrAttemptCompleted)

	require.NoError(t, f.db.First(&reloaded, quiz.ID).Error)
	assert.Equal(t, 1, reloaded.Stats.CompletedAttempts, "a rejected resubmission must not roll up again")
}

func TestSubmitPassingAttemptHidesAnswersWhenDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	settings := model.DefaultQuizSettings()
	settings.ShowCorrectAnswers = false
	quiz := testutil.CreateQuiz(t, f.db, owner.ID, testutil.WithSettings(settings))

	started, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
	require.NoError(t, err)

	res, err := f.attempts.Submit(ctx, taker.ID, 0, SubmitInput{
		AttemptID: started.AttemptID,
		Answers: []SubmittedAnswer{
			{QuestionID: quiz.Questions[0].ID, SelectedOption: 0},
			{QuestionID: quiz.Questions[1].ID, SelectedOption: 2},
		},
		TimeSpent: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.True(t, res.Passed)
	assert.Nil(t, res.Answers)

	var reloaded model.Quiz
	require.NoError(t, f.db.First(&reloaded, quiz.ID).Error)
	assert.Equal(t, 100, reloaded.Stats.PassRate)
}

func TestSubmitScoresAgainstSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)

	started, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
	require.NoError(t, err)

	// 开始答题后题目分值被调高，得分仍以快照总分 2 为分母
	require.NoError(t, f.db.Model(&model.Question{}).Where("id = ?", quiz.Questions[0].ID).Update("points", 3).Error)

	res, err := f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{
		AttemptID: started.AttemptID,
		Answers:   []SubmittedAnswer{{QuestionID: quiz.Questions[0].ID, SelectedOption: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalPoints)
	assert.Equal(t, 2, res.EarnedPoints)
	assert.Equal(t, 100, res.Score)
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	other := testutil.CreateUser(t, f.db, "other", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)
	second := testutil.CreateQuiz(t, f.db, owner.ID)

	started, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
	require.NoError(t, err)

	_, err = f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{Answers: []SubmittedAnswer{}})
	assert.ErrorIs(t, err, util.ErrAttemptFieldsMissing)
	assert.Equal(t, util.KindInvalidState, util.KindOf(err))

	_, err = f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{AttemptID: started.AttemptID})
	assert.ErrorIs(t, err, util.ErrAttemptFieldsMissing)

	_, err = f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{AttemptID: "missing", Answers: []SubmittedAnswer{}})
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)

	_, err = f.attempts.Submit(ctx, taker.ID, second.ID, SubmitInput{AttemptID: started.AttemptID, Answers: []SubmittedAnswer{}})
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)

	_, err = f.attempts.Submit(ctx, other.ID, quiz.ID, SubmitInput{AttemptID: started.AttemptID, Answers: []SubmittedAnswer{}})
	assert.ErrorIs(t, err, util.ErrNotAttemptOwner)
}

func TestStreakAcrossDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	quiz := testutil.CreateQuiz(t, f.db, owner.ID)

	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	for i, offset := range []int{0, 0, 1, 3} {
		now := day.AddDate(0, 0, offset)
		f.attempts.now = func() time.Time { return now }

		started, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
		require.NoError(t, err)
		_, err = f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{AttemptID: started.AttemptID, Answers: []SubmittedAnswer{}})
		require.NoError(t, err)

		var user model.User
		require.NoError(t, f.db.First(&user, taker.ID).Error)
		assert.Equal(t, []int{1, 1, 2, 1}[i], user.Stats.Streak, "attempt %d", i)
	}
}

func TestListMineNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "owner", model.RoleUser)
	taker := testutil.CreateUser(t, f.db, "taker", model.RoleUser)
	first := testutil.CreateQuiz(t, f.db, owner.ID, testutil.WithTitle("First"))
	second := testutil.CreateQuiz(t, f.db, owner.ID, testutil.WithTitle("Second"))

	base := time.Now().Add(-time.Hour)
	for i, quiz := range []*model.Quiz{first, second} {
		at := base.Add(time.Duration(i) * time.Minute)
		f.attempts.now = func() time.Time { return at }
		started, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, quiz.ID)
		require.NoError(t, err)
		_, err = f.attempts.Submit(ctx, taker.ID, quiz.ID, SubmitInput{AttemptID: started.AttemptID, Answers: []SubmittedAnswer{}})
		require.NoError(t, err)
	}
	_, err := f.attempts.Start(ctx, taker.ID, model.RoleUser, first.ID)
	require.NoError(t, err)

	page, err := f.attempts.ListMine(taker.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Data, 1)
	require.NotNil(t, page.Data[0].Quiz)
	assert.Equal(t, "Second", page.Data[0].Quiz.Title)
	require.NotNil(t, page.Pagination.Next)
	assert.Nil(t, page.Pagination.Prev)
}
