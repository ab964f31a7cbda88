package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLevelThresholds(t *testing.T) {
	cases := []struct {
		completed int
		want      string
	}{
		{0, LevelBeginner},
		{4, LevelBeginner},
		{5, LevelIntermediate},
		{19, LevelIntermediate},
		{20, LevelAdvanced},
		{49, LevelAdvanced},
		{50, LevelExpert},
	}
	for _, tc := range cases {
		u := User{Stats: UserStats{CompletedQuizzes: tc.completed}}
		assert.Equal(t, tc.want, u.Level(), "completed=%d", tc.completed)
	}
}

func TestQuestionSelection(t *testing.T) {
	q := Question{Options: []QuestionOption{
		{Text: "a"},
		{Text: "b", IsCorrect: true},
		{Text: "c"},
	}}

	assert.Equal(t, 1, q.CorrectOption())
	assert.True(t, q.IsCorrectSelection(1))
	assert.False(t, q.IsCorrectSelection(0))
	assert.False(t, q.IsCorrectSelection(3))
	assert.False(t, q.IsCorrectSelection(-1))

	none := Question{Options: []QuestionOption{{Text: "x"}, {Text: "y"}}}
	assert.Equal(t, -1, none.CorrectOption())
}

func TestRecalculateTotalPoints(t *testing.T) {
	quiz := Quiz{Questions: []Question{{Points: 1}, {Points: 2}, {Points: 3}}}
	assert.Equal(t, 6, quiz.RecalculateTotalPoints())
	assert.Equal(t, 6, quiz.TotalPoints)

	quiz.Questions = nil
	assert.Equal(t, 0, quiz.RecalculateTotalPoints())
}

func TestQuizVisibility(t *testing.T) {
	private := Quiz{CreatorID: 7, IsPublic: false}

	assert.True(t, private.CanBeViewedBy(7, RoleUser))
	assert.True(t, private.CanBeViewedBy(99, RoleAdmin))
	assert.False(t, private.CanBeViewedBy(8, RoleUser))
	assert.False(t, private.CanBeViewedBy(0, ""))

	public := Quiz{CreatorID: 7, IsPublic: true}
	assert.True(t, public.CanBeViewedBy(0, ""))
	assert.False(t, public.IsOwnedBy(8, RoleUser))
}

func TestPassingScoreDefault(t *testing.T) {
	quiz := Quiz{}
	assert.Equal(t, DefaultPassingScore, quiz.PassingScore())
	quiz.Settings.PassingScore = 75
	assert.Equal(t, 75, quiz.PassingScore())
}
