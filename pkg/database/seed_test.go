package database_test

import (
	"testing"

	"quiz_backend/internal/model"
	"quiz_backend/internal/testutil"
	"quiz_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, database.Seed(db))

	var users []model.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 3)
	assert.Equal(t, model.RoleAdmin, users[2].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[2].Password), []byte("AdminPass123")))

	var quizzes []model.Quiz
	require.NoError(t, db.Preload("Questions").Order("id").Find(&quizzes).Error)
	require.Len(t, quizzes, 3)

	points := []int{quizzes[0].TotalPoints, quizzes[1].TotalPoints, quizzes[2].TotalPoints}
	assert.Equal(t, []int{2, 4, 3}, points)
	assert.Equal(t, users[1].ID, quizzes[1].CreatorID)
	for _, q := range quizzes {
		assert.True(t, q.IsPublic)
		assert.True(t, q.IsActive)
		for _, question := range q.Questions {
			assert.Equal(t, 0, question.CorrectOption())
		}
	}
}

func TestSeedSkipsExistingData(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "someone", model.RoleUser)

	require.NoError(t, database.Seed(db))

	var count int64
	require.NoError(t, db.Model(&model.Quiz{}).Count(&count).Error)
	assert.Zero(t, count)
}
