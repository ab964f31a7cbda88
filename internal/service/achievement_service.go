package service

import (
	"errors"
	"fmt"
	"quiz_backend/internal/model"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/util"
	"regexp"
	"sort"
	"strings"

	"gorm.io/gorm"
)

type AchievementService struct {
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.AttemptRepository
}

func NewAchievementService(userRepo *repository.UserRepository, attemptRepo *repository.AttemptRepository) *AchievementService {
	return &AchievementService{
		UserRepo:    userRepo,
		AttemptRepo: attemptRepo,
	}
}

type UserAchievements struct {
	TotalAchievements int                 `json:"totalAchievements"`
	Achievements      []model.Achievement `json:"achievements"`
}

const (
	masteryMinAttempts = 5
	masteryMinAverage  = 90
	veteranAttempts    = 50
	weekStreakDays     = 7
)

var whitespace = regexp.MustCompile(`\s+`)

func (s *AchievementService) GetAchievements(userID uint) (*UserAchievements, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, util.Internal("find user", err)
	}

	attempts, err := s.AttemptRepo.ListCompletedByUserSince(userID, nil)
	if err != nil {
		return nil, util.Internal("list attempts", err)
	}

	achievements := BuildAchievements(user, attempts)
	return &UserAchievements{TotalAchievements: len(achievements), Achievements: achievements}, nil
}

// BuildAchievements attempts 需按完成时间升序；结果按解锁时间倒序
func BuildAchievements(user *model.User, attempts []model.QuizAttempt) []model.Achievement {
	achievements := make([]model.Achievement, 0)

	if len(attempts) >= 1 {
		achievements = append(achievements, model.Achievement{
			ID:          "first_quiz",
			Name:        "Getting Started",
			Description: "Complete your first quiz",
			Icon:        "🎯",
			Category:    "milestone",
			UnlockedAt:  attempts[0].CompletedAt,
		})
	}

	if user.Stats.Streak >= weekStreakDays {
		achievements = append(achievements, model.Achievement{
			ID:          "week_streak",
			Name:        "Week Warrior",
			Description: "Complete quizzes for 7 consecutive days",
			Icon:        "🔥",
			Category:    "streak",
			UnlockedAt:  user.Stats.LastQuizDate,
		})
	}

	for _, attempt := range attempts {
		if attempt.Score == 100 {
			achievements = append(achievements, model.Achievement{
				ID:          "perfect_score",
				Name:        "Perfectionist",
				Description: "Get a perfect score on any quiz",
				Icon:        "💯",
				Category:    "performance",
				UnlockedAt:  attempt.CompletedAt,
			})
			break
		}
	}

	achievements = append(achievements, masteryAchievements(attempts)...)

	if len(attempts) >= veteranAttempts {
		achievements = append(achievements, model.Achievement{
			ID:          "quiz_veteran",
			Name:        "Quiz Veteran",
			Description: "Complete 50 quizzes",
			Icon:        "⭐",
			Category:    "volume",
			UnlockedAt:  attempts[veteranAttempts-1].CompletedAt,
		})
	}

	sort.SliceStable(achievements, func(i, j int) bool {
		a, b := achievements[i].UnlockedAt, achievements[j].UnlockedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	return achievements
}

// masteryAchievements 某分类至少 5 次且平均分不低于 90，解锁时间取该分类最近一次完成
func masteryAchievements(attempts []model.QuizAttempt) []model.Achievement {
	type bucket struct {
		count, total int
		last         *model.QuizAttempt
	}
	buckets := make(map[string]*bucket)
	var categories []string
	for i := range attempts {
		if attempts[i].Quiz == nil {
			continue
		}
		category := attempts[i].Quiz.Category
		b, ok := buckets[category]
		if !ok {
			b = &bucket{}
			buckets[category] = b
			categories = append(categories, category)
		}
		b.count++
		b.total += attempts[i].Score
		b.last = &attempts[i]
	}
	sort.Strings(categories)

	var result []model.Achievement
	for _, category := range categories {
		b := buckets[category]
		if b.count < masteryMinAttempts || float64(b.total)/float64(b.count) < masteryMinAverage {
			continue
		}
		slug := whitespace.ReplaceAllString(strings.ToLower(category), "_")
		result = append(result, model.Achievement{
			ID:          "master_" + slug,
			Name:        fmt.Sprintf("%s Master", category),
			Description: fmt.Sprintf("Maintain 90%%+ average in %s quizzes", category),
			Icon:        "🎓",
			Category:    "mastery",
			UnlockedAt:  b.last.CompletedAt,
		})
	}
	return result
}
