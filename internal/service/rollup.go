package service

import (
	"quiz_backend/internal/model"
	"quiz_backend/internal/util"
	"time"
)

// IncrementalAverage newCount 为计入新值之后的样本数
func IncrementalAverage(oldAverage, newCount, value int) int {
	if newCount <= 1 {
		return value
	}
	return util.Round(float64(oldAverage*(newCount-1)+value) / float64(newCount))
}

// RollupQuizStats 计入一次完成的答题，totalAttempts 在开始答题时已累加
func RollupQuizStats(stats model.QuizStats, score, timeSpent, passingScore int) model.QuizStats {
	stats.CompletedAttempts++
	n := stats.CompletedAttempts
	stats.AverageScore = IncrementalAverage(stats.AverageScore, n, score)
	stats.AverageTimeSpent = IncrementalAverage(stats.AverageTimeSpent, n, timeSpent)

	passed := 0
	if score >= passingScore {
		passed = 100
	}
	stats.PassRate = IncrementalAverage(stats.PassRate, n, passed)
	return stats
}

func RollupUserStats(stats model.UserStats, score, timeSpent int, now time.Time) model.UserStats {
	stats.TotalQuizzes++
	stats.CompletedQuizzes++
	stats.AverageScore = IncrementalAverage(stats.AverageScore, stats.CompletedQuizzes, score)
	stats.TotalTimeSpent += timeSpent
	stats.Streak = NextStreak(stats.Streak, stats.LastQuizDate, now)
	stats.LastQuizDate = &now
	return stats
}

// NextStreak 同一天不变，昨天完成过则加一，否则重置为 1；按 now 所在时区的日历日比较
func NextStreak(current int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	lastDay := last.In(now.Location())
	if sameDay(lastDay, now) {
		if current < 1 {
			return 1
		}
		return current
	}
	if sameDay(lastDay, now.AddDate(0, 0, -1)) {
		return current + 1
	}
	return 1
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
