package service

import (
	"quiz_backend/internal/model"
	"quiz_backend/internal/util"
)

// SubmittedAnswer 提交的单题作答
type SubmittedAnswer struct {
	QuestionID     uint `json:"questionId"`
	SelectedOption int  `json:"selectedOption"`
	TimeSpent      int  `json:"timeSpent"`
}

type ScoreResult struct {
	Answers      []model.AttemptAnswer
	EarnedPoints int
	Score        int
}

// ScoreAnswers 按题目 ID 匹配作答并计分：
// 不存在的题目直接丢弃，同一题只取第一次作答，越界选项算错；
// 得分以开始答题时快照的 totalPoints 为分母
func ScoreAnswers(quiz *model.Quiz, totalPoints int, submitted []SubmittedAnswer) ScoreResult {
	result := ScoreResult{Answers: make([]model.AttemptAnswer, 0, len(submitted))}
	seen := make(map[uint]bool, len(submitted))

	for _, ans := range submitted {
		question, ok := quiz.QuestionByID(ans.QuestionID)
		if !ok || seen[ans.QuestionID] {
			continue
		}
		seen[ans.QuestionID] = true

		correct := question.IsCorrectSelection(ans.SelectedOption)
		if correct {
			result.EarnedPoints += question.Points
		}
		result.Answers = append(result.Answers, model.AttemptAnswer{
			QuestionID:     ans.QuestionID,
			SelectedOption: ans.SelectedOption,
			IsCorrect:      correct,
			TimeSpent:      ans.TimeSpent,
		})
	}

	// 题目在答题过程中被加分时，得分不超过快照总分
	if result.EarnedPoints > totalPoints {
		result.EarnedPoints = totalPoints
	}
	result.Score = PercentScore(result.EarnedPoints, totalPoints)
	return result
}

// PercentScore 总分为 0 时得分为 0
func PercentScore(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return util.Round(float64(earned) / float64(total) * 100)
}
