package database

import (
	"quiz_backend/internal/model"
	"quiz_backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type seedUser struct {
	name     string
	email    string
	password string
	role     model.UserRole
}

var seedUsers = []seedUser{
	{"John Doe", "john@example.com", "Password123", model.RoleUser},
	{"Jane Smith", "jane@example.com", "Password123", model.RoleUser},
	{"Admin User", "admin@example.com", "AdminPass123", model.RoleAdmin},
}

func option(text string, correct bool) model.QuestionOption {
	return model.QuestionOption{Text: text, IsCorrect: correct}
}

// seedQuizzes creator 为 seedUsers 的下标
func seedQuizzes() []struct {
	creator int
	quiz    model.Quiz
} {
	return []struct {
		creator int
		quiz    model.Quiz
	}{
		{0, model.Quiz{
			Title:       "JavaScript Fundamentals",
			Description: "Test your knowledge of JavaScript basics",
			Category:    "Programming",
			Difficulty:  model.DifficultyEasy,
			TimeLimit:   15,
			Questions: []model.Question{
				{
					Text: "What is the correct way to declare a variable in JavaScript?",
					Options: []model.QuestionOption{
						option("var x = 5;", true), option("variable x = 5;", false),
						option("v x = 5;", false), option("declare x = 5;", false),
					},
					Explanation: "Variables in JavaScript can be declared using var, let, or const keywords.",
					Difficulty:  model.DifficultyEasy,
					Points:      1,
				},
				{
					Text: "Which method is used to add an element to the end of an array?",
					Options: []model.QuestionOption{
						option("push()", true), option("add()", false),
						option("append()", false), option("insert()", false),
					},
					Explanation: "The push() method adds one or more elements to the end of an array.",
					Difficulty:  model.DifficultyEasy,
					Points:      1,
				},
			},
		}},
		{1, model.Quiz{
			Title:       "React Components",
			Description: "Understanding React component lifecycle and hooks",
			Category:    "Frontend",
			Difficulty:  model.DifficultyMedium,
			TimeLimit:   20,
			Questions: []model.Question{
				{
					Text: "What hook is used to manage state in functional components?",
					Options: []model.QuestionOption{
						option("useState", true), option("useEffect", false),
						option("useContext", false), option("useReducer", false),
					},
					Explanation: "useState is the hook used to add state to functional components.",
					Difficulty:  model.DifficultyMedium,
					Points:      2,
				},
				{
					Text: "When does useEffect run by default?",
					Options: []model.QuestionOption{
						option("After every render", true), option("Only on mount", false),
						option("Only on unmount", false), option("Never automatically", false),
					},
					Explanation: "useEffect runs after every render by default, unless dependencies are specified.",
					Difficulty:  model.DifficultyMedium,
					Points:      2,
				},
			},
		}},
		{2, model.Quiz{
			Title:       "Node.js Advanced Concepts",
			Description: "Deep dive into Node.js internals and best practices",
			Category:    "Backend",
			Difficulty:  model.DifficultyHard,
			TimeLimit:   30,
			Questions: []model.Question{
				{
					Text: "What is the Event Loop in Node.js?",
					Options: []model.QuestionOption{
						option("A mechanism that handles asynchronous operations", true),
						option("A loop that runs events continuously", false),
						option("A way to handle HTTP requests", false),
						option("A database connection pool", false),
					},
					Explanation: "The Event Loop is Node.js mechanism for handling asynchronous operations.",
					Difficulty:  model.DifficultyHard,
					Points:      3,
				},
			},
		}},
	}
}

// Seed 写入示例用户与测验；库中已有用户时跳过
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Log.Info("Seed skipped, users already exist", zap.Int64("users", count))
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		users := make([]*model.User, 0, len(seedUsers))
		for _, su := range seedUsers {
			hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user := &model.User{
				Name:        su.name,
				Email:       model.NormalizeEmail(su.email),
				Password:    string(hash),
				Role:        su.role,
				IsActive:    true,
				Preferences: model.DefaultPreferences(),
			}
			if err := tx.Create(user).Error; err != nil {
				return err
			}
			users = append(users, user)
		}

		for _, sq := range seedQuizzes() {
			quiz := sq.quiz
			quiz.CreatorID = users[sq.creator].ID
			quiz.IsPublic = true
			quiz.IsActive = true
			quiz.Tags = []string{}
			quiz.Settings = model.DefaultQuizSettings()
			for i := range quiz.Questions {
				quiz.Questions[i].Position = i
				quiz.Questions[i].Tags = []string{}
			}
			quiz.RecalculateTotalPoints()
			if err := tx.Create(&quiz).Error; err != nil {
				return err
			}
		}

		logger.Log.Info("Seed data created", zap.Int("users", len(users)), zap.Int("quizzes", len(seedQuizzes())))
		return nil
	})
}
