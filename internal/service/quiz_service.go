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
	"quiz_backend/pkg/logger"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultQuizPageSize = 10

type QuizService struct {
	QuizRepo *repository.QuizRepository
	Cfg      *config.Config
	Cache    *cache.Loader
}

func NewQuizService(quizRepo *repository.QuizRepository, cfg *config.Config, loader *cache.Loader) *QuizService {
	return &QuizService{
		QuizRepo: quizRepo,
		Cfg:      cfg,
		Cache:    loader,
	}
}

// QuizListQuery 列表查询参数，Tags 为逗号分隔
type QuizListQuery struct {
	Category   string `form:"category"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Search     string `form:"search"`
	Tags       string `form:"tags"`
	Sort       string `form:"sort" binding:"omitempty,oneof=newest oldest popular rating"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q QuizListQuery) cacheKey() string {
	return fmt.Sprintf("%s%s|%s|%s|%s|%s|%d|%d", util.CacheKeyQuizList,
		strings.ToLower(q.Category), q.Difficulty, strings.ToLower(q.Search), q.Tags, q.Sort, q.Page, q.Limit)
}

// normalize 零值取默认，越界由标签拦截
func (q *QuizListQuery) normalize() error {
	if err := util.ValidateStruct(q); err != nil {
		return err
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = defaultQuizPageSize
	}
	if q.Sort == "" {
		q.Sort = repository.SortNewest
	}
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	return nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// List 公开且启用的测验列表，结果按查询参数缓存
func (s *QuizService) List(ctx context.Context, q QuizListQuery) (*util.PageResponse[repository.QuizListRow], error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}

	var page util.PageResponse[repository.QuizListRow]
	err := s.Cache.Remember(ctx, q.cacheKey(), s.Cfg.Cache.QuizListTTL(), &page, func() (interface{}, error) {
		rows, total, err := s.QuizRepo.List(repository.QuizFilter{
			Category:   q.Category,
			Difficulty: q.Difficulty,
			Search:     q.Search,
			Tags:       splitTags(q.Tags),
			Sort:       q.Sort,
			Page:       q.Page,
			Limit:      q.Limit,
		})
		if err != nil {
			return nil, err
		}
		return util.NewPageResponse(rows, q.Page, q.Limit, total), nil
	})
	if err != nil {
		return nil, util.Internal("list quizzes", err)
	}
	return &page, nil
}

func (s *QuizService) invalidateList(ctx context.Context) {
	if err := s.Cache.Store().DeletePrefix(ctx, util.CacheKeyQuizList); err != nil {
		logger.Log.Warn("Failed to invalidate quiz list cache", zap.Error(err))
	}
}

func (s *QuizService) findQuiz(id uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, util.Internal("find quiz", err)
	}
	return quiz, nil
}

// OptionView isCorrect 仅对创建者和管理员输出
type OptionView struct {
	Text      string `json:"text"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID          uint             `json:"id"`
	Question    string           `json:"question"`
	Options     []OptionView     `json:"options"`
	Explanation string           `json:"explanation,omitempty"`
	Difficulty  model.Difficulty `json:"difficulty"`
	Points      int              `json:"points"`
	Tags        []string         `json:"tags"`
}

type CreatorView struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// QuizDetail 测验详情，答题者看到的版本不含正确答案和解析
type QuizDetail struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Difficulty  model.Difficulty   `json:"difficulty"`
	TimeLimit   int                `json:"timeLimit"`
	TotalPoints int                `json:"totalPoints"`
	Tags        []string           `json:"tags"`
	IsPublic    bool               `json:"isPublic"`
	IsActive    bool               `json:"isActive"`
	CreatorID   uint               `json:"creatorId"`
	Creator     *CreatorView       `json:"creator,omitempty"`
	Settings    model.QuizSettings `json:"settings"`
	Stats       model.QuizStats    `json:"stats"`
	Questions   []QuestionView     `json:"questions"`
}

func NewQuizDetail(quiz *model.Quiz, reveal bool) *QuizDetail {
	detail := &QuizDetail{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Category:    quiz.Category,
		Difficulty:  quiz.Difficulty,
		TimeLimit:   quiz.TimeLimit,
		TotalPoints: quiz.TotalPoints,
		Tags:        nonNilStrings(quiz.Tags),
		IsPublic:    quiz.IsPublic,
		IsActive:    quiz.IsActive,
		CreatorID:   quiz.CreatorID,
		Settings:    quiz.Settings,
		Stats:       quiz.Stats,
		Questions:   make([]QuestionView, 0, len(quiz.Questions)),
	}
	if quiz.Creator != nil {
		detail.Creator = &CreatorView{ID: quiz.Creator.ID, Name: quiz.Creator.Name, Avatar: quiz.Creator.Avatar}
	}

	for _, q := range quiz.Questions {
		view := QuestionView{
			ID:         q.ID,
			Question:   q.Text,
			Options:    make([]OptionView, len(q.Options)),
			Difficulty: q.Difficulty,
			Points:     q.Points,
			Tags:       nonNilStrings(q.Tags),
		}
		for i, opt := range q.Options {
			view.Options[i] = OptionView{Text: opt.Text}
			if reveal {
				correct := opt.IsCorrect
				view.Options[i].IsCorrect = &correct
			}
		}
		if reveal {
			view.Explanation = q.Explanation
		}
		detail.Questions = append(detail.Questions, view)
	}
	return detail
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// Get 停用的测验只有创建者和管理员可见
func (s *QuizService) Get(id, viewerID uint, role model.UserRole) (*QuizDetail, error) {
	quiz, err := s.findQuiz(id)
	if err != nil {
		return nil, err
	}

	owner := quiz.IsOwnedBy(viewerID, role)
	if !quiz.IsActive && !owner {
		return nil, util.ErrQuizNotFound
	}
	if !quiz.CanBeViewedBy(viewerID, role) {
		return nil, util.ErrQuizPrivate
	}
	return NewQuizDetail(quiz, owner), nil
}

type QuestionInput struct {
	ID          uint                   `json:"id"`
	Question    string                 `json:"question" binding:"required"`
	Options     []model.QuestionOption `json:"options" binding:"required,min=2,max=6,dive"`
	Explanation string                 `json:"explanation"`
	Difficulty  model.Difficulty       `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Points      *int                   `json:"points" binding:"omitnil,min=0"`
	Tags        []string               `json:"tags"`
}

type SettingsInput struct {
	ShuffleQuestions   *bool `json:"shuffleQuestions"`
	ShuffleOptions     *bool `json:"shuffleOptions"`
	AllowReview        *bool `json:"allowReview"`
	ShowCorrectAnswers *bool `json:"showCorrectAnswers"`
	PassingScore       *int  `json:"passingScore" binding:"omitnil,min=0,max=100"`
}

// QuizInput 创建时缺省字段取默认值，更新时缺省字段保持原值
type QuizInput struct {
	Title       *string          `json:"title" binding:"omitnil,min=1,max=100"`
	Description *string          `json:"description" binding:"omitnil,max=500"`
	Category    *string          `json:"category" binding:"omitnil,min=1,max=100"`
	Difficulty  model.Difficulty `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	TimeLimit   *int             `json:"timeLimit" binding:"omitnil,min=1,max=180"`
	Tags        []string         `json:"tags"`
	IsPublic    *bool            `json:"isPublic"`
	Settings    *SettingsInput   `json:"settings"`
	Questions   []QuestionInput  `json:"questions" binding:"omitempty,dive"`
}

func (in *SettingsInput) applyTo(settings *model.QuizSettings) {
	if in == nil {
		return
	}
	if in.ShuffleQuestions != nil {
		settings.ShuffleQuestions = *in.ShuffleQuestions
	}
	if in.ShuffleOptions != nil {
		settings.ShuffleOptions = *in.ShuffleOptions
	}
	if in.AllowReview != nil {
		settings.AllowReview = *in.AllowReview
	}
	if in.ShowCorrectAnswers != nil {
		settings.ShowCorrectAnswers = *in.ShowCorrectAnswers
	}
	if in.PassingScore != nil {
		settings.PassingScore = *in.PassingScore
	}
}

func (in *QuizInput) applyTo(quiz *model.Quiz) {
	if in.Title != nil {
		quiz.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		quiz.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		quiz.Category = strings.TrimSpace(*in.Category)
	}
	if in.Difficulty != "" {
		quiz.Difficulty = in.Difficulty
	}
	if in.TimeLimit != nil {
		quiz.TimeLimit = *in.TimeLimit
	}
	if in.Tags != nil {
		quiz.Tags = in.Tags
	}
	if in.IsPublic != nil {
		quiz.IsPublic = *in.IsPublic
	}
	in.Settings.applyTo(&quiz.Settings)
}

func (in *QuestionInput) applyTo(q *model.Question, position int) {
	q.Position = position
	q.Text = strings.TrimSpace(in.Question)
	q.Options = make([]model.QuestionOption, len(in.Options))
	for i, opt := range in.Options {
		q.Options[i] = model.QuestionOption{Text: strings.TrimSpace(opt.Text), IsCorrect: opt.IsCorrect}
	}
	q.Explanation = in.Explanation
	if in.Difficulty != "" {
		q.Difficulty = in.Difficulty
	} else if q.Difficulty == "" {
		q.Difficulty = model.DifficultyMedium
	}
	if in.Points != nil {
		q.Points = *in.Points
	} else if q.ID == 0 {
		q.Points = 1
	}
	q.Tags = nonNilStrings(in.Tags)
}

// validateQuiz 校验合并后的测验，更新时没有提交的字段同样要满足约束
func validateQuiz(quiz *model.Quiz) error {
	errs := checkStruct(quiz)
	for i, q := range quiz.Questions {
		field := fmt.Sprintf("questions[%d].options", i)
		if len(q.Options) > 0 && q.CorrectOption() < 0 && !errs.has(field) {
			errs.add(field, "Each question needs at least one correct option")
		}
	}
	return errs.err()
}

func (s *QuizService) Create(ctx context.Context, creatorID uint, in QuizInput) (*model.Quiz, error) {
	quiz := &model.Quiz{
		Difficulty: model.DifficultyMedium,
		TimeLimit:  model.DefaultTimeLimit,
		CreatorID:  creatorID,
		IsPublic:   true,
		IsActive:   true,
		Tags:       []string{},
		Settings:   model.DefaultQuizSettings(),
	}
	in.applyTo(quiz)
	for i := range in.Questions {
		var q model.Question
		in.Questions[i].applyTo(&q, i)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := validateQuiz(quiz); err != nil {
		return nil, err
	}
	quiz.RecalculateTotalPoints()

	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, util.Internal("create quiz", err)
	}
	s.invalidateList(ctx)

	logger.Log.Info("Quiz created",
		zap.Uint("quizId", quiz.ID),
		zap.Uint("creatorId", creatorID),
		zap.Int("questions", len(quiz.Questions)),
		zap.Int("totalPoints", quiz.TotalPoints))
	return quiz, nil
}

// mergeQuestions 带 id 的题目更新原题，不带 id 的新增，未出现的原题删除
func mergeQuestions(quiz *model.Quiz, inputs []QuestionInput) ([]uint, error) {
	existing := make(map[uint]model.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		existing[q.ID] = q
	}

	merged := make([]model.Question, 0, len(inputs))
	kept := make(map[uint]bool, len(inputs))
	for i := range inputs {
		var q model.Question
		if id := inputs[i].ID; id != 0 {
			old, ok := existing[id]
			if !ok || kept[id] {
				return nil, util.ValidationFailed([]util.FieldError{{
					Field:   fmt.Sprintf("questions[%d].id", i),
					Message: fmt.Sprintf("Question %d does not belong to this quiz", id),
				}})
			}
			q = old
			kept[id] = true
		}
		inputs[i].applyTo(&q, i)
		merged = append(merged, q)
	}

	var removed []uint
	for _, q := range quiz.Questions {
		if !kept[q.ID] {
			removed = append(removed, q.ID)
		}
	}
	quiz.Questions = merged
	return removed, nil
}

func (s *QuizService) Update(ctx context.Context, id, userID uint, role model.UserRole, in QuizInput) (*model.Quiz, error) {
	quiz, err := s.findQuiz(id)
	if err != nil {
		return nil, err
	}
	if !quiz.IsOwnedBy(userID, role) {
		return nil, util.ErrNotQuizOwner
	}

	in.applyTo(quiz)
	var removed []uint
	if in.Questions != nil {
		if removed, err = mergeQuestions(quiz, in.Questions); err != nil {
			return nil, err
		}
	}
	if err := validateQuiz(quiz); err != nil {
		return nil, err
	}
	quiz.RecalculateTotalPoints()

	if err := s.QuizRepo.UpdateWithQuestions(quiz, removed); err != nil {
		return nil, util.Internal("update quiz", err)
	}
	s.invalidateList(ctx)

	logger.Log.Info("Quiz updated", zap.Uint("quizId", quiz.ID), zap.Uint("userId", userID), zap.Int("removedQuestions", len(removed)))
	return s.findQuiz(id)
}

// Delete 软删除，仅将测验标记为停用
func (s *QuizService) Delete(ctx context.Context, id, userID uint, role model.UserRole) error {
	quiz, err := s.findQuiz(id)
	if err != nil {
		return err
	}
	if !quiz.IsOwnedBy(userID, role) {
		return util.ErrNotQuizOwner
	}
	if err := s.QuizRepo.Deactivate(quiz.ID); err != nil {
		return util.Internal("delete quiz", err)
	}
	s.invalidateList(ctx)

	logger.Log.Info("Quiz deleted", zap.Uint("quizId", quiz.ID), zap.Uint("userId", userID))
	return nil
}
