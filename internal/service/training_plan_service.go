package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/athletetrack/internal/db"
	"github.com/athletetrack/internal/logger"
	"gorm.io/gorm"
)

// ErrPlanNotFound 训练计划不存在或不属于当前用户
var ErrPlanNotFound = errors.New("training plan not found")

const (
	defaultOpenAIPlanModel   = "gpt-4o-mini"
	defaultDeepSeekPlanModel = "deepseek-chat"
	defaultPlanMaxTokens     = 1800
	defaultPlanTemperature   = 0.4
	defaultPlanWeeks         = 4
	defaultPlanSessions      = 3
)

const defaultPlanSystemPrompt = `You are a youth sports coach. Write a safe, age-appropriate training plan in Markdown.
Use one "## Week N" heading per week and a bullet list of sessions under each heading.
Each session names the drills, the number of sets or minutes, and one coaching cue.
Keep the total load realistic for a young athlete and include rest days.`

// PlanInput 生成训练计划的参数
type PlanInput struct {
	Goal            string
	Weeks           int
	SessionsPerWeek int
}

// TrainingPlanService 基于大模型生成训练计划
type TrainingPlanService struct {
	db       *gorm.DB
	settings *SystemSettingService
	client   *aiChatClient
	log      *logger.Logger
}

// NewTrainingPlanService 构造 TrainingPlanService
func NewTrainingPlanService(gdb *gorm.DB, settings *SystemSettingService, log *logger.Logger) *TrainingPlanService {
	if log == nil {
		log = logger.Nop()
	}
	return &TrainingPlanService{
		db:       gdb,
		settings: settings,
		client:   newAIChatClient(defaultOpenAIPlanModel, defaultDeepSeekPlanModel),
		log:      log,
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *TrainingPlanService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetBaseURL 覆盖指定平台的 API 地址。
func (s *TrainingPlanService) SetBaseURL(provider, base string) {
	s.client.SetBaseURL(provider, base)
}

// SetModel 指定平台使用的模型名称。
func (s *TrainingPlanService) SetModel(provider, model string) {
	s.client.SetModel(provider, model)
}

// Generate 生成并保存训练计划；未配置 API Key 时返回 ErrAIAPIKeyMissing
func (s *TrainingPlanService) Generate(ctx context.Context, userID uint, input PlanInput) (*db.TrainingPlan, error) {
	goal := strings.TrimSpace(input.Goal)
	if goal == "" {
		return nil, fmt.Errorf("%w: goal is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(goal) > 255 {
		return nil, fmt.Errorf("%w: goal is too long", ErrInvalidInput)
	}
	weeks := input.Weeks
	if weeks == 0 {
		weeks = defaultPlanWeeks
	}
	if weeks < 1 || weeks > 12 {
		return nil, fmt.Errorf("%w: weeks must be between 1 and 12", ErrInvalidInput)
	}
	sessions := input.SessionsPerWeek
	if sessions == 0 {
		sessions = defaultPlanSessions
	}
	if sessions < 1 || sessions > 7 {
		return nil, fmt.Errorf("%w: sessions_per_week must be between 1 and 7", ErrInvalidInput)
	}

	athlete, err := s.loadAthleteContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取系统设置失败: %w", err)
	}

	userPrompt := buildPlanPrompt(athlete, goal, weeks, sessions)
	logAIExchange(s.log, "PLAN", "prompt", userPrompt)

	result, err := s.client.call(ctx, settings, aiChatRequest{
		SystemPrompt: settings.PlanPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    defaultPlanMaxTokens,
		Temperature:  defaultPlanTemperature,
	})
	if err != nil {
		return nil, err
	}
	logAIExchange(s.log, "PLAN", "response", result.Content)

	if strings.TrimSpace(result.Content) == "" {
		return nil, errors.New("ai provider returned an empty plan")
	}

	plan := db.TrainingPlan{
		UserID:           userID,
		Sport:            athlete.sport,
		Goal:             goal,
		Weeks:            weeks,
		SessionsPerWeek:  sessions,
		Content:          result.Content,
		Provider:         result.Provider,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
	}
	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, fmt.Errorf("save training plan: %w", err)
	}
	return &plan, nil
}

// List 返回用户的训练计划，最新的在前
func (s *TrainingPlanService) List(ctx context.Context, userID uint) ([]db.TrainingPlan, error) {
	var plans []db.TrainingPlan
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list training plans: %w", err)
	}
	return plans, nil
}

// Get 返回单个训练计划
func (s *TrainingPlanService) Get(ctx context.Context, userID, planID uint) (*db.TrainingPlan, error) {
	var plan db.TrainingPlan
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", planID, userID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("get training plan: %w", err)
	}
	return &plan, nil
}

type athleteContext struct {
	sport           string
	level           int
	currentStreak   int
	completedSkills []string
}

func (s *TrainingPlanService) loadAthleteContext(ctx context.Context, userID uint) (athleteContext, error) {
	gdb := s.db.WithContext(ctx)

	var user db.User
	if err := gdb.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return athleteContext{}, ErrUserNotFound
		}
		return athleteContext{}, fmt.Errorf("load user: %w", err)
	}

	result := athleteContext{sport: user.Sport, level: 1}

	var records []db.StreakRecord
	if err := gdb.Where("user_id = ?", userID).Limit(1).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load streak record: %w", err)
	}
	if len(records) == 1 {
		result.level = records[0].Level
		result.currentStreak = records[0].CurrentStreak
	}

	if err := gdb.Model(&db.SkillNode{}).
		Joins("JOIN skill_progress ON skill_progress.skill_node_id = skill_nodes.id").
		Where("skill_progress.user_id = ? AND skill_progress.status = ?", userID, db.SkillStatusCompleted).
		Order("skill_nodes.id ASC").
		Pluck("skill_nodes.name", &result.completedSkills).Error; err != nil {
		return result, fmt.Errorf("load completed skills: %w", err)
	}

	return result, nil
}

func buildPlanPrompt(athlete athleteContext, goal string, weeks, sessions int) string {
	var builder strings.Builder
	sport := athlete.sport
	if sport == "" {
		sport = "general fitness"
	}
	fmt.Fprintf(&builder, "Sport: %s\n", sport)
	fmt.Fprintf(&builder, "Athlete level: %d (current streak %d days)\n", athlete.level, athlete.currentStreak)
	if len(athlete.completedSkills) > 0 {
		fmt.Fprintf(&builder, "Skills already mastered: %s\n", strings.Join(athlete.completedSkills, ", "))
	}
	fmt.Fprintf(&builder, "Goal: %s\n", goal)
	fmt.Fprintf(&builder, "Plan length: %d weeks, %d sessions per week.", weeks, sessions)
	return builder.String()
}
