package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/athletetrack/internal/db"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DrillBaseXP 每次完成训练的基础经验，叠加训练自身的 XPBonus
	DrillBaseXP = 10
	// GameLogXP 记录一场比赛获得的经验
	GameLogXP = 15
	// VideoUploadXP 上传训练视频获得的经验
	VideoUploadXP = 20

	maxNotesRunes   = 2000
	defaultPageSize = 20
	maxPageSize     = 100
)

const (
	SourceDrill = "drill"
	SourceGame  = "game"
	SourceVideo = "video"
)

// ActivityService 记录训练、比赛、视频等活动，并依次驱动经验、技能、挑战与徽章
// 各步骤顺序执行；经验写入之后的失败只记入结果，不回滚已完成的写入
type ActivityService struct {
	db          *gorm.DB
	progression *ProgressionService
	skills      *SkillProgressService
	challenges  *ChallengeService
	badges      *BadgeService
	policy      *bluemonday.Policy
	now         func() time.Time
}

// NewActivityService 构造 ActivityService
func NewActivityService(gdb *gorm.DB, progression *ProgressionService, skills *SkillProgressService, challenges *ChallengeService, badges *BadgeService) *ActivityService {
	return &ActivityService{
		db:          gdb,
		progression: progression,
		skills:      skills,
		challenges:  challenges,
		badges:      badges,
		policy:      bluemonday.StrictPolicy(),
		now:         time.Now,
	}
}

// WithClock 替换时间来源，测试中使用
func (s *ActivityService) WithClock(now func() time.Time) *ActivityService {
	if now != nil {
		s.now = now
	}
	return s
}

// CompleteDrillInput 完成训练的请求参数
type CompleteDrillInput struct {
	DrillID         uint
	DurationSeconds int
	Notes           string
	Rating          *int
}

// LogGameInput 比赛记录参数，PlayedOn 为 2006-01-02
type LogGameInput struct {
	Sport         string
	Opponent      string
	PlayedOn      string
	MinutesPlayed int
	Stats         map[string]any
	Notes         string
}

// VideoUploadInput 已落盘视频的元数据
type VideoUploadInput struct {
	OriginalName string
	StoredName   string
	URL          string
	ContentType  string
	SizeBytes    int64
}

// Outcome 一次活动对经验、连续天数与各项进度的影响
type Outcome struct {
	XPEarned  int
	Streak    *db.StreakRecord
	LevelInfo LevelInfo
	Progress  []ItemResult
	NewBadges []db.Badge
}

// DrillCompletionResult 完成训练的返回值
type DrillCompletionResult struct {
	Completion db.DrillCompletion
	Outcome
}

// GameLogResult 记录比赛的返回值
type GameLogResult struct {
	Game db.GameLog
	Outcome
}

// VideoUploadResult 上传视频的返回值
type VideoUploadResult struct {
	Video db.VideoUpload
	Outcome
}

// CompleteDrill 记录一次训练完成
func (s *ActivityService) CompleteDrill(ctx context.Context, userID uint, input CompleteDrillInput) (*DrillCompletionResult, error) {
	if input.DrillID == 0 {
		return nil, fmt.Errorf("%w: drill_id is required", ErrInvalidInput)
	}
	if input.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: duration_seconds must not be negative", ErrInvalidInput)
	}
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	notes, err := s.cleanNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	gdb := s.db.WithContext(ctx)
	var drill db.Drill
	if err := gdb.Preload("SkillNodes").First(&drill, input.DrillID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDrillNotFound
		}
		return nil, fmt.Errorf("load drill: %w", err)
	}

	now := s.now()
	today := TodayIn(ResolveLocation(user.Timezone), now)
	xp := DrillBaseXP + drill.XPBonus

	completion := db.DrillCompletion{
		UserID:          userID,
		DrillID:         drill.ID,
		DurationSeconds: input.DurationSeconds,
		Notes:           notes,
		Rating:          input.Rating,
		XPEarned:        xp,
		CompletedOn:     today,
		CompletedAt:     now.UTC(),
	}
	if err := gdb.Create(&completion).Error; err != nil {
		return nil, fmt.Errorf("record drill completion: %w", err)
	}
	completion.Drill = drill

	skillIDs := make([]uint, 0, len(drill.SkillNodes))
	for _, node := range drill.SkillNodes {
		skillIDs = append(skillIDs, node.ID)
	}

	outcome, err := s.grant(ctx, userID, xp, today, SourceDrill, skillIDs, []MetricSignal{
		{Metric: MetricDrillCompletions, Value: 1},
		{Metric: MetricTotalDrillCompletions, Value: 1},
	})
	if err != nil {
		return nil, err
	}

	return &DrillCompletionResult{Completion: completion, Outcome: *outcome}, nil
}

// LogGame 记录一场比赛
func (s *ActivityService) LogGame(ctx context.Context, userID uint, input LogGameInput) (*GameLogResult, error) {
	playedOn, err := ParseCalendarDay(input.PlayedOn)
	if err != nil {
		return nil, fmt.Errorf("%w: played_on must be a date (YYYY-MM-DD)", ErrInvalidInput)
	}
	if input.MinutesPlayed < 0 {
		return nil, fmt.Errorf("%w: minutes_played must not be negative", ErrInvalidInput)
	}
	opponent := strings.TrimSpace(input.Opponent)
	if utf8.RuneCountInString(opponent) > 120 {
		return nil, fmt.Errorf("%w: opponent is too long", ErrInvalidInput)
	}
	notes, err := s.cleanNotes(input.Notes)
	if err != nil {
		return nil, err
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := TodayIn(ResolveLocation(user.Timezone), s.now())
	if playedOn.After(today) {
		return nil, fmt.Errorf("%w: played_on must not be in the future", ErrInvalidInput)
	}

	sport := strings.ToLower(strings.TrimSpace(input.Sport))
	if sport == "" {
		sport = user.Sport
	}

	game := db.GameLog{
		UserID:        userID,
		Sport:         sport,
		Opponent:      s.policy.Sanitize(opponent),
		PlayedOn:      playedOn,
		MinutesPlayed: input.MinutesPlayed,
		Stats:         datatypes.JSONMap(input.Stats),
		Notes:         notes,
		XPEarned:      GameLogXP,
	}
	if game.Stats == nil {
		game.Stats = datatypes.JSONMap{}
	}
	if err := s.db.WithContext(ctx).Create(&game).Error; err != nil {
		return nil, fmt.Errorf("record game log: %w", err)
	}

	outcome, err := s.grant(ctx, userID, GameLogXP, today, SourceGame, nil, []MetricSignal{
		{Metric: MetricGameLogs, Value: 1},
	})
	if err != nil {
		return nil, err
	}

	return &GameLogResult{Game: game, Outcome: *outcome}, nil
}

// RecordVideoUpload 保存已上传视频的记录
func (s *ActivityService) RecordVideoUpload(ctx context.Context, userID uint, input VideoUploadInput) (*VideoUploadResult, error) {
	if strings.TrimSpace(input.StoredName) == "" || strings.TrimSpace(input.URL) == "" {
		return nil, fmt.Errorf("%w: stored file is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(strings.ToLower(input.ContentType), "video/") {
		return nil, fmt.Errorf("%w: only video files are allowed", ErrInvalidInput)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := TodayIn(ResolveLocation(user.Timezone), s.now())

	video := db.VideoUpload{
		UserID:       userID,
		OriginalName: s.policy.Sanitize(strings.TrimSpace(input.OriginalName)),
		StoredName:   input.StoredName,
		URL:          input.URL,
		ContentType:  input.ContentType,
		SizeBytes:    input.SizeBytes,
		Status:       db.VideoStatusUploaded,
		XPEarned:     VideoUploadXP,
	}
	if err := s.db.WithContext(ctx).Create(&video).Error; err != nil {
		return nil, fmt.Errorf("record video upload: %w", err)
	}

	outcome, err := s.grant(ctx, userID, VideoUploadXP, today, SourceVideo, nil, []MetricSignal{
		{Metric: MetricVideoUploads, Value: 1},
	})
	if err != nil {
		return nil, err
	}

	return &VideoUploadResult{Video: video, Outcome: *outcome}, nil
}

// grant 经验 → 技能 → 挑战 → 徽章
func (s *ActivityService) grant(ctx context.Context, userID uint, xp int, day time.Time, source string, skillIDs []uint, signals []MetricSignal) (*Outcome, error) {
	record, err := s.progression.ApplyXP(ctx, userID, xp, day, source)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		XPEarned:  xp,
		Streak:    record,
		LevelInfo: LevelInfoFor(record.TotalXP),
	}

	if len(skillIDs) > 0 {
		outcome.Progress = append(outcome.Progress, s.skills.ApplySkillProgress(ctx, userID, skillIDs, xp)...)
	}

	signals = append(signals,
		MetricSignal{Metric: MetricXPEarned, Value: xp},
		MetricSignal{Metric: MetricStreakDays, Value: record.CurrentStreak},
		MetricSignal{Metric: MetricLevel, Value: record.Level},
		MetricSignal{Metric: MetricTotalXP, Value: record.TotalXP},
	)
	outcome.Progress = append(outcome.Progress, s.challenges.ApplyChallengeProgress(ctx, userID, signals)...)

	awarded, badgeResults, err := s.badges.EvaluateBadges(ctx, userID)
	if err != nil {
		outcome.Progress = append(outcome.Progress, failedItem(ItemKindBadge, 0, err))
	} else {
		outcome.NewBadges = awarded
		outcome.Progress = append(outcome.Progress, badgeResults...)
	}

	return outcome, nil
}

func (s *ActivityService) cleanNotes(raw string) (string, error) {
	notes := strings.TrimSpace(raw)
	if utf8.RuneCountInString(notes) > maxNotesRunes {
		return "", fmt.Errorf("%w: notes must be at most %d characters", ErrInvalidInput, maxNotesRunes)
	}
	return s.policy.Sanitize(notes), nil
}

func (s *ActivityService) loadUser(ctx context.Context, userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// ListDrillCompletions 最近的训练记录，按完成时间倒序
func (s *ActivityService) ListDrillCompletions(ctx context.Context, userID uint, limit int) ([]db.DrillCompletion, error) {
	var items []db.DrillCompletion
	if err := s.db.WithContext(ctx).
		Preload("Drill").
		Where("user_id = ?", userID).
		Order("completed_at DESC, id DESC").
		Limit(clampPageSize(limit)).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list drill completions: %w", err)
	}
	return items, nil
}

// ListGameLogs 最近的比赛记录
func (s *ActivityService) ListGameLogs(ctx context.Context, userID uint, limit int) ([]db.GameLog, error) {
	var items []db.GameLog
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("played_on DESC, id DESC").
		Limit(clampPageSize(limit)).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list game logs: %w", err)
	}
	return items, nil
}

// ListVideos 最近上传的视频
func (s *ActivityService) ListVideos(ctx context.Context, userID uint, limit int) ([]db.VideoUpload, error) {
	var items []db.VideoUpload
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampPageSize(limit)).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return items, nil
}

func clampPageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
