package service

import (
	"context"
	"fmt"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AthleteSnapshot 汇总用户当前的各项统计，徽章按此判定
type AthleteSnapshot struct {
	DrillCompletions int
	GameLogs         int
	VideoUploads     int
	CurrentStreak    int
	LongestStreak    int
	TotalXP          int
	Level            int
}

// Value 返回指标对应的当前值
func (a AthleteSnapshot) Value(m Metric) (int, error) {
	switch m {
	case MetricDrillCompletions, MetricTotalDrillCompletions:
		return a.DrillCompletions, nil
	case MetricGameLogs:
		return a.GameLogs, nil
	case MetricVideoUploads:
		return a.VideoUploads, nil
	case MetricStreakDays:
		return a.LongestStreak, nil
	case MetricLevel:
		return a.Level, nil
	case MetricXPEarned, MetricTotalXP:
		return a.TotalXP, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMetric, string(m))
	}
}

// BadgeService 徽章判定与查询
type BadgeService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBadgeService 构造 BadgeService
func NewBadgeService(gdb *gorm.DB) *BadgeService {
	return &BadgeService{db: gdb, now: time.Now}
}

// WithClock 替换时间来源，测试中使用
func (s *BadgeService) WithClock(now func() time.Time) *BadgeService {
	if now != nil {
		s.now = now
	}
	return s
}

// Snapshot 读取用户统计
func (s *BadgeService) Snapshot(ctx context.Context, userID uint) (AthleteSnapshot, error) {
	gdb := s.db.WithContext(ctx)
	snapshot := AthleteSnapshot{Level: 1}

	var drills, games, videos int64
	if err := gdb.Model(&db.DrillCompletion{}).Where("user_id = ?", userID).Count(&drills).Error; err != nil {
		return snapshot, fmt.Errorf("count drill completions: %w", err)
	}
	if err := gdb.Model(&db.GameLog{}).Where("user_id = ?", userID).Count(&games).Error; err != nil {
		return snapshot, fmt.Errorf("count game logs: %w", err)
	}
	if err := gdb.Model(&db.VideoUpload{}).Where("user_id = ?", userID).Count(&videos).Error; err != nil {
		return snapshot, fmt.Errorf("count videos: %w", err)
	}
	snapshot.DrillCompletions = int(drills)
	snapshot.GameLogs = int(games)
	snapshot.VideoUploads = int(videos)

	var records []db.StreakRecord
	if err := gdb.Where("user_id = ?", userID).Limit(1).Find(&records).Error; err != nil {
		return snapshot, fmt.Errorf("load streak record: %w", err)
	}
	if len(records) == 1 {
		snapshot.CurrentStreak = records[0].CurrentStreak
		snapshot.LongestStreak = records[0].LongestStreak
		snapshot.TotalXP = records[0].TotalXP
		snapshot.Level = records[0].Level
	}

	return snapshot, nil
}

// EvaluateBadges 授予用户已满足条件但尚未获得的徽章，返回本次新获得的徽章
// 每个徽章单独处理，单项失败记入结果而不影响其余徽章
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID uint) ([]db.Badge, []ItemResult, error) {
	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	gdb := s.db.WithContext(ctx)

	var catalog []db.Badge
	if err := gdb.Where("id NOT IN (?)",
		gdb.Model(&db.AthleteBadge{}).Select("badge_id").Where("user_id = ?", userID),
	).Order("id ASC").Find(&catalog).Error; err != nil {
		return nil, nil, fmt.Errorf("list badges: %w", err)
	}

	var awarded []db.Badge
	var results []ItemResult
	now := s.now().UTC()
	for _, badge := range catalog {
		value, err := snapshot.Value(Metric(badge.Metric))
		if err != nil {
			results = append(results, failedItem(ItemKindBadge, badge.ID, err))
			continue
		}
		if value < badge.Threshold {
			continue
		}

		grant := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).Create(&db.AthleteBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: now})
		if grant.Error != nil {
			results = append(results, failedItem(ItemKindBadge, badge.ID, fmt.Errorf("award badge %s: %w", badge.Code, grant.Error)))
			continue
		}
		if grant.RowsAffected == 1 {
			awarded = append(awarded, badge)
			results = append(results, ItemResult{
				Kind:     ItemKindBadge,
				ID:       badge.ID,
				Status:   ItemCompleted,
				Progress: value,
				Target:   badge.Threshold,
			})
		}
	}

	return awarded, results, nil
}

// BadgeView 徽章目录项及用户获得情况
type BadgeView struct {
	Badge    db.Badge
	Earned   bool
	EarnedAt *time.Time
}

// ListForUser 返回完整徽章目录并标注已获得项
func (s *BadgeService) ListForUser(ctx context.Context, userID uint) ([]BadgeView, error) {
	gdb := s.db.WithContext(ctx)

	var catalog []db.Badge
	if err := gdb.Order("id ASC").Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}

	var earned []db.AthleteBadge
	if err := gdb.Where("user_id = ?", userID).Find(&earned).Error; err != nil {
		return nil, fmt.Errorf("list athlete badges: %w", err)
	}
	earnedAt := make(map[uint]time.Time, len(earned))
	for _, item := range earned {
		earnedAt[item.BadgeID] = item.EarnedAt
	}

	views := make([]BadgeView, 0, len(catalog))
	for _, badge := range catalog {
		view := BadgeView{Badge: badge}
		if at, ok := earnedAt[badge.ID]; ok {
			at := at
			view.Earned = true
			view.EarnedAt = &at
		}
		views = append(views, view)
	}
	return views, nil
}
