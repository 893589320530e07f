package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const milestonePeriodKey = "once"

// ChallengeService 负责挑战分配与进度累计
type ChallengeService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewChallengeService 构造 ChallengeService
func NewChallengeService(gdb *gorm.DB) *ChallengeService {
	return &ChallengeService{db: gdb, now: time.Now}
}

// WithClock 替换时间来源，测试中使用
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	if now != nil {
		s.now = now
	}
	return s
}

// AssignChallenges 为用户分配当前周期的挑战：每日一份、每周一份、里程碑仅一次
// 周期键唯一，重复调用只返回本次新分配的实例
func (s *ChallengeService) AssignChallenges(ctx context.Context, user db.User) ([]db.ChallengeInstance, error) {
	gdb := s.db.WithContext(ctx)
	loc := ResolveLocation(user.Timezone)
	now := s.now()
	today := TodayIn(loc, now)

	var templates []db.Challenge
	query := gdb.Where("active = ?", true)
	if sport := strings.TrimSpace(user.Sport); sport != "" {
		query = query.Where("sport = '' OR sport IS NULL OR sport = ?", sport)
	} else {
		query = query.Where("sport = '' OR sport IS NULL")
	}
	if err := query.Order("id ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list challenge templates: %w", err)
	}

	assigned := make([]db.ChallengeInstance, 0, len(templates))
	for _, tmpl := range templates {
		periodKey, expiresAt, ok := challengePeriod(tmpl.Kind, today, loc)
		if !ok {
			continue
		}
		// 指标不在已知集合内的模板不分配
		metric, err := ParseMetric(tmpl.Metric)
		if err != nil {
			continue
		}

		instance := db.ChallengeInstance{
			UserID:      user.ID,
			ChallengeID: tmpl.ID,
			PeriodKey:   periodKey,
			Metric:      string(metric),
			Target:      tmpl.Target,
			Status:      db.ChallengeStatusActive,
			ExpiresAt:   expiresAt,
		}
		insert := gdb.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}, {Name: "period_key"}},
			DoNothing: true,
		}).Create(&instance)
		if insert.Error != nil {
			return nil, fmt.Errorf("assign challenge %s: %w", tmpl.Code, insert.Error)
		}
		if insert.RowsAffected == 1 {
			instance.Challenge = tmpl
			assigned = append(assigned, instance)
		}
	}

	return assigned, nil
}

// challengePeriod 计算模板在当前日期下的周期键与过期时刻
func challengePeriod(kind string, today time.Time, loc *time.Location) (string, *time.Time, bool) {
	switch kind {
	case db.ChallengeKindDaily:
		expires := startOfDayIn(today.AddDate(0, 0, 1), loc).UTC()
		return FormatCalendarDay(today), &expires, true
	case db.ChallengeKindWeekly:
		monday := weekStart(today)
		expires := startOfDayIn(monday.AddDate(0, 0, 7), loc).UTC()
		return FormatCalendarDay(monday), &expires, true
	case db.ChallengeKindMilestone:
		return milestonePeriodKey, nil, true
	default:
		return "", nil, false
	}
}

// ApplyChallengeProgress 按指标信号推进用户所有进行中的挑战，返回逐项结果
// 未知指标的信号和实例都以 failed 条目返回
func (s *ChallengeService) ApplyChallengeProgress(ctx context.Context, userID uint, signals []MetricSignal) []ItemResult {
	if len(signals) == 0 {
		return nil
	}

	results := make([]ItemResult, 0, len(signals))
	values := make(map[Metric]int, len(signals))
	for _, signal := range signals {
		metric, err := ParseMetric(string(signal.Metric))
		if err != nil {
			results = append(results, failedItem(ItemKindChallenge, 0, err))
			continue
		}
		values[metric] += signal.Value
	}

	gdb := s.db.WithContext(ctx)
	now := s.now().UTC()

	var instances []db.ChallengeInstance
	if err := gdb.Where("user_id = ? AND status = ?", userID, db.ChallengeStatusActive).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("id ASC").
		Find(&instances).Error; err != nil {
		return append(results, failedItem(ItemKindChallenge, 0, fmt.Errorf("list active challenges: %w", err)))
	}

	for _, instance := range instances {
		metric, err := ParseMetric(instance.Metric)
		if err != nil {
			results = append(results, failedItem(ItemKindChallenge, instance.ID, err))
			continue
		}
		value, ok := values[metric]
		if !ok {
			continue
		}
		result, err := s.applyOne(gdb, instance, metric, value, now)
		if err != nil {
			results = append(results, failedItem(ItemKindChallenge, instance.ID, err))
			continue
		}
		results = append(results, result)
	}
	return results
}

func (s *ChallengeService) applyOne(gdb *gorm.DB, instance db.ChallengeInstance, metric Metric, value int, now time.Time) (ItemResult, error) {
	kind, err := metric.kind()
	if err != nil {
		return ItemResult{}, err
	}

	result := ItemResult{Kind: ItemKindChallenge, ID: instance.ID, Target: instance.Target, Status: ItemApplied}

	scope := gdb.Model(&db.ChallengeInstance{}).
		Where("id = ? AND status = ?", instance.ID, db.ChallengeStatusActive)

	var expr clause.Expr
	switch kind {
	case metricCounter:
		expr = gorm.Expr("progress + ?", value)
	case metricAbsolute:
		expr = gorm.Expr("CASE WHEN progress < ? THEN ? ELSE progress END", value, value)
	}

	update := scope.Session(&gorm.Session{}).Update("progress", expr)
	if update.Error != nil {
		return ItemResult{}, fmt.Errorf("update challenge progress: %w", update.Error)
	}
	if update.RowsAffected == 0 {
		result.Status = ItemSkipped
	} else {
		done := scope.Session(&gorm.Session{}).
			Where("progress >= target").
			Updates(map[string]any{"status": db.ChallengeStatusCompleted, "completed_at": now})
		if done.Error != nil {
			return ItemResult{}, fmt.Errorf("complete challenge: %w", done.Error)
		}
		if done.RowsAffected == 1 {
			result.Status = ItemCompleted
		}
	}

	var current db.ChallengeInstance
	if err := gdb.First(&current, instance.ID).Error; err != nil {
		return ItemResult{}, fmt.Errorf("reload challenge: %w", err)
	}
	result.Progress = current.Progress

	return result, nil
}

// ListForUser 返回进行中的挑战以及最近 7 天完成的挑战
func (s *ChallengeService) ListForUser(ctx context.Context, userID uint) ([]db.ChallengeInstance, error) {
	now := s.now().UTC()
	var instances []db.ChallengeInstance
	if err := s.db.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ?", userID).
		Where("(status = ? AND (expires_at IS NULL OR expires_at > ?)) OR (status = ? AND completed_at >= ?)",
			db.ChallengeStatusActive, now, db.ChallengeStatusCompleted, now.AddDate(0, 0, -7)).
		Order("status ASC, id ASC").
		Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return instances, nil
}
