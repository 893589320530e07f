package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
)

// LeaderboardCategory 排行榜维度
type LeaderboardCategory string

const (
	CategoryXP      LeaderboardCategory = "xp"
	CategoryStreaks LeaderboardCategory = "streaks"
	CategoryDrills  LeaderboardCategory = "drills"
	CategoryBadges  LeaderboardCategory = "badges"
)

// LeaderboardPeriod 时间窗口，只对 xp 与 drills 生效
type LeaderboardPeriod string

const (
	PeriodAllTime LeaderboardPeriod = "all_time"
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
)

const (
	defaultLeaderboardLimit = 20
	maxLeaderboardLimit     = 100
)

// LeaderboardQuery 排行榜查询条件
type LeaderboardQuery struct {
	Category LeaderboardCategory
	Period   LeaderboardPeriod
	Sport    string
	TeamID   uint
	Limit    int
	Offset   int
}

// LeaderboardEntry 排行榜中的一行
type LeaderboardEntry struct {
	Rank        int `gorm:"-"`
	UserID      uint
	Username    string
	DisplayName string
	Sport       string
	AvatarURL   string
	Value       int `gorm:"column:score"`
}

// UserRank 用户在当前范围内的名次
type UserRank struct {
	Rank  int
	Value int
}

// ParseLeaderboardCategory 解析维度，空值默认为 xp
func ParseLeaderboardCategory(raw string) (LeaderboardCategory, error) {
	switch c := LeaderboardCategory(strings.ToLower(strings.TrimSpace(raw))); c {
	case "":
		return CategoryXP, nil
	case CategoryXP, CategoryStreaks, CategoryDrills, CategoryBadges:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown leaderboard category %q", ErrInvalidInput, raw)
	}
}

// ParseLeaderboardPeriod 解析时间窗口，空值默认为 all_time
func ParseLeaderboardPeriod(raw string) (LeaderboardPeriod, error) {
	switch p := LeaderboardPeriod(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PeriodAllTime, nil
	case PeriodAllTime, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown time period %q", ErrInvalidInput, raw)
	}
}

// LeaderboardService 按维度聚合并排序
// 同分按用户 ID 升序，保证分页稳定
type LeaderboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewLeaderboardService 构造 LeaderboardService
func NewLeaderboardService(gdb *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: gdb, now: time.Now}
}

// WithClock 替换时间来源，测试中使用
func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	if now != nil {
		s.now = now
	}
	return s
}

// Rank 返回排行榜的一页
func (s *LeaderboardService) Rank(ctx context.Context, query LeaderboardQuery) ([]LeaderboardEntry, error) {
	query, err := normalizeLeaderboardQuery(query)
	if err != nil {
		return nil, err
	}

	gdb := s.db.WithContext(ctx)

	var entries []LeaderboardEntry
	if err := s.scoped(gdb, query).
		Order("score DESC, users.id ASC").
		Limit(query.Limit).
		Offset(query.Offset).
		Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("rank leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].Rank = query.Offset + i + 1
	}
	return entries, nil
}

// UserRank 返回用户在同一范围内的名次，不在范围内时返回 nil
func (s *LeaderboardService) UserRank(ctx context.Context, userID uint, query LeaderboardQuery) (*UserRank, error) {
	query, err := normalizeLeaderboardQuery(query)
	if err != nil {
		return nil, err
	}

	gdb := s.db.WithContext(ctx)

	var own []LeaderboardEntry
	if err := gdb.Table("(?) AS ranked", s.scoped(gdb, query)).
		Where("ranked.user_id = ?", userID).
		Limit(1).
		Scan(&own).Error; err != nil {
		return nil, fmt.Errorf("load user score: %w", err)
	}
	if len(own) == 0 {
		return nil, nil
	}
	value := own[0].Value

	var ahead int64
	if err := gdb.Table("(?) AS ranked", s.scoped(gdb, query)).
		Where("ranked.score > ? OR (ranked.score = ? AND ranked.user_id < ?)", value, value, userID).
		Count(&ahead).Error; err != nil {
		return nil, fmt.Errorf("count users ahead: %w", err)
	}

	return &UserRank{Rank: int(ahead) + 1, Value: value}, nil
}

func normalizeLeaderboardQuery(query LeaderboardQuery) (LeaderboardQuery, error) {
	category, err := ParseLeaderboardCategory(string(query.Category))
	if err != nil {
		return query, err
	}
	period, err := ParseLeaderboardPeriod(string(query.Period))
	if err != nil {
		return query, err
	}
	query.Category = category
	query.Period = period
	query.Sport = strings.ToLower(strings.TrimSpace(query.Sport))

	if query.Offset < 0 {
		return query, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}
	if query.Limit <= 0 {
		query.Limit = defaultLeaderboardLimit
	}
	if query.Limit > maxLeaderboardLimit {
		query.Limit = maxLeaderboardLimit
	}
	return query, nil
}

// scoped 生成 (user, score) 结果集：范围内所有用户，无数据记 0 分
func (s *LeaderboardService) scoped(gdb *gorm.DB, query LeaderboardQuery) *gorm.DB {
	scope := gdb.Table("users").
		Select("users.id AS user_id, users.username, users.display_name, users.sport, users.avatar_url, COALESCE(agg.score, 0) AS score").
		Joins("LEFT JOIN (?) AS agg ON agg.user_id = users.id", s.aggregate(gdb, query)).
		Where("users.deleted_at IS NULL")

	if query.Sport != "" {
		scope = scope.Where("users.sport = ?", query.Sport)
	}
	if query.TeamID != 0 {
		scope = scope.Where("users.id IN (?)",
			gdb.Model(&db.TeamMember{}).Select("user_id").Where("team_id = ?", query.TeamID))
	}
	return scope
}

// aggregate 每个维度的 (user_id, score) 子查询
func (s *LeaderboardService) aggregate(gdb *gorm.DB, query LeaderboardQuery) *gorm.DB {
	since, windowed := s.windowStart(query.Period)

	switch query.Category {
	case CategoryStreaks:
		return gdb.Model(&db.StreakRecord{}).Select("user_id, current_streak AS score")
	case CategoryDrills:
		sub := gdb.Model(&db.DrillCompletion{}).Select("user_id, COUNT(*) AS score")
		if windowed {
			sub = sub.Where("completed_at >= ?", since)
		}
		return sub.Group("user_id")
	case CategoryBadges:
		return gdb.Model(&db.AthleteBadge{}).Select("user_id, COUNT(*) AS score").Group("user_id")
	default:
		if windowed {
			return gdb.Model(&db.XPEvent{}).
				Select("user_id, SUM(amount) AS score").
				Where("earned_at >= ?", since).
				Group("user_id")
		}
		return gdb.Model(&db.StreakRecord{}).Select("user_id, total_xp AS score")
	}
}

// windowStart 滚动窗口：weekly 最近 7 天，monthly 最近 30 天
func (s *LeaderboardService) windowStart(period LeaderboardPeriod) (time.Time, bool) {
	now := s.now().UTC()
	switch period {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7), true
	case PeriodMonthly:
		return now.AddDate(0, 0, -30), true
	default:
		return time.Time{}, false
	}
}
