package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressionService 负责连续打卡、累计经验与等级
// 同一用户的更新通过进程内用户锁 + 事务内行锁串行化
type ProgressionService struct {
	db    *gorm.DB
	locks *userLocks
	now   func() time.Time
}

// NewProgressionService 构造 ProgressionService
func NewProgressionService(gdb *gorm.DB) *ProgressionService {
	return &ProgressionService{db: gdb, locks: newUserLocks(), now: time.Now}
}

// WithClock 替换时间来源，测试中使用
func (s *ProgressionService) WithClock(now func() time.Time) *ProgressionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Get 返回用户的连续记录；尚无记录时返回未持久化的初始值（等级 1）
func (s *ProgressionService) Get(ctx context.Context, userID uint) (*db.StreakRecord, error) {
	var record db.StreakRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &db.StreakRecord{UserID: userID, Level: 1}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak record: %w", err)
	}
	return &record, nil
}

// ApplyXP 为用户增加经验并推进连续打卡
// activityDate 为用户所在时区的日历日；同一天重复活动只加经验不加连续天数
func (s *ProgressionService) ApplyXP(ctx context.Context, userID uint, xpDelta int, activityDate time.Time, source string) (*db.StreakRecord, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if xpDelta < 0 {
		return nil, fmt.Errorf("%w: xp delta must not be negative", ErrInvalidInput)
	}

	day := CalendarDay(activityDate)
	unlock := s.locks.lock(userID)
	defer unlock()

	var record db.StreakRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&record).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			record = db.StreakRecord{
				UserID:           userID,
				CurrentStreak:    1,
				LongestStreak:    1,
				LastActivityDate: &day,
				TotalXP:          xpDelta,
				Level:            LevelForXP(xpDelta),
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("create streak record: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load streak record: %w", err)
		default:
			advanceStreak(&record, xpDelta, day)
			if err := tx.Model(&record).Updates(map[string]any{
				"current_streak":     record.CurrentStreak,
				"longest_streak":     record.LongestStreak,
				"last_activity_date": record.LastActivityDate,
				"total_xp":           record.TotalXP,
				"level":              record.Level,
			}).Error; err != nil {
				return fmt.Errorf("update streak record: %w", err)
			}
		}

		event := db.XPEvent{
			UserID:       userID,
			Amount:       xpDelta,
			Source:       strings.TrimSpace(source),
			ActivityDate: day,
			EarnedAt:     s.now().UTC(),
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("record xp event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// advanceStreak 在已有记录上应用一次活动
func advanceStreak(record *db.StreakRecord, xpDelta int, day time.Time) {
	record.CurrentStreak = nextStreak(record.LastActivityDate, record.CurrentStreak, day)
	if record.CurrentStreak > record.LongestStreak {
		record.LongestStreak = record.CurrentStreak
	}
	record.TotalXP += xpDelta
	record.Level = LevelForXP(record.TotalXP)
	record.LastActivityDate = &day
}

// nextStreak 连续天数转移：同日不变，隔日 +1，其余重置为 1
func nextStreak(last *time.Time, current int, day time.Time) int {
	if last == nil {
		return 1
	}
	lastDay := CalendarDay(last.UTC())
	switch {
	case lastDay.Equal(day):
		if current < 1 {
			return 1
		}
		return current
	case lastDay.AddDate(0, 0, 1).Equal(day):
		return current + 1
	default:
		return 1
	}
}
