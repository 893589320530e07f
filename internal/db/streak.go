package db

import (
	"time"

	"gorm.io/gorm"
)

// StreakRecord 每个用户一条，保存连续打卡、累计经验与等级
// LastActivityDate 只保留日历日（UTC 零点），不含时间部分
// 约束：LongestStreak >= CurrentStreak；Level >= 1
type StreakRecord struct {
	gorm.Model
	UserID           uint `gorm:"uniqueIndex;not null"`
	CurrentStreak    int  `gorm:"not null;default:0"`
	LongestStreak    int  `gorm:"not null;default:0"`
	LastActivityDate *time.Time
	TotalXP          int `gorm:"column:total_xp;not null;default:0;index"`
	Level            int `gorm:"not null;default:1"`
}

// TableName 固定表名，排行榜查询直接引用
func (StreakRecord) TableName() string {
	return "streak_records"
}

// XPEvent 经验流水，按时间窗口统计排行榜
type XPEvent struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"index:idx_xp_events_user_earned;not null"`
	Amount       int       `gorm:"not null"`
	Source       string    `gorm:"size:40"`
	ActivityDate time.Time `gorm:"not null"`
	EarnedAt     time.Time `gorm:"index:idx_xp_events_user_earned;not null"`
}

func (XPEvent) TableName() string {
	return "xp_events"
}
