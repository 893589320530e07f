package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	ChallengeKindDaily     = "daily"
	ChallengeKindWeekly    = "weekly"
	ChallengeKindMilestone = "milestone"

	ChallengeStatusActive    = "active"
	ChallengeStatusCompleted = "completed"
)

// Challenge 挑战模板；Metric 取值见 service.Metric
type Challenge struct {
	gorm.Model
	Code        string `gorm:"uniqueIndex;size:64;not null"`
	Title       string `gorm:"size:120;not null"`
	Description string `gorm:"type:text"`
	Kind        string `gorm:"size:20;not null;index"`
	Metric      string `gorm:"size:40;not null"`
	Target      int    `gorm:"not null"`
	XPReward    int    `gorm:"column:xp_reward;not null;default:0"`
	Sport       string `gorm:"size:40"`
	Active      bool   `gorm:"not null;default:true"`
}

// ChallengeInstance 分配给用户的挑战；Target 在分配时从模板复制
// PeriodKey 区分周期（daily: 2006-01-02，weekly: 周一日期，milestone: "once"），保证重复分配幂等
type ChallengeInstance struct {
	gorm.Model
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_challenge_instance_period"`
	ChallengeID uint      `gorm:"not null;uniqueIndex:idx_challenge_instance_period"`
	Challenge   Challenge `gorm:"constraint:OnDelete:CASCADE"`
	PeriodKey   string    `gorm:"size:20;not null;uniqueIndex:idx_challenge_instance_period"`
	Metric      string    `gorm:"size:40;not null"`
	Progress    int       `gorm:"not null;default:0"`
	Target      int       `gorm:"not null"`
	Status      string    `gorm:"size:20;not null;index"`
	ExpiresAt   *time.Time
	CompletedAt *time.Time
}
