package db

import (
	"time"

	"gorm.io/gorm"
)

// Badge 徽章目录，Metric + Threshold 描述获得条件
type Badge struct {
	gorm.Model
	Code        string `gorm:"uniqueIndex;size:64;not null"`
	Name        string `gorm:"size:120;not null"`
	Description string `gorm:"type:text"`
	Icon        string `gorm:"size:50"`
	Metric      string `gorm:"size:40;not null"`
	Threshold   int    `gorm:"not null"`
}

// AthleteBadge 用户已获得的徽章
type AthleteBadge struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_athlete_badge_unique"`
	BadgeID  uint      `gorm:"not null;uniqueIndex:idx_athlete_badge_unique"`
	Badge    Badge     `gorm:"constraint:OnDelete:CASCADE"`
	EarnedAt time.Time `gorm:"not null"`
}
