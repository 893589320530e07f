package db

import (
	"time"

	"gorm.io/gorm"
)

// Drill 训练项目目录，Code 用于种子数据幂等写入
type Drill struct {
	gorm.Model
	Code        string      `gorm:"uniqueIndex;size:64;not null"`
	Sport       string      `gorm:"size:40;index"`
	Name        string      `gorm:"size:120;not null"`
	Description string      `gorm:"type:text"`
	Difficulty  int         `gorm:"not null;default:1"`
	XPBonus     int         `gorm:"column:xp_bonus;not null;default:0"`
	SkillNodes  []SkillNode `gorm:"many2many:drill_skill_nodes;"`
}

// DrillCompletion 记录一次训练完成
// CompletedOn 是用户时区下的日历日，CompletedAt 为实际时间
type DrillCompletion struct {
	gorm.Model
	UserID          uint  `gorm:"index;not null"`
	DrillID         uint  `gorm:"index;not null"`
	Drill           Drill `gorm:"constraint:OnDelete:CASCADE"`
	DurationSeconds int
	Notes           string `gorm:"type:text"`
	Rating          *int
	XPEarned        int       `gorm:"column:xp_earned;not null;default:0"`
	CompletedOn     time.Time `gorm:"not null"`
	CompletedAt     time.Time `gorm:"index;not null"`
}
