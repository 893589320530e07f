package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	SkillStatusInProgress = "in_progress"
	SkillStatusCompleted  = "completed"
)

// SkillNode 技能树中的一个节点，由关联训练累积经验解锁
type SkillNode struct {
	gorm.Model
	Code       string `gorm:"uniqueIndex;size:64;not null"`
	Sport      string `gorm:"size:40;index"`
	Name       string `gorm:"size:120;not null"`
	Tier       int    `gorm:"not null;default:1"`
	XPRequired int    `gorm:"column:xp_required;not null"`
}

// SkillProgress 用户 × 技能节点；status=completed 之后冻结
type SkillProgress struct {
	gorm.Model
	UserID      uint   `gorm:"not null;uniqueIndex:idx_skill_progress_user_node"`
	SkillNodeID uint   `gorm:"not null;uniqueIndex:idx_skill_progress_user_node"`
	XPEarned    int    `gorm:"column:xp_earned;not null;default:0"`
	Status      string `gorm:"size:20;not null"`
	CompletedAt *time.Time
}

func (SkillProgress) TableName() string {
	return "skill_progress"
}
