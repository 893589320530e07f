package db

import "gorm.io/gorm"

const (
	TeamRoleCoach   = "coach"
	TeamRoleAthlete = "athlete"
)

// Team 球队，InviteCode 用于加入
type Team struct {
	gorm.Model
	Name       string `gorm:"size:120;not null"`
	Sport      string `gorm:"size:40"`
	InviteCode string `gorm:"uniqueIndex;size:16;not null"`
	OwnerID    uint   `gorm:"index;not null"`
}

// TeamMember 球队成员关系
type TeamMember struct {
	gorm.Model
	TeamID uint   `gorm:"not null;uniqueIndex:idx_team_member_unique"`
	UserID uint   `gorm:"not null;index;uniqueIndex:idx_team_member_unique"`
	Role   string `gorm:"size:20;not null"`
	User   User   `gorm:"constraint:OnDelete:CASCADE"`
}
