package db

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameLog 比赛数据记录，Stats 为各项目自定义的数据项（points/rebounds/goals 等）
type GameLog struct {
	gorm.Model
	UserID        uint      `gorm:"index;not null"`
	Sport         string    `gorm:"size:40"`
	Opponent      string    `gorm:"size:120"`
	PlayedOn      time.Time `gorm:"index;not null"`
	MinutesPlayed int
	Stats         datatypes.JSONMap
	Notes         string `gorm:"type:text"`
	XPEarned      int    `gorm:"column:xp_earned;not null;default:0"`
}
