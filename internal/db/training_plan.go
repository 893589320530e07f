package db

import "gorm.io/gorm"

// TrainingPlan 由大模型生成的训练计划，Content 为 Markdown
type TrainingPlan struct {
	gorm.Model
	UserID           uint   `gorm:"index;not null"`
	Sport            string `gorm:"size:40"`
	Goal             string `gorm:"size:255"`
	Weeks            int
	SessionsPerWeek  int
	Content          string `gorm:"type:text"`
	Provider         string `gorm:"size:20"`
	PromptTokens     int
	CompletionTokens int
}
