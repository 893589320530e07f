package db

import "gorm.io/gorm"

const VideoStatusUploaded = "uploaded"

// VideoUpload 上传的训练视频，分析由外部服务完成
type VideoUpload struct {
	gorm.Model
	UserID       uint   `gorm:"index;not null"`
	OriginalName string `gorm:"size:255"`
	StoredName   string `gorm:"size:255;not null"`
	URL          string `gorm:"size:255;not null"`
	ContentType  string `gorm:"size:80"`
	SizeBytes    int64
	Status       string `gorm:"size:20;not null"`
	XPEarned     int    `gorm:"column:xp_earned;not null;default:0"`
}
