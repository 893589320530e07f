package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了运动员账号模型
// Sport 为主项目，用于排行榜按项目筛选；Timezone 决定“今天”的日历边界
type User struct {
	gorm.Model
	Username    string `gorm:"uniqueIndex;size:64;not null"`
	Password    string `gorm:"not null"`
	DisplayName string `gorm:"size:80"`
	Sport       string `gorm:"size:40;index"`
	Timezone    string `gorm:"size:64"`
	AvatarURL   string `gorm:"size:255"`
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(username, password, sport string) error {
	trimmedUser := strings.ToLower(strings.TrimSpace(username))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Username:    trimmedUser,
			Password:    string(hashed),
			DisplayName: username,
			Sport:       strings.ToLower(strings.TrimSpace(sport)),
		}).Error
	}

	return nil
}
