package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/athletetrack/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken 用户名已被占用
	ErrUsernameTaken = errors.New("username already taken")
)

const minPasswordLength = 8

// RegisterInput 注册参数
type RegisterInput struct {
	Username    string
	Password    string
	DisplayName string
	Sport       string
	Timezone    string
}

// ProfileInput 可修改的资料，nil 表示不修改
type ProfileInput struct {
	DisplayName *string
	Sport       *string
	Timezone    *string
}

// AuthService 账号注册、登录与资料维护
type AuthService struct {
	db              *gorm.DB
	defaultTimezone string
}

// NewAuthService 构造 AuthService，defaultTimezone 为注册时未指定时区的回退值
func NewAuthService(gdb *gorm.DB, defaultTimezone string) *AuthService {
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = "UTC"
	}
	return &AuthService{db: gdb, defaultTimezone: defaultTimezone}
}

// Register 创建账号
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*db.User, error) {
	username := normalizeUsername(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > 64 {
		return nil, fmt.Errorf("%w: username is too long", ErrInvalidInput)
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	if err := validateTimezone(timezone); err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(input.Username)
	}

	gdb := s.db.WithContext(ctx)

	var count int64
	if err := gdb.Model(&db.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Username:    username,
		Password:    string(hashed),
		DisplayName: displayName,
		Sport:       strings.ToLower(strings.TrimSpace(input.Sport)),
		Timezone:    timezone,
	}
	if err := gdb.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验用户名与密码
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).Where("username = ?", normalizeUsername(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser 按 ID 读取用户
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile 修改显示名、项目与时区
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, input ProfileInput) (*db.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > 80 {
			return nil, fmt.Errorf("%w: display_name must be 1-80 characters", ErrInvalidInput)
		}
		updates["display_name"] = name
	}
	if input.Sport != nil {
		updates["sport"] = strings.ToLower(strings.TrimSpace(*input.Sport))
	}
	if input.Timezone != nil {
		tz := strings.TrimSpace(*input.Timezone)
		if err := validateTimezone(tz); err != nil {
			return nil, err
		}
		updates["timezone"] = tz
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetUser(ctx, userID)
}

// SetAvatar 更新头像地址
func (s *AuthService) SetAvatar(ctx context.Context, userID uint, url string) (*db.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar_url", strings.TrimSpace(url)).Error; err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return s.GetUser(ctx, userID)
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func validateTimezone(name string) error {
	if name == "" {
		return fmt.Errorf("%w: timezone is required", ErrInvalidInput)
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, name)
	}
	return nil
}
