package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// AIProviderOpenAI 表示使用 OpenAI 能力。
	AIProviderOpenAI = "openai"
	// AIProviderDeepSeek 表示使用 DeepSeek 能力。
	AIProviderDeepSeek = "deepseek"
)

var supportedAIProviders = []string{AIProviderOpenAI, AIProviderDeepSeek}

// ErrAIAPIKeyMissing 表示未提供必需的 AI 平台 API Key。
var ErrAIAPIKeyMissing = errors.New("api key is required")

// AIDefaults 来自配置文件/环境变量的 AI 设置，数据库中的值优先。
type AIDefaults struct {
	Provider       string
	OpenAIAPIKey   string
	DeepSeekAPIKey string
}

// SystemSettings 当前生效的 AI 设置。
type SystemSettings struct {
	AIProvider     string
	OpenAIAPIKey   string
	DeepSeekAPIKey string
	PlanPrompt     string
}

// APIKey 返回当前平台对应的 Key。
func (s SystemSettings) APIKey() string {
	if normalizeAIProvider(s.AIProvider) == AIProviderDeepSeek {
		return strings.TrimSpace(s.DeepSeekAPIKey)
	}
	return strings.TrimSpace(s.OpenAIAPIKey)
}

// SystemSettingsInput 用于更新系统设置；Key 为 nil 表示保持不变，空字符串表示清除。
type SystemSettingsInput struct {
	AIProvider     string
	OpenAIAPIKey   *string
	DeepSeekAPIKey *string
	PlanPrompt     *string
}

// SystemSettingService 提供系统设置的读取与更新能力。
type SystemSettingService struct {
	db              *gorm.DB
	defaults        AIDefaults
	httpClient      httpDoer
	openAIBaseURL   string
	deepSeekBaseURL string
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB, defaults AIDefaults) *SystemSettingService {
	return &SystemSettingService{
		db:              gdb,
		defaults:        defaults,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		openAIBaseURL:   "https://api.openai.com/v1",
		deepSeekBaseURL: "https://api.deepseek.com/v1",
	}
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var settingKeys = []string{
	db.SettingKeyAIProvider,
	db.SettingKeyOpenAIAPIKey,
	db.SettingKeyDeepSeekAPIKey,
	db.SettingKeyPlanPrompt,
}

// GetSettings 读取系统设置，数据库未配置的项回退到启动配置。
func (s *SystemSettingService) GetSettings(ctx context.Context) (SystemSettings, error) {
	result := SystemSettings{
		AIProvider:     normalizeAIProvider(s.defaults.Provider),
		OpenAIAPIKey:   strings.TrimSpace(s.defaults.OpenAIAPIKey),
		DeepSeekAPIKey: strings.TrimSpace(s.defaults.DeepSeekAPIKey),
		PlanPrompt:     defaultPlanSystemPrompt,
	}
	if result.AIProvider == "" {
		result.AIProvider = AIProviderOpenAI
	}

	var records []db.SystemSetting
	if err := s.db.WithContext(ctx).Where(map[string]any{"key": settingKeys}).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		value := strings.TrimSpace(record.Value)
		if value == "" {
			continue
		}
		switch record.Key {
		case db.SettingKeyAIProvider:
			if provider := normalizeAIProvider(value); provider != "" {
				result.AIProvider = provider
			}
		case db.SettingKeyOpenAIAPIKey:
			result.OpenAIAPIKey = value
		case db.SettingKeyDeepSeekAPIKey:
			result.DeepSeekAPIKey = value
		case db.SettingKeyPlanPrompt:
			result.PlanPrompt = value
		}
	}

	return result, nil
}

// UpdateSettings 保存系统设置，返回更新后的生效值。
func (s *SystemSettingService) UpdateSettings(ctx context.Context, input SystemSettingsInput) (SystemSettings, error) {
	provider := AIProviderOpenAI
	if raw := strings.TrimSpace(input.AIProvider); raw != "" {
		provider = normalizeAIProvider(raw)
		if provider == "" {
			return SystemSettings{}, fmt.Errorf("%w: unsupported ai provider %q", ErrInvalidInput, raw)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, db.SettingKeyAIProvider, provider); err != nil {
			return err
		}
		if input.OpenAIAPIKey != nil {
			if err := upsertSetting(tx, db.SettingKeyOpenAIAPIKey, strings.TrimSpace(*input.OpenAIAPIKey)); err != nil {
				return err
			}
		}
		if input.DeepSeekAPIKey != nil {
			if err := upsertSetting(tx, db.SettingKeyDeepSeekAPIKey, strings.TrimSpace(*input.DeepSeekAPIKey)); err != nil {
				return err
			}
		}
		if input.PlanPrompt != nil {
			if err := upsertSetting(tx, db.SettingKeyPlanPrompt, strings.TrimSpace(*input.PlanPrompt)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return s.GetSettings(ctx)
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// SetHTTPClient 替换用于访问第三方服务的 HTTP 客户端，主要面向测试场景。
func (s *SystemSettingService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.httpClient = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.httpClient = client
}

// SetOpenAIBaseURL 覆盖 OpenAI API 的基础地址，便于测试或自定义代理。
func (s *SystemSettingService) SetOpenAIBaseURL(base string) {
	s.openAIBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// SetDeepSeekBaseURL 覆盖 DeepSeek API 的基础地址。
func (s *SystemSettingService) SetDeepSeekBaseURL(base string) {
	s.deepSeekBaseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

// TestAIConnection 调用指定 AI 平台的模型列表接口验证 API Key 的有效性。
// apiKey 为空时使用已保存的 Key。
func (s *SystemSettingService) TestAIConnection(ctx context.Context, provider, apiKey string) error {
	prov := normalizeAIProvider(provider)
	if prov == "" {
		prov = AIProviderOpenAI
	}

	key := strings.TrimSpace(apiKey)
	if key == "" {
		settings, err := s.GetSettings(ctx)
		if err != nil {
			return err
		}
		settings.AIProvider = prov
		key = settings.APIKey()
	}
	if key == "" {
		return ErrAIAPIKeyMissing
	}

	client := s.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	base, label := s.openAIBaseURL, "OpenAI"
	if prov == AIProviderDeepSeek {
		base, label = s.deepSeekBaseURL, "DeepSeek"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/models", nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", strings.ToLower(label), err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("User-Agent", "athletetrack/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 接口失败: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("%s 返回错误：%s (%s)", label, resp.Status, msg)
		}
		return fmt.Errorf("%s 返回错误：%s", label, resp.Status)
	}

	return nil
}

func normalizeAIProvider(provider string) string {
	trimmed := strings.ToLower(strings.TrimSpace(provider))
	for _, candidate := range supportedAIProviders {
		if trimmed == candidate {
			return candidate
		}
	}
	return ""
}
