package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	Port            string
	GinMode         string
	LogMode         string
	SessionSecret   string
	DefaultTimezone string
	Database        DatabaseConfig
	Upload          UploadConfig
	CORSOrigins     []string
	AI              AIConfig
}

// DatabaseConfig 数据库连接配置，driver 支持 sqlite/postgres/mysql。
type DatabaseConfig struct {
	Driver string
	DSN    string
	Path   string
}

// UploadConfig 上传文件存储配置。
type UploadConfig struct {
	Dir      string
	URLPath  string
	MaxBytes int64
}

// AIConfig 训练计划生成所用的大模型配置，数据库中的系统设置优先。
type AIConfig struct {
	Provider       string
	OpenAIAPIKey   string
	DeepSeekAPIKey string
}

// Load 读取 config.yaml（可选）与环境变量，并为缺失项提供安全的默认值。
// 环境变量统一使用 ATHLETETRACK_ 前缀，例如 ATHLETETRACK_DATABASE_DRIVER。
func Load() (AppConfig, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (AppConfig, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATHLETETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("port", "PORT", "ATHLETETRACK_PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	port := strings.TrimSpace(v.GetString("port"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(v.GetString("listen_addr"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	maxBytes := v.GetInt64("upload.max_bytes")
	if maxBytes <= 0 {
		maxBytes = 200 << 20
	}

	cfg := AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		GinMode:         strings.TrimSpace(v.GetString("gin_mode")),
		LogMode:         strings.TrimSpace(v.GetString("log_mode")),
		SessionSecret:   strings.TrimSpace(v.GetString("session_secret")),
		DefaultTimezone: strings.TrimSpace(v.GetString("default_timezone")),
		Database: DatabaseConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
			DSN:    strings.TrimSpace(v.GetString("database.dsn")),
			Path:   strings.TrimSpace(v.GetString("database.path")),
		},
		Upload: UploadConfig{
			Dir:      strings.TrimSpace(v.GetString("upload.dir")),
			URLPath:  strings.TrimRight(strings.TrimSpace(v.GetString("upload.url_path")), "/"),
			MaxBytes: maxBytes,
		},
		CORSOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		AI: AIConfig{
			Provider:       strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
			OpenAIAPIKey:   strings.TrimSpace(v.GetString("ai.openai_api_key")),
			DeepSeekAPIKey: strings.TrimSpace(v.GetString("ai.deepseek_api_key")),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_mode", "production")
	v.SetDefault("session_secret", "athletetrack-dev-secret")
	v.SetDefault("default_timezone", "UTC")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/athletetrack.db")

	v.SetDefault("upload.dir", "data/uploads")
	v.SetDefault("upload.url_path", "/uploads")
	v.SetDefault("upload.max_bytes", 200<<20)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("ai.provider", "openai")
}

// splitList 兼容环境变量里以逗号分隔的列表。
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
