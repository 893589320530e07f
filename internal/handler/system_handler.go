package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

// HealthCheck 提供监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type aiSettingsRequest struct {
	AIProvider     string  `json:"ai_provider"`
	OpenAIAPIKey   *string `json:"openai_api_key"`
	DeepSeekAPIKey *string `json:"deepseek_api_key"`
	PlanPrompt     *string `json:"plan_prompt"`
}

type aiTestRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

// GetAISettings 返回当前 AI 设置，Key 只返回是否已配置。
func (a *API) GetAISettings(c *gin.Context) {
	settings, err := a.system.GetSettings(c.Request.Context())
	if err != nil {
		a.handleServiceError(c, err, "获取系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": aiSettingsPayload(settings)})
}

// UpdateAISettings 保存 AI 设置。
func (a *API) UpdateAISettings(c *gin.Context) {
	var payload aiSettingsRequest
	if !bindJSON(c, &payload, "请填写完整的系统设置") {
		return
	}

	settings, err := a.system.UpdateSettings(c.Request.Context(), service.SystemSettingsInput{
		AIProvider:     payload.AIProvider,
		OpenAIAPIKey:   payload.OpenAIAPIKey,
		DeepSeekAPIKey: payload.DeepSeekAPIKey,
		PlanPrompt:     payload.PlanPrompt,
	})
	if err != nil {
		a.handleServiceError(c, err, "保存系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "系统设置已保存",
		"settings": aiSettingsPayload(settings),
	})
}

func aiSettingsPayload(settings service.SystemSettings) gin.H {
	return gin.H{
		"ai_provider":         settings.AIProvider,
		"openai_configured":   strings.TrimSpace(settings.OpenAIAPIKey) != "",
		"deepseek_configured": strings.TrimSpace(settings.DeepSeekAPIKey) != "",
		"plan_prompt":         settings.PlanPrompt,
	}
}

// TestAIConnection 测试不同 AI 平台 API Key 的连通性。
func (a *API) TestAIConnection(c *gin.Context) {
	var payload aiTestRequest
	if !bindJSON(c, &payload, "请填写有效的 AI 配置信息") {
		return
	}

	if err := a.system.TestAIConnection(c.Request.Context(), payload.Provider, payload.APIKey); err != nil {
		switch {
		case errors.Is(err, service.ErrAIAPIKeyMissing):
			respondError(c, http.StatusBadRequest, "请填写有效的 AI API Key")
		default:
			a.log.Warn("ai connection test failed", "error", err, "provider", payload.Provider)
			respondError(c, http.StatusBadGateway, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "连接成功"})
}
