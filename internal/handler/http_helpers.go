package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/athletetrack/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "user_id"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseIntQuery 缺省时返回 fallback，格式错误返回 error
func parseIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return value, nil
}

func parseUintQuery(c *gin.Context, key string) (uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(value), nil
}

// sessionUserID 从会话中读取登录用户
func sessionUserID(c *gin.Context) (uint, bool) {
	switch v := sessions.Default(c).Get(sessionUserKey).(type) {
	case uint:
		return v, v > 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}

// currentUserID 只能在 AuthRequired 之后调用
func currentUserID(c *gin.Context) uint {
	return c.GetUint(contextUserKey)
}

// handleServiceError 将 service 层错误映射为 HTTP 状态码，依赖故障记录日志后返回通用提示
func (a *API) handleServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnsupportedMetric):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAIAPIKeyMissing):
		respondError(c, http.StatusBadRequest, "AI API Key 未配置")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotTeamMember):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrDrillNotFound),
		errors.Is(err, service.ErrSkillNodeNotFound),
		errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrPlanNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		respondError(c, http.StatusConflict, err.Error())
	default:
		a.log.Error(message, "error", err, "method", c.Request.Method, "path", c.FullPath(), "user_id", currentUserID(c))
		respondError(c, http.StatusInternalServerError, message)
	}
}
