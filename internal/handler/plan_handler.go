package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/athletetrack/internal/db"
	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type generatePlanRequest struct {
	Goal            string `json:"goal"`
	Weeks           int    `json:"weeks"`
	SessionsPerWeek int    `json:"sessions_per_week"`
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

func (a *API) planPayload(plan db.TrainingPlan, withContent bool) gin.H {
	payload := gin.H{
		"id":                plan.ID,
		"sport":             plan.Sport,
		"goal":              plan.Goal,
		"weeks":             plan.Weeks,
		"sessions_per_week": plan.SessionsPerWeek,
		"provider":          plan.Provider,
		"created_at":        formatTime(&plan.CreatedAt),
	}
	if !withContent {
		return payload
	}

	payload["content"] = plan.Content
	rendered, err := renderMarkdown(plan.Content)
	if err != nil {
		a.log.Warn("render training plan failed", "error", err, "plan_id", plan.ID)
		rendered = template.HTML(template.HTMLEscapeString(plan.Content))
	}
	payload["html"] = string(rendered)
	return payload
}

// GeneratePlan 调用大模型生成训练计划
func (a *API) GeneratePlan(c *gin.Context) {
	var payload generatePlanRequest
	if !bindJSON(c, &payload, "请填写训练目标") {
		return
	}

	plan, err := a.plans.Generate(c.Request.Context(), currentUserID(c), service.PlanInput{
		Goal:            payload.Goal,
		Weeks:           payload.Weeks,
		SessionsPerWeek: payload.SessionsPerWeek,
	})
	if err != nil {
		a.handleServiceError(c, err, "生成训练计划失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": a.planPayload(*plan, true)})
}

// ListPlans 返回训练计划列表，不含正文
func (a *API) ListPlans(c *gin.Context) {
	plans, err := a.plans.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取训练计划失败")
		return
	}

	items := make([]gin.H, 0, len(plans))
	for _, plan := range plans {
		items = append(items, a.planPayload(plan, false))
	}
	c.JSON(http.StatusOK, gin.H{"plans": items})
}

// GetPlan 返回训练计划正文及渲染后的 HTML
func (a *API) GetPlan(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := a.plans.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		a.handleServiceError(c, err, "获取训练计划失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": a.planPayload(*plan, true)})
}
