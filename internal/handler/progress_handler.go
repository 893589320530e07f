package handler

import (
	"net/http"

	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

// GetStreak 返回连续天数、累计经验与等级进度
func (a *API) GetStreak(c *gin.Context) {
	record, err := a.progression.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取连续打卡信息失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"streak":     streakPayload(record),
		"level_info": levelInfoPayload(service.LevelInfoFor(record.TotalXP)),
	})
}

// ListSkills 返回技能树及当前用户的进度，sport 缺省为用户主项目
func (a *API) ListSkills(c *gin.Context) {
	ctx := c.Request.Context()
	sport := c.Query("sport")
	if sport == "" {
		user, err := a.auth.GetUser(ctx, currentUserID(c))
		if err != nil {
			a.handleServiceError(c, err, "获取用户信息失败")
			return
		}
		sport = user.Sport
	}

	nodes, err := a.skills.ListTree(ctx, currentUserID(c), sport)
	if err != nil {
		a.handleServiceError(c, err, "获取技能树失败")
		return
	}

	items := make([]gin.H, 0, len(nodes))
	for _, node := range nodes {
		item := skillNodePayload(node.Node)
		item["xp_earned"] = node.XPEarned
		item["status"] = node.Status
		item["completed_at"] = formatTime(node.CompletedAt)
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"skills": items})
}

// ListBadges 返回徽章目录并标注已获得项
func (a *API) ListBadges(c *gin.Context) {
	views, err := a.badges.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取徽章失败")
		return
	}

	items := make([]gin.H, 0, len(views))
	for _, view := range views {
		item := badgePayload(view.Badge)
		item["earned"] = view.Earned
		item["earned_at"] = formatTime(view.EarnedAt)
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"badges": items})
}
