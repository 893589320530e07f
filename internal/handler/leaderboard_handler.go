package handler

import (
	"net/http"

	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

// GetLeaderboard 返回排行榜及当前用户名次
// 查询参数：category, time_period, sport, team_id, limit, offset
func (a *API) GetLeaderboard(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	category, err := service.ParseLeaderboardCategory(c.Query("category"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	period, err := service.ParseLeaderboardPeriod(c.Query("time_period"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	teamID, err := parseUintQuery(c, "team_id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// 球队榜只对成员开放
	if teamID != 0 {
		if _, err := a.teams.ListMembers(ctx, userID, teamID); err != nil {
			a.handleServiceError(c, err, "获取球队信息失败")
			return
		}
	}

	query := service.LeaderboardQuery{
		Category: category,
		Period:   period,
		Sport:    c.Query("sport"),
		TeamID:   teamID,
		Limit:    limit,
		Offset:   offset,
	}

	entries, err := a.leaderboard.Rank(ctx, query)
	if err != nil {
		a.handleServiceError(c, err, "获取排行榜失败")
		return
	}
	rank, err := a.leaderboard.UserRank(ctx, userID, query)
	if err != nil {
		a.handleServiceError(c, err, "获取个人排名失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"rank":         entry.Rank,
			"user_id":      entry.UserID,
			"username":     entry.Username,
			"display_name": entry.DisplayName,
			"sport":        entry.Sport,
			"avatar_url":   entry.AvatarURL,
			"value":        entry.Value,
		})
	}

	var userRank interface{}
	if rank != nil {
		userRank = gin.H{"rank": rank.Rank, "value": rank.Value}
	}

	c.JSON(http.StatusOK, gin.H{
		"category":    category,
		"time_period": period,
		"entries":     items,
		"user_rank":   userRank,
	})
}
