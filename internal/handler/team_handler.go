package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createTeamRequest struct {
	Name  string `json:"name"`
	Sport string `json:"sport"`
}

type joinTeamRequest struct {
	InviteCode string `json:"invite_code"`
}

// CreateTeam 创建球队，创建者成为教练
func (a *API) CreateTeam(c *gin.Context) {
	var payload createTeamRequest
	if !bindJSON(c, &payload, "请填写球队名称") {
		return
	}

	team, err := a.teams.CreateTeam(c.Request.Context(), currentUserID(c), payload.Name, payload.Sport)
	if err != nil {
		a.handleServiceError(c, err, "创建球队失败")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"team": teamPayload(*team)})
}

// JoinTeam 通过邀请码加入球队
func (a *API) JoinTeam(c *gin.Context) {
	var payload joinTeamRequest
	if !bindJSON(c, &payload, "请填写邀请码") {
		return
	}

	team, err := a.teams.JoinTeam(c.Request.Context(), currentUserID(c), payload.InviteCode)
	if err != nil {
		a.handleServiceError(c, err, "加入球队失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"team": teamPayload(*team)})
}

// ListTeams 返回当前用户所在的球队
func (a *API) ListTeams(c *gin.Context) {
	teams, err := a.teams.ListTeams(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取球队列表失败")
		return
	}

	items := make([]gin.H, 0, len(teams))
	for _, team := range teams {
		items = append(items, teamPayload(team))
	}
	c.JSON(http.StatusOK, gin.H{"teams": items})
}

// ListTeamMembers 返回球队成员，仅成员可见
func (a *API) ListTeamMembers(c *gin.Context) {
	teamID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	members, err := a.teams.ListMembers(c.Request.Context(), currentUserID(c), teamID)
	if err != nil {
		a.handleServiceError(c, err, "获取球队成员失败")
		return
	}

	items := make([]gin.H, 0, len(members))
	for _, member := range members {
		items = append(items, gin.H{
			"user_id":      member.UserID,
			"username":     member.User.Username,
			"display_name": member.User.DisplayName,
			"avatar_url":   member.User.AvatarURL,
			"role":         member.Role,
		})
	}
	c.JSON(http.StatusOK, gin.H{"members": items})
}
