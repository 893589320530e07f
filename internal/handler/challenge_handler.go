package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AssignChallenges 为当前用户分配本周期的挑战，重复调用不会重复分配
func (a *API) AssignChallenges(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := a.auth.GetUser(ctx, currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取用户信息失败")
		return
	}

	assigned, err := a.challenges.AssignChallenges(ctx, *user)
	if err != nil {
		a.handleServiceError(c, err, "分配挑战失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"assigned": challengeInstancesPayload(assigned)})
}

// ListChallenges 返回进行中及近期完成的挑战
func (a *API) ListChallenges(c *gin.Context) {
	instances, err := a.challenges.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.handleServiceError(c, err, "获取挑战失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challengeInstancesPayload(instances)})
}
