package handler

import (
	"net/http"

	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

type completeDrillRequest struct {
	DrillID         uint   `json:"drill_id"`
	DurationSeconds int    `json:"duration_seconds"`
	Notes           string `json:"notes"`
	Rating          *int   `json:"rating"`
}

// ListDrills 返回训练目录，sport 为空时返回全部
func (a *API) ListDrills(c *gin.Context) {
	drills, err := a.drills.List(c.Request.Context(), c.Query("sport"))
	if err != nil {
		a.handleServiceError(c, err, "获取训练列表失败")
		return
	}

	items := make([]gin.H, 0, len(drills))
	for _, drill := range drills {
		items = append(items, drillPayload(drill))
	}
	c.JSON(http.StatusOK, gin.H{"drills": items})
}

// GetDrill 返回单个训练及关联技能节点
func (a *API) GetDrill(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	drill, err := a.drills.Get(c.Request.Context(), id)
	if err != nil {
		a.handleServiceError(c, err, "获取训练失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"drill": drillPayload(*drill)})
}

// CompleteDrill 记录一次训练完成，并返回经验、连续天数与各项进度
func (a *API) CompleteDrill(c *gin.Context) {
	var payload completeDrillRequest
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	result, err := a.activities.CompleteDrill(c.Request.Context(), currentUserID(c), service.CompleteDrillInput{
		DrillID:         payload.DrillID,
		DurationSeconds: payload.DurationSeconds,
		Notes:           payload.Notes,
		Rating:          payload.Rating,
	})
	if err != nil {
		a.handleServiceError(c, err, "记录训练失败")
		return
	}

	response := outcomePayload(result.Outcome)
	response["completion"] = completionPayload(result.Completion)
	c.JSON(http.StatusCreated, response)
}

// ListDrillCompletions 返回最近的训练记录
func (a *API) ListDrillCompletions(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	completions, err := a.activities.ListDrillCompletions(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		a.handleServiceError(c, err, "获取训练记录失败")
		return
	}

	items := make([]gin.H, 0, len(completions))
	for _, completion := range completions {
		items = append(items, completionPayload(completion))
	}
	c.JSON(http.StatusOK, gin.H{"completions": items})
}
