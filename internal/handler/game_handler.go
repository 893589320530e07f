package handler

import (
	"net/http"

	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

type logGameRequest struct {
	Sport         string                 `json:"sport"`
	Opponent      string                 `json:"opponent"`
	PlayedOn      string                 `json:"played_on"`
	MinutesPlayed int                    `json:"minutes_played"`
	Stats         map[string]interface{} `json:"stats"`
	Notes         string                 `json:"notes"`
}

// LogGame 记录比赛数据
func (a *API) LogGame(c *gin.Context) {
	var payload logGameRequest
	if !bindJSON(c, &payload, "请求格式错误") {
		return
	}

	result, err := a.activities.LogGame(c.Request.Context(), currentUserID(c), service.LogGameInput{
		Sport:         payload.Sport,
		Opponent:      payload.Opponent,
		PlayedOn:      payload.PlayedOn,
		MinutesPlayed: payload.MinutesPlayed,
		Stats:         payload.Stats,
		Notes:         payload.Notes,
	})
	if err != nil {
		a.handleServiceError(c, err, "记录比赛失败")
		return
	}

	response := outcomePayload(result.Outcome)
	response["game"] = gamePayload(result.Game)
	c.JSON(http.StatusCreated, response)
}

// ListGames 返回最近的比赛记录
func (a *API) ListGames(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	games, err := a.activities.ListGameLogs(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		a.handleServiceError(c, err, "获取比赛记录失败")
		return
	}

	items := make([]gin.H, 0, len(games))
	for _, game := range games {
		items = append(items, gamePayload(game))
	}
	c.JSON(http.StatusOK, gin.H{"games": items})
}
