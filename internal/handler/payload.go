package handler

import (
	"time"

	"github.com/athletetrack/internal/db"
	"github.com/athletetrack/internal/service"
	"github.com/gin-gonic/gin"
)

func formatTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDay(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	// 日期按 UTC 零点存储，部分驱动会以本地时区读回
	return service.FormatCalendarDay(t.UTC())
}

func userPayload(user *db.User) gin.H {
	return gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"display_name": user.DisplayName,
		"sport":        user.Sport,
		"timezone":     user.Timezone,
		"avatar_url":   user.AvatarURL,
		"created_at":   formatTime(&user.CreatedAt),
	}
}

func streakPayload(record *db.StreakRecord) gin.H {
	if record == nil {
		return gin.H{"current_streak": 0, "longest_streak": 0, "last_activity_date": nil, "total_xp": 0, "level": 1}
	}
	return gin.H{
		"current_streak":     record.CurrentStreak,
		"longest_streak":     record.LongestStreak,
		"last_activity_date": formatDay(record.LastActivityDate),
		"total_xp":           record.TotalXP,
		"level":              record.Level,
	}
}

func levelInfoPayload(info service.LevelInfo) gin.H {
	return gin.H{
		"level":       info.Level,
		"xp_in_level": info.XPInLevel,
		"xp_needed":   info.XPNeeded,
		"progress":    info.Progress,
	}
}

func itemResultsPayload(results []service.ItemResult) []gin.H {
	items := make([]gin.H, 0, len(results))
	for _, result := range results {
		item := gin.H{
			"kind":     result.Kind,
			"id":       result.ID,
			"status":   result.Status,
			"progress": result.Progress,
			"target":   result.Target,
		}
		if result.Err != nil {
			item["error"] = result.Err.Error()
		}
		items = append(items, item)
	}
	return items
}

func badgePayload(badge db.Badge) gin.H {
	return gin.H{
		"id":          badge.ID,
		"code":        badge.Code,
		"name":        badge.Name,
		"description": badge.Description,
		"icon":        badge.Icon,
		"metric":      badge.Metric,
		"threshold":   badge.Threshold,
	}
}

func badgesPayload(badges []db.Badge) []gin.H {
	items := make([]gin.H, 0, len(badges))
	for _, badge := range badges {
		items = append(items, badgePayload(badge))
	}
	return items
}

func outcomePayload(outcome service.Outcome) gin.H {
	return gin.H{
		"xp_earned":  outcome.XPEarned,
		"streak":     streakPayload(outcome.Streak),
		"level_info": levelInfoPayload(outcome.LevelInfo),
		"progress":   itemResultsPayload(outcome.Progress),
		"new_badges": badgesPayload(outcome.NewBadges),
	}
}

func skillNodePayload(node db.SkillNode) gin.H {
	return gin.H{
		"id":          node.ID,
		"code":        node.Code,
		"sport":       node.Sport,
		"name":        node.Name,
		"tier":        node.Tier,
		"xp_required": node.XPRequired,
	}
}

func drillPayload(drill db.Drill) gin.H {
	skills := make([]gin.H, 0, len(drill.SkillNodes))
	for _, node := range drill.SkillNodes {
		skills = append(skills, skillNodePayload(node))
	}
	return gin.H{
		"id":          drill.ID,
		"code":        drill.Code,
		"sport":       drill.Sport,
		"name":        drill.Name,
		"description": drill.Description,
		"difficulty":  drill.Difficulty,
		"xp_reward":   service.DrillBaseXP + drill.XPBonus,
		"skill_nodes": skills,
	}
}

func completionPayload(completion db.DrillCompletion) gin.H {
	payload := gin.H{
		"id":               completion.ID,
		"drill_id":         completion.DrillID,
		"duration_seconds": completion.DurationSeconds,
		"notes":            completion.Notes,
		"rating":           completion.Rating,
		"xp_earned":        completion.XPEarned,
		"completed_on":     formatDay(&completion.CompletedOn),
		"completed_at":     formatTime(&completion.CompletedAt),
	}
	if completion.Drill.ID != 0 {
		payload["drill_name"] = completion.Drill.Name
	}
	return payload
}

func challengeInstancePayload(instance db.ChallengeInstance) gin.H {
	return gin.H{
		"id":           instance.ID,
		"challenge_id": instance.ChallengeID,
		"code":         instance.Challenge.Code,
		"title":        instance.Challenge.Title,
		"description":  instance.Challenge.Description,
		"kind":         instance.Challenge.Kind,
		"metric":       instance.Metric,
		"period_key":   instance.PeriodKey,
		"progress":     instance.Progress,
		"target":       instance.Target,
		"xp_reward":    instance.Challenge.XPReward,
		"status":       instance.Status,
		"expires_at":   formatTime(instance.ExpiresAt),
		"completed_at": formatTime(instance.CompletedAt),
	}
}

func challengeInstancesPayload(instances []db.ChallengeInstance) []gin.H {
	items := make([]gin.H, 0, len(instances))
	for _, instance := range instances {
		items = append(items, challengeInstancePayload(instance))
	}
	return items
}

func teamPayload(team db.Team) gin.H {
	return gin.H{
		"id":          team.ID,
		"name":        team.Name,
		"sport":       team.Sport,
		"invite_code": team.InviteCode,
		"owner_id":    team.OwnerID,
	}
}

func gamePayload(game db.GameLog) gin.H {
	stats := map[string]interface{}(game.Stats)
	if stats == nil {
		stats = map[string]interface{}{}
	}
	return gin.H{
		"id":             game.ID,
		"sport":          game.Sport,
		"opponent":       game.Opponent,
		"played_on":      formatDay(&game.PlayedOn),
		"minutes_played": game.MinutesPlayed,
		"stats":          stats,
		"notes":          game.Notes,
		"xp_earned":      game.XPEarned,
	}
}

func videoPayload(video db.VideoUpload) gin.H {
	return gin.H{
		"id":            video.ID,
		"original_name": video.OriginalName,
		"url":           video.URL,
		"content_type":  video.ContentType,
		"size_bytes":    video.SizeBytes,
		"status":        video.Status,
		"xp_earned":     video.XPEarned,
		"uploaded_at":   formatTime(&video.CreatedAt),
	}
}
