package db

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 静态目录：技能节点、训练、挑战模板与徽章。
// 以 Code 为幂等键写入，已存在的行不会被覆盖。

var skillNodeCatalog = []SkillNode{
	{Code: "bb_ball_handling", Sport: "basketball", Name: "Ball Handling", Tier: 1, XPRequired: 100},
	{Code: "bb_shooting_form", Sport: "basketball", Name: "Shooting Form", Tier: 1, XPRequired: 150},
	{Code: "bb_defense_footwork", Sport: "basketball", Name: "Defensive Footwork", Tier: 2, XPRequired: 150},
	{Code: "sc_first_touch", Sport: "soccer", Name: "First Touch", Tier: 1, XPRequired: 100},
	{Code: "sc_passing", Sport: "soccer", Name: "Passing", Tier: 1, XPRequired: 150},
	{Code: "sc_finishing", Sport: "soccer", Name: "Finishing", Tier: 2, XPRequired: 200},
	{Code: "gen_conditioning", Sport: "general", Name: "Conditioning", Tier: 1, XPRequired: 200},
}

type drillSeed struct {
	Drill  Drill
	Skills []string
}

var drillCatalog = []drillSeed{
	{Drill: Drill{Code: "bb_stationary_dribble", Sport: "basketball", Name: "Stationary Dribble Series", Description: "Pound, crossover and between-the-legs dribbles, 30 seconds each hand.", Difficulty: 1, XPBonus: 5}, Skills: []string{"bb_ball_handling"}},
	{Drill: Drill{Code: "bb_form_shooting", Sport: "basketball", Name: "Form Shooting", Description: "50 one-hand form shots from three spots inside the paint.", Difficulty: 2, XPBonus: 10}, Skills: []string{"bb_shooting_form"}},
	{Drill: Drill{Code: "bb_mikan_drill", Sport: "basketball", Name: "Mikan Drill", Description: "Alternating layups under the rim for two minutes.", Difficulty: 2, XPBonus: 10}, Skills: []string{"bb_shooting_form", "bb_ball_handling"}},
	{Drill: Drill{Code: "bb_defensive_slides", Sport: "basketball", Name: "Defensive Slides", Description: "Lane-line slides, 6 sets of 30 seconds.", Difficulty: 2, XPBonus: 10}, Skills: []string{"bb_defense_footwork", "gen_conditioning"}},
	{Drill: Drill{Code: "sc_wall_passes", Sport: "soccer", Name: "Wall Passes", Description: "100 one-touch passes against a wall, alternating feet.", Difficulty: 1, XPBonus: 5}, Skills: []string{"sc_passing", "sc_first_touch"}},
	{Drill: Drill{Code: "sc_juggling", Sport: "soccer", Name: "Juggling Ladder", Description: "Juggle to a personal target, add five touches each set.", Difficulty: 2, XPBonus: 10}, Skills: []string{"sc_first_touch"}},
	{Drill: Drill{Code: "sc_finishing_circuit", Sport: "soccer", Name: "Finishing Circuit", Description: "Shots from five angles after a dribble move.", Difficulty: 3, XPBonus: 15}, Skills: []string{"sc_finishing"}},
	{Drill: Drill{Code: "gen_sprint_intervals", Sport: "general", Name: "Sprint Intervals", Description: "10 x 40 yard sprints with walk-back recovery.", Difficulty: 2, XPBonus: 10}, Skills: []string{"gen_conditioning"}},
}

var challengeCatalog = []Challenge{
	{Code: "daily_two_drills", Title: "Double Up", Description: "Complete 2 drills today.", Kind: ChallengeKindDaily, Metric: "drill_completions", Target: 2, XPReward: 20, Active: true},
	{Code: "daily_log_game", Title: "Box Score", Description: "Log a game today.", Kind: ChallengeKindDaily, Metric: "game_logs", Target: 1, XPReward: 15, Active: true},
	{Code: "weekly_ten_drills", Title: "Grind Week", Description: "Complete 10 drills this week.", Kind: ChallengeKindWeekly, Metric: "drill_completions", Target: 10, XPReward: 100, Active: true},
	{Code: "weekly_300_xp", Title: "XP Hunter", Description: "Earn 300 XP this week.", Kind: ChallengeKindWeekly, Metric: "xp_earned", Target: 300, XPReward: 50, Active: true},
	{Code: "milestone_50_drills", Title: "Half Century", Description: "Complete 50 drills.", Kind: ChallengeKindMilestone, Metric: "total_drill_completions", Target: 50, XPReward: 250, Active: true},
	{Code: "milestone_streak_7", Title: "Seven Straight", Description: "Reach a 7 day streak.", Kind: ChallengeKindMilestone, Metric: "streak_days", Target: 7, XPReward: 150, Active: true},
	{Code: "milestone_first_video", Title: "Film Room", Description: "Upload your first training video.", Kind: ChallengeKindMilestone, Metric: "video_uploads", Target: 1, XPReward: 50, Active: true},
}

var badgeCatalog = []Badge{
	{Code: "first_drill", Name: "First Rep", Description: "Complete your first drill.", Icon: "dumbbell", Metric: "total_drill_completions", Threshold: 1},
	{Code: "drills_25", Name: "Gym Rat", Description: "Complete 25 drills.", Icon: "flame", Metric: "total_drill_completions", Threshold: 25},
	{Code: "drills_100", Name: "Century Club", Description: "Complete 100 drills.", Icon: "trophy", Metric: "total_drill_completions", Threshold: 100},
	{Code: "streak_3", Name: "On a Roll", Description: "Train 3 days in a row.", Icon: "calendar", Metric: "streak_days", Threshold: 3},
	{Code: "streak_7", Name: "Week Warrior", Description: "Train 7 days in a row.", Icon: "calendar-check", Metric: "streak_days", Threshold: 7},
	{Code: "streak_30", Name: "Unstoppable", Description: "Train 30 days in a row.", Icon: "zap", Metric: "streak_days", Threshold: 30},
	{Code: "level_5", Name: "Rising Star", Description: "Reach level 5.", Icon: "star", Metric: "level", Threshold: 5},
	{Code: "level_10", Name: "All-Star", Description: "Reach level 10.", Icon: "medal", Metric: "level", Threshold: 10},
	{Code: "xp_1000", Name: "Four Digits", Description: "Earn 1000 XP.", Icon: "gauge", Metric: "total_xp", Threshold: 1000},
	{Code: "first_game", Name: "Game Day", Description: "Log your first game.", Icon: "clipboard", Metric: "game_logs", Threshold: 1},
	{Code: "first_video", Name: "Film Study", Description: "Upload your first training video.", Icon: "video", Metric: "video_uploads", Threshold: 1},
}

// SeedCatalog 以幂等方式写入目录数据。
func SeedCatalog(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		onCode := clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}

		for _, node := range skillNodeCatalog {
			record := node
			if err := tx.Clauses(onCode).Create(&record).Error; err != nil {
				return fmt.Errorf("seed skill node %s: %w", node.Code, err)
			}
		}

		for _, seed := range drillCatalog {
			record := seed.Drill
			if err := tx.Clauses(onCode).Create(&record).Error; err != nil {
				return fmt.Errorf("seed drill %s: %w", seed.Drill.Code, err)
			}

			var drill Drill
			if err := tx.Where("code = ?", seed.Drill.Code).First(&drill).Error; err != nil {
				return fmt.Errorf("reload drill %s: %w", seed.Drill.Code, err)
			}

			var nodes []SkillNode
			if err := tx.Where("code IN ?", seed.Skills).Find(&nodes).Error; err != nil {
				return fmt.Errorf("load skill nodes for %s: %w", seed.Drill.Code, err)
			}
			if len(nodes) == 0 {
				continue
			}
			if err := tx.Model(&drill).Association("SkillNodes").Append(&nodes); err != nil {
				return fmt.Errorf("link skill nodes for %s: %w", seed.Drill.Code, err)
			}
		}

		for _, challenge := range challengeCatalog {
			record := challenge
			if err := tx.Clauses(onCode).Create(&record).Error; err != nil {
				return fmt.Errorf("seed challenge %s: %w", challenge.Code, err)
			}
		}

		for _, badge := range badgeCatalog {
			record := badge
			if err := tx.Clauses(onCode).Create(&record).Error; err != nil {
				return fmt.Errorf("seed badge %s: %w", badge.Code, err)
			}
		}

		return nil
	})
}
