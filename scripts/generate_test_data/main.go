package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/athletetrack/internal/config"
	"github.com/athletetrack/internal/db"
	"github.com/athletetrack/internal/service"
	"gorm.io/gorm"
)

const (
	demoPassword = "athlete123"
	demoDays     = 14
)

type demoAthlete struct {
	username string
	sport    string
	// 每 skipEvery 天休息一天，制造不同的连续天数
	skipEvery int
}

var demoAthletes = []demoAthlete{
	{username: "ava", sport: "soccer", skipEvery: 0},
	{username: "ben", sport: "basketball", skipEvery: 5},
	{username: "cal", sport: "soccer", skipEvery: 3},
	{username: "dia", sport: "basketball", skipEvery: 2},
}

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("读取配置失败:", err)
	}
	if err := db.Init(db.Options{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN, Path: cfg.Database.Path}); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")
	created, err := seedDemoData(context.Background(), db.DB, time.Now())
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}
	if created == 0 {
		fmt.Println("演示用户已存在，跳过创建")
		return
	}
	fmt.Printf("测试数据生成完成！%d 名运动员 (密码: %s)\n", created, demoPassword)
}

// seedDemoData 创建演示运动员并回放最近两周的训练，返回新建的用户数
func seedDemoData(ctx context.Context, gdb *gorm.DB, now time.Time) (int, error) {
	current := now
	clock := func() time.Time { return current }

	auth := service.NewAuthService(gdb, "UTC")
	progression := service.NewProgressionService(gdb).WithClock(clock)
	skills := service.NewSkillProgressService(gdb).WithClock(clock)
	challenges := service.NewChallengeService(gdb).WithClock(clock)
	badges := service.NewBadgeService(gdb).WithClock(clock)
	activities := service.NewActivityService(gdb, progression, skills, challenges, badges).WithClock(clock)
	teams := service.NewTeamService(gdb)
	drills := service.NewDrillService(gdb)

	var users []*db.User
	for _, athlete := range demoAthletes {
		user, err := auth.Register(ctx, service.RegisterInput{
			Username: athlete.username,
			Password: demoPassword,
			Sport:    athlete.sport,
		})
		if errors.Is(err, service.ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return len(users), fmt.Errorf("register %s: %w", athlete.username, err)
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return 0, nil
	}

	for i, user := range users {
		athlete := demoAthletes[i]
		catalog, err := drills.List(ctx, user.Sport)
		if err != nil {
			return len(users), err
		}
		if len(catalog) == 0 {
			continue
		}

		for day := demoDays - 1; day >= 0; day-- {
			current = now.AddDate(0, 0, -day)
			if athlete.skipEvery > 0 && day%athlete.skipEvery == 0 {
				continue
			}
			if _, err := challenges.AssignChallenges(ctx, *user); err != nil {
				return len(users), err
			}
			drill := catalog[(day+i)%len(catalog)]
			if _, err := activities.CompleteDrill(ctx, user.ID, service.CompleteDrillInput{
				DrillID:         drill.ID,
				DurationSeconds: 900,
			}); err != nil {
				return len(users), fmt.Errorf("complete drill for %s: %w", user.Username, err)
			}
		}
	}
	current = now

	team, err := teams.CreateTeam(ctx, users[0].ID, "Demo Squad", users[0].Sport)
	if err != nil {
		return len(users), err
	}
	for _, user := range users[1:] {
		if _, err := teams.JoinTeam(ctx, user.ID, team.InviteCode); err != nil {
			return len(users), err
		}
	}

	fmt.Printf("✅ 球队 %s 邀请码: %s\n", team.Name, team.InviteCode)
	return len(users), nil
}
