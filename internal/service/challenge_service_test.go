package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
)

func TestAssignChallengesIsIdempotentPerPeriod(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "ida", "basketball", "UTC")
	// 2024-03-06 是周三
	clock := &fixedClock{now: time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	first, err := svc.AssignChallenges(ctx, user)
	if err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}
	if len(first) != 7 {
		t.Fatalf("expected all 7 templates assigned, got %d", len(first))
	}

	keys := map[string]string{}
	for _, inst := range first {
		keys[inst.Challenge.Kind] = inst.PeriodKey
		switch inst.Challenge.Kind {
		case db.ChallengeKindDaily:
			want := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
			if inst.ExpiresAt == nil || !inst.ExpiresAt.Equal(want) {
				t.Fatalf("daily expires_at = %v, want %v", inst.ExpiresAt, want)
			}
		case db.ChallengeKindWeekly:
			want := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
			if inst.ExpiresAt == nil || !inst.ExpiresAt.Equal(want) {
				t.Fatalf("weekly expires_at = %v, want %v", inst.ExpiresAt, want)
			}
		case db.ChallengeKindMilestone:
			if inst.ExpiresAt != nil {
				t.Fatalf("milestone should not expire, got %v", inst.ExpiresAt)
			}
		}
	}
	if keys[db.ChallengeKindDaily] != "2024-03-06" || keys[db.ChallengeKindWeekly] != "2024-03-04" || keys[db.ChallengeKindMilestone] != "once" {
		t.Fatalf("unexpected period keys: %v", keys)
	}

	again, err := svc.AssignChallenges(ctx, user)
	if err != nil {
		t.Fatalf("second AssignChallenges: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no new assignments on repeat, got %d", len(again))
	}

	clock.Advance(24 * time.Hour)
	nextDay, err := svc.AssignChallenges(ctx, user)
	if err != nil {
		t.Fatalf("next day AssignChallenges: %v", err)
	}
	if len(nextDay) != 2 {
		t.Fatalf("expected only the 2 daily challenges next day, got %d", len(nextDay))
	}
	for _, inst := range nextDay {
		if inst.Challenge.Kind != db.ChallengeKindDaily {
			t.Fatalf("unexpected kind assigned next day: %s", inst.Challenge.Kind)
		}
	}
}

func TestAssignChallengesUsesUserTimezone(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "jon", "soccer", "America/New_York")
	// UTC 已是 3 月 7 日凌晨，纽约仍是 3 月 6 日
	clock := &fixedClock{now: time.Date(2024, 3, 7, 2, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)

	assigned, err := svc.AssignChallenges(context.Background(), user)
	if err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}
	for _, inst := range assigned {
		if inst.Challenge.Kind != db.ChallengeKindDaily {
			continue
		}
		if inst.PeriodKey != "2024-03-06" {
			t.Fatalf("expected local period key 2024-03-06, got %s", inst.PeriodKey)
		}
		want := time.Date(2024, 3, 7, 5, 0, 0, 0, time.UTC)
		if !inst.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry at local midnight %v, got %v", want, inst.ExpiresAt)
		}
	}
}

func TestApplyChallengeProgressCompletesAtTarget(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "kai", "basketball", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	challenge := db.Challenge{Code: "test_three", Title: "Three", Kind: db.ChallengeKindMilestone, Metric: string(MetricGameLogs), Target: 3, Active: true}
	if err := gdb.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	instance := db.ChallengeInstance{
		UserID:      user.ID,
		ChallengeID: challenge.ID,
		PeriodKey:   milestonePeriodKey,
		Metric:      challenge.Metric,
		Target:      3,
		Status:      db.ChallengeStatusActive,
	}
	if err := gdb.Create(&instance).Error; err != nil {
		t.Fatalf("create instance: %v", err)
	}

	signal := []MetricSignal{{Metric: MetricGameLogs, Value: 1}}
	for i := 1; i <= 2; i++ {
		results := svc.ApplyChallengeProgress(ctx, user.ID, signal)
		if len(results) != 1 || results[0].Status != ItemApplied || results[0].Progress != i {
			t.Fatalf("increment %d: unexpected results %+v", i, results)
		}
	}

	results := svc.ApplyChallengeProgress(ctx, user.ID, signal)
	if len(results) != 1 || results[0].Status != ItemCompleted || results[0].Progress != 3 {
		t.Fatalf("expected completion on third increment, got %+v", results)
	}

	var stored db.ChallengeInstance
	if err := gdb.First(&stored, instance.ID).Error; err != nil {
		t.Fatalf("reload instance: %v", err)
	}
	if stored.Status != db.ChallengeStatusCompleted || stored.Progress != 3 || stored.CompletedAt == nil {
		t.Fatalf("unexpected stored instance: %+v", stored)
	}
	if stored.Progress < stored.Target {
		t.Fatalf("completed with progress %d below target %d", stored.Progress, stored.Target)
	}

	if after := svc.ApplyChallengeProgress(ctx, user.ID, signal); len(after) != 0 {
		t.Fatalf("completed instance should not be touched again, got %+v", after)
	}
}

func TestApplyChallengeProgressAbsoluteMetricTakesMax(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "lia", "soccer", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	if _, err := svc.AssignChallenges(ctx, user); err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}

	apply := func(value int) ItemResult {
		t.Helper()
		results := svc.ApplyChallengeProgress(ctx, user.ID, []MetricSignal{{Metric: MetricStreakDays, Value: value}})
		if len(results) != 1 {
			t.Fatalf("expected one streak challenge, got %+v", results)
		}
		return results[0]
	}

	if got := apply(4); got.Progress != 4 {
		t.Fatalf("expected progress 4, got %+v", got)
	}
	if got := apply(1); got.Progress != 4 {
		t.Fatalf("streak reset must not lower progress, got %+v", got)
	}
	if got := apply(7); got.Status != ItemCompleted || got.Progress != 7 {
		t.Fatalf("expected completion at 7, got %+v", got)
	}
}

func TestApplyChallengeProgressSkipsExpired(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "max", "basketball", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	if _, err := svc.AssignChallenges(ctx, user); err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}

	clock.Advance(24 * time.Hour)
	results := svc.ApplyChallengeProgress(ctx, user.ID, []MetricSignal{{Metric: MetricGameLogs, Value: 1}})
	if len(results) != 0 {
		t.Fatalf("expired daily challenge should be ignored, got %+v", results)
	}
}

// createBogusInstance 模拟模板指标被改成未知值后遗留的实例
func createBogusInstance(t *testing.T, gdb *gorm.DB, userID uint) db.ChallengeInstance {
	t.Helper()
	bogus := db.Challenge{Code: "bogus_minutes", Title: "Bogus", Kind: db.ChallengeKindMilestone, Metric: "minutes_played", Target: 10, Active: true}
	if err := gdb.Create(&bogus).Error; err != nil {
		t.Fatalf("create bogus challenge: %v", err)
	}
	instance := db.ChallengeInstance{
		UserID: userID, ChallengeID: bogus.ID, PeriodKey: milestonePeriodKey,
		Metric: bogus.Metric, Target: 10, Status: db.ChallengeStatusActive,
	}
	if err := gdb.Create(&instance).Error; err != nil {
		t.Fatalf("create bogus instance: %v", err)
	}
	return instance
}

func TestApplyChallengeProgressReportsUnknownInstanceMetric(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "mae", "basketball", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	bogus := createBogusInstance(t, gdb, user.ID)

	// 真实活动信号也必须暴露出无法处理的实例
	results := svc.ApplyChallengeProgress(ctx, user.ID, []MetricSignal{{Metric: MetricDrillCompletions, Value: 1}})
	if len(results) != 1 {
		t.Fatalf("expected a single result for the bogus instance, got %+v", results)
	}
	got := results[0]
	if got.ID != bogus.ID || got.Status != ItemFailed || !errors.Is(got.Err, ErrUnsupportedMetric) {
		t.Fatalf("expected unsupported metric failure for instance %d, got %+v", bogus.ID, got)
	}
}

func TestApplyChallengeProgressReportsUnknownSignal(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "mia", "basketball", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	if _, err := svc.AssignChallenges(ctx, user); err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}

	results := svc.ApplyChallengeProgress(ctx, user.ID, []MetricSignal{
		{Metric: Metric("bogus_signal"), Value: 1},
		{Metric: MetricGameLogs, Value: 1},
	})
	if len(results) != 2 {
		t.Fatalf("expected signal failure plus game log progress, got %+v", results)
	}
	if results[0].ID != 0 || results[0].Status != ItemFailed || !errors.Is(results[0].Err, ErrUnsupportedMetric) {
		t.Fatalf("expected unknown signal to fail, got %+v", results[0])
	}
	if results[1].Status != ItemCompleted || results[1].Progress != 1 {
		t.Fatalf("expected valid signal to still apply, got %+v", results[1])
	}
}

func TestAssignChallengesSkipsUnknownMetricTemplate(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "moe", "soccer", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)

	bogus := db.Challenge{Code: "bogus_minutes", Title: "Bogus", Kind: db.ChallengeKindDaily, Metric: "minutes_played", Target: 90, Active: true}
	if err := gdb.Create(&bogus).Error; err != nil {
		t.Fatalf("create bogus challenge: %v", err)
	}

	assigned, err := svc.AssignChallenges(context.Background(), user)
	if err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}
	if len(assigned) != 7 {
		t.Fatalf("expected only the 7 valid templates, got %d", len(assigned))
	}
	for _, inst := range assigned {
		if inst.ChallengeID == bogus.ID {
			t.Fatalf("template with unknown metric was assigned: %+v", inst)
		}
	}
}

func TestListForUserHidesExpired(t *testing.T) {
	gdb := openServiceTestDB(t)
	user := createTestUser(t, gdb, "nia", "soccer", "UTC")
	clock := &fixedClock{now: time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)}
	svc := NewChallengeService(gdb).WithClock(clock.Now)
	ctx := context.Background()

	if _, err := svc.AssignChallenges(ctx, user); err != nil {
		t.Fatalf("AssignChallenges: %v", err)
	}
	listed, err := svc.ListForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(listed) != 7 {
		t.Fatalf("expected 7 active challenges, got %d", len(listed))
	}

	clock.Advance(24 * time.Hour)
	listed, err = svc.ListForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(listed) != 5 {
		t.Fatalf("expected daily challenges to drop out after expiry, got %d", len(listed))
	}
	for _, inst := range listed {
		if inst.Challenge.Code == "" {
			t.Fatalf("expected challenge template to be preloaded")
		}
	}
}
