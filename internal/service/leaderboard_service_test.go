package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/athletetrack/internal/db"
	"gorm.io/gorm"
)

type leaderboardFixture struct {
	gdb      *gorm.DB
	svc      *LeaderboardService
	ava      db.User
	ben      db.User
	cal      db.User
	team     db.Team
	clock    *fixedClock
	progress *ProgressionService
}

func newLeaderboardFixture(t *testing.T) leaderboardFixture {
	t.Helper()
	gdb := openServiceTestDB(t)
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	clock := &fixedClock{now: now.AddDate(0, 0, -20)}

	f := leaderboardFixture{
		gdb:      gdb,
		ava:      createTestUser(t, gdb, "ava", "basketball", "UTC"),
		ben:      createTestUser(t, gdb, "ben", "basketball", "UTC"),
		cal:      createTestUser(t, gdb, "cal", "soccer", "UTC"),
		clock:    clock,
		progress: NewProgressionService(gdb).WithClock(clock.Now),
	}
	ctx := context.Background()

	// ava: 200 xp 二十天前，50 xp 今天
	if _, err := f.progress.ApplyXP(ctx, f.ava.ID, 200, CalendarDay(clock.now), SourceDrill); err != nil {
		t.Fatalf("seed old xp: %v", err)
	}
	clock.now = now
	for _, grant := range []struct {
		user uint
		xp   int
	}{{f.ava.ID, 50}, {f.ben.ID, 250}, {f.cal.ID, 120}} {
		if _, err := f.progress.ApplyXP(ctx, grant.user, grant.xp, CalendarDay(now), SourceDrill); err != nil {
			t.Fatalf("seed xp: %v", err)
		}
	}

	f.team = db.Team{Name: "Hawks", InviteCode: "HAWKS001", OwnerID: f.ava.ID}
	if err := gdb.Create(&f.team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}
	for _, userID := range []uint{f.ava.ID, f.cal.ID} {
		if err := gdb.Create(&db.TeamMember{TeamID: f.team.ID, UserID: userID, Role: db.TeamRoleAthlete}).Error; err != nil {
			t.Fatalf("add member: %v", err)
		}
	}

	f.svc = NewLeaderboardService(gdb).WithClock(clock.Now)
	return f
}

func entryUsers(entries []LeaderboardEntry) []uint {
	ids := make([]uint, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.UserID)
	}
	return ids
}

func sameIDs(got, want []uint) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestLeaderboardXPAllTimeTieBreaksByUserID(t *testing.T) {
	f := newLeaderboardFixture(t)
	ctx := context.Background()

	entries, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryXP})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	// ava 与 ben 同为 250，按用户 ID 升序
	if want := []uint{f.ava.ID, f.ben.ID, f.cal.ID}; !sameIDs(entryUsers(entries), want) {
		t.Fatalf("unexpected order %v, want %v", entryUsers(entries), want)
	}
	if entries[0].Value != 250 || entries[0].Rank != 1 || entries[2].Rank != 3 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	page, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryXP, Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Rank page: %v", err)
	}
	if len(page) != 1 || page[0].UserID != f.ben.ID || page[0].Rank != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestLeaderboardXPWeeklyWindow(t *testing.T) {
	f := newLeaderboardFixture(t)

	entries, err := f.svc.Rank(context.Background(), LeaderboardQuery{Category: CategoryXP, Period: PeriodWeekly})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if want := []uint{f.ben.ID, f.cal.ID, f.ava.ID}; !sameIDs(entryUsers(entries), want) {
		t.Fatalf("unexpected weekly order %v, want %v", entryUsers(entries), want)
	}
	if entries[2].Value != 50 {
		t.Fatalf("expected ava weekly xp 50, got %d", entries[2].Value)
	}

	monthly, err := f.svc.Rank(context.Background(), LeaderboardQuery{Category: CategoryXP, Period: PeriodMonthly})
	if err != nil {
		t.Fatalf("Rank monthly: %v", err)
	}
	if monthly[0].UserID != f.ava.ID || monthly[0].Value != 250 {
		t.Fatalf("expected ava to lead monthly with 250, got %+v", monthly[0])
	}
}

func TestLeaderboardScopeFilters(t *testing.T) {
	f := newLeaderboardFixture(t)
	ctx := context.Background()

	bySport, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryXP, Sport: "Basketball"})
	if err != nil {
		t.Fatalf("Rank sport: %v", err)
	}
	if want := []uint{f.ava.ID, f.ben.ID}; !sameIDs(entryUsers(bySport), want) {
		t.Fatalf("unexpected sport scope %v", entryUsers(bySport))
	}

	byTeam, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryXP, TeamID: f.team.ID})
	if err != nil {
		t.Fatalf("Rank team: %v", err)
	}
	if want := []uint{f.ava.ID, f.cal.ID}; !sameIDs(entryUsers(byTeam), want) {
		t.Fatalf("unexpected team scope %v", entryUsers(byTeam))
	}

	rank, err := f.svc.UserRank(ctx, f.ben.ID, LeaderboardQuery{Category: CategoryXP, TeamID: f.team.ID})
	if err != nil {
		t.Fatalf("UserRank: %v", err)
	}
	if rank != nil {
		t.Fatalf("expected nil rank outside team scope, got %+v", rank)
	}
}

func TestLeaderboardUserRank(t *testing.T) {
	f := newLeaderboardFixture(t)
	ctx := context.Background()

	rank, err := f.svc.UserRank(ctx, f.ben.ID, LeaderboardQuery{Category: CategoryXP})
	if err != nil {
		t.Fatalf("UserRank: %v", err)
	}
	if rank == nil || rank.Rank != 2 || rank.Value != 250 {
		t.Fatalf("unexpected rank for ben: %+v", rank)
	}

	weekly, err := f.svc.UserRank(ctx, f.ava.ID, LeaderboardQuery{Category: CategoryXP, Period: PeriodWeekly})
	if err != nil {
		t.Fatalf("UserRank weekly: %v", err)
	}
	if weekly == nil || weekly.Rank != 3 || weekly.Value != 50 {
		t.Fatalf("unexpected weekly rank for ava: %+v", weekly)
	}
}

func TestLeaderboardCountCategories(t *testing.T) {
	f := newLeaderboardFixture(t)
	ctx := context.Background()
	drill := findDrill(t, f.gdb, "bb_form_shooting")
	now := f.clock.now

	completions := []db.DrillCompletion{
		{UserID: f.cal.ID, DrillID: drill.ID, CompletedOn: CalendarDay(now), CompletedAt: now},
		{UserID: f.cal.ID, DrillID: drill.ID, CompletedOn: CalendarDay(now), CompletedAt: now},
		{UserID: f.ben.ID, DrillID: drill.ID, CompletedOn: CalendarDay(now), CompletedAt: now},
		{UserID: f.ben.ID, DrillID: drill.ID, CompletedOn: CalendarDay(now.AddDate(0, 0, -10)), CompletedAt: now.AddDate(0, 0, -10)},
		{UserID: f.ben.ID, DrillID: drill.ID, CompletedOn: CalendarDay(now.AddDate(0, 0, -10)), CompletedAt: now.AddDate(0, 0, -10)},
	}
	if err := f.gdb.Create(&completions).Error; err != nil {
		t.Fatalf("create completions: %v", err)
	}

	allTime, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryDrills})
	if err != nil {
		t.Fatalf("Rank drills: %v", err)
	}
	if allTime[0].UserID != f.ben.ID || allTime[0].Value != 3 {
		t.Fatalf("expected ben to lead all-time drills with 3, got %+v", allTime[0])
	}

	weekly, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryDrills, Period: PeriodWeekly})
	if err != nil {
		t.Fatalf("Rank weekly drills: %v", err)
	}
	if weekly[0].UserID != f.cal.ID || weekly[0].Value != 2 {
		t.Fatalf("expected cal to lead weekly drills with 2, got %+v", weekly[0])
	}

	var badge db.Badge
	if err := f.gdb.Where("code = ?", "first_game").First(&badge).Error; err != nil {
		t.Fatalf("load badge: %v", err)
	}
	if err := f.gdb.Create(&db.AthleteBadge{UserID: f.cal.ID, BadgeID: badge.ID, EarnedAt: now}).Error; err != nil {
		t.Fatalf("award badge: %v", err)
	}
	badges, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryBadges})
	if err != nil {
		t.Fatalf("Rank badges: %v", err)
	}
	if badges[0].UserID != f.cal.ID || badges[0].Value != 1 || badges[1].Value != 0 {
		t.Fatalf("unexpected badge leaderboard: %+v", badges)
	}

	streaks, err := f.svc.Rank(ctx, LeaderboardQuery{Category: CategoryStreaks, Period: PeriodWeekly})
	if err != nil {
		t.Fatalf("Rank streaks: %v", err)
	}
	if len(streaks) != 3 || streaks[0].Value != 1 {
		t.Fatalf("unexpected streak leaderboard: %+v", streaks)
	}
}

func TestLeaderboardRejectsInvalidQuery(t *testing.T) {
	f := newLeaderboardFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Rank(ctx, LeaderboardQuery{Category: "points"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}
	if _, err := f.svc.Rank(ctx, LeaderboardQuery{Period: "yearly"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown period, got %v", err)
	}
	if _, err := f.svc.Rank(ctx, LeaderboardQuery{Offset: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative offset, got %v", err)
	}

	query, err := normalizeLeaderboardQuery(LeaderboardQuery{Limit: 500})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if query.Limit != maxLeaderboardLimit || query.Category != CategoryXP || query.Period != PeriodAllTime {
		t.Fatalf("unexpected normalized query: %+v", query)
	}
}
