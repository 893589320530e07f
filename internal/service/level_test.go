package service

import "testing"

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
		{9999, 10},
		{10000, 11},
	}
	for _, tc := range cases {
		if got := LevelForXP(tc.xp); got != tc.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestLevelForXPBoundsAndMonotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := 0; xp <= 50000; xp++ {
		level := LevelForXP(xp)
		if level < prev {
			t.Fatalf("level decreased at xp=%d: %d -> %d", xp, prev, level)
		}
		prev = level

		lower := (level - 1) * (level - 1) * 100
		upper := level * level * 100
		if xp < lower || xp >= upper {
			t.Fatalf("xp=%d level=%d outside [%d, %d)", xp, level, lower, upper)
		}
	}
}

func TestThresholdForLevel(t *testing.T) {
	if got := ThresholdForLevel(1); got != 0 {
		t.Fatalf("expected level 1 threshold 0, got %d", got)
	}
	if got := ThresholdForLevel(2); got != 100 {
		t.Fatalf("expected level 2 threshold 100, got %d", got)
	}
	if got := ThresholdForLevel(11); got != 10000 {
		t.Fatalf("expected level 11 threshold 10000, got %d", got)
	}
	if got := ThresholdForLevel(0); got != 0 {
		t.Fatalf("expected invalid level to clamp to 0, got %d", got)
	}
}

func TestLevelInfoFor(t *testing.T) {
	info := LevelInfoFor(250)
	if info.Level != 2 || info.XPInLevel != 150 || info.XPNeeded != 300 {
		t.Fatalf("unexpected level info: %+v", info)
	}
	if info.Progress != 0.5 {
		t.Fatalf("expected progress 0.5, got %v", info.Progress)
	}

	zero := LevelInfoFor(-10)
	if zero.Level != 1 || zero.XPInLevel != 0 || zero.Progress != 0 {
		t.Fatalf("unexpected info for negative xp: %+v", zero)
	}
}
