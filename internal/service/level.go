package service

import "math"

// xpPerLevelUnit 等级 L 的起点为 (L-1)^2 * 100
const xpPerLevelUnit = 100

// LevelInfo 描述当前等级内的进度
type LevelInfo struct {
	Level     int
	XPInLevel int
	XPNeeded  int
	Progress  float64
}

// LevelForXP 计算 floor(sqrt(xp/100)) + 1，负数按 0 处理
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return isqrt(xp/xpPerLevelUnit) + 1
}

// ThresholdForLevel 返回达到该等级所需的累计经验
func ThresholdForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	n := level - 1
	return n * n * xpPerLevelUnit
}

// LevelInfoFor 计算累计经验对应的等级与升级进度
func LevelInfoFor(totalXP int) LevelInfo {
	if totalXP < 0 {
		totalXP = 0
	}
	level := LevelForXP(totalXP)
	start := ThresholdForLevel(level)
	needed := ThresholdForLevel(level+1) - start

	info := LevelInfo{
		Level:     level,
		XPInLevel: totalXP - start,
		XPNeeded:  needed,
	}
	if needed > 0 {
		info.Progress = math.Min(1, math.Max(0, float64(info.XPInLevel)/float64(needed)))
	}
	return info
}

// isqrt 整数平方根，避免浮点误差落在等级边界上
func isqrt(n int) int {
	if n < 2 {
		return n
	}
	r := int(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
