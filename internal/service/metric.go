package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedMetric 表示挑战或徽章配置了未知的统计指标
var ErrUnsupportedMetric = errors.New("unsupported metric")

// Metric 是挑战与徽章共用的统计指标，取值封闭，新增指标必须在 kind 中显式处理
type Metric string

const (
	MetricDrillCompletions      Metric = "drill_completions"
	MetricTotalDrillCompletions Metric = "total_drill_completions"
	MetricGameLogs              Metric = "game_logs"
	MetricVideoUploads          Metric = "video_uploads"
	MetricXPEarned              Metric = "xp_earned"
	MetricStreakDays            Metric = "streak_days"
	MetricLevel                 Metric = "level"
	MetricTotalXP               Metric = "total_xp"
)

type metricKind int

const (
	// metricCounter 按信号值累加
	metricCounter metricKind = iota + 1
	// metricAbsolute 信号值是当前绝对值，进度取较大者
	metricAbsolute
)

func (m Metric) kind() (metricKind, error) {
	switch m {
	case MetricDrillCompletions, MetricTotalDrillCompletions, MetricGameLogs, MetricVideoUploads, MetricXPEarned:
		return metricCounter, nil
	case MetricStreakDays, MetricLevel, MetricTotalXP:
		return metricAbsolute, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMetric, string(m))
	}
}

// ParseMetric 校验并规范化指标名
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(raw)))
	if _, err := m.kind(); err != nil {
		return "", err
	}
	return m, nil
}

// MetricSignal 一次活动产生的指标信号
type MetricSignal struct {
	Metric Metric
	Value  int
}
