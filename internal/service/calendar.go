package service

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// CalendarDay 取 t 在其所在时区下的日历日，统一表示为 UTC 零点，便于跨时区比较
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseCalendarDay 解析 2006-01-02 格式的日期
func ParseCalendarDay(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

// FormatCalendarDay 输出 2006-01-02
func FormatCalendarDay(day time.Time) string {
	return day.Format(dateLayout)
}

// ResolveLocation 加载时区，失败时回退到 UTC
func ResolveLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TodayIn 返回 now 在指定时区下的日历日
func TodayIn(loc *time.Location, now time.Time) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return CalendarDay(now.In(loc))
}

// weekStart 返回所在周的周一
func weekStart(day time.Time) time.Time {
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -weekday+1)
}

// startOfDayIn 把日历日还原为指定时区下当天零点的真实时刻
func startOfDayIn(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}
