// Package isoweek 提供 ISO-8601 周历计算
//
// ISO 周从周一开始，第 1 周是包含当年 1 月 4 日的那一周，
// 因此年初几天可能属于上一 ISO 年，年末几天可能属于下一 ISO 年。
package isoweek

import "time"

// DaysPerWeek 一周天数
const DaysPerWeek = 7

// Date 截断为给定时区下的日历日期，结果以 UTC 零点表示
func Date(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Of 返回日期所在的 ISO 年与周数
func Of(t time.Time) (year, week int) {
	return t.ISOWeek()
}

// Monday 返回 ISO year 第 week 周的周一
// 先找到 1 月 4 日所在周的周一作为第 1 周起点，再按周偏移
func Monday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % DaysPerWeek // 周一 = 0
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (week-1)*DaysPerWeek)
}

// Range 返回 ISO 周的周一与周日
func Range(year, week int) (start, end time.Time) {
	start = Monday(year, week)
	return start, start.AddDate(0, 0, DaysPerWeek-1)
}

// WeeksInYear 返回 ISO 年的周数（52 或 53）
func WeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// Valid 判断 (year, week) 是否为合法 ISO 周
func Valid(year, week int) bool {
	return year > 0 && week >= 1 && week <= WeeksInYear(year)
}
