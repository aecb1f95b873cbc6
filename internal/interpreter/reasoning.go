package interpreter

import "strings"

// Keyword sets deciding when a completion request asks for deeper reasoning.
// Plain clock times resolve fine without it; vague or late-night phrasing
// benefits from the extra effort at the cost of latency.
var (
	timeOfDayKeywords = []string{
		"今天", "明天", "后天", "上午", "下午", "晚上", "凌晨", "早晨", "早上",
		"today", "tomorrow", "tonight", "morning", "afternoon", "evening",
	}

	relativeTimeKeywords = []string{
		"下周", "下个月", "下个星期",
		"这周", "这个月", "这个星期",
		"月底", "月初", "年中", "年底", "年初",
		"工作日", "周末", "节假日", "假期",
		"next week", "next month", "this week", "this month",
		"end of the month", "weekend", "holiday",
	}

	specificDateKeywords = []string{
		"下周一", "下周二", "下周三", "下周四", "下周五", "下周六", "下周日",
		"这周一", "这周二", "这周三", "这周四", "这周五", "这周六", "这周日",
		"next monday", "next tuesday", "next wednesday", "next thursday",
		"next friday", "next saturday", "next sunday",
		"this monday", "this tuesday", "this wednesday", "this thursday",
		"this friday", "this saturday", "this sunday",
	}

	fuzzyTimeKeywords = []string{
		"最近", "过几天", "几天后", "下周左右", "大概", "大约", "左右", "前后", "差不多",
		"soon", "in a few days", "around", "roughly", "approximately", "or so",
	}
)

// shouldEnableReasoning reports whether the completion for text should carry
// a medium reasoning effort. hour is the local hour of the reference clock.
func shouldEnableReasoning(text string, hour int) bool {
	lowered := strings.ToLower(text)

	// Small-hours inputs that mention a time of day are ambiguous: "明天"
	// said at 2am usually means the daytime that is about to start.
	if hour >= 0 && hour <= 6 && containsAny(lowered, timeOfDayKeywords) {
		return true
	}

	// Relative spans need resolving unless a concrete weekday pins them down.
	if containsAny(lowered, relativeTimeKeywords) && !containsAny(lowered, specificDateKeywords) {
		return true
	}

	return containsAny(lowered, fuzzyTimeKeywords)
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
