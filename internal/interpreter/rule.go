package interpreter

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"calagent/internal/logging"
	"calagent/internal/metrics"
)

// RuleInterpreter classifies intent and extracts slots with bilingual
// (Chinese/English) regular expression patterns. It never performs I/O and is
// deterministic for a fixed clock, so parsing the same input twice yields
// identical commands.
type RuleInterpreter struct {
	now    func() time.Time
	logger logging.Logger
}

// NewRuleInterpreter returns a pattern-based interpreter using the wall clock.
func NewRuleInterpreter(logger logging.Logger) *RuleInterpreter {
	return &RuleInterpreter{now: time.Now, logger: logging.OrNop(logger)}
}

// newRuleInterpreterAt pins the reference clock, for tests.
func newRuleInterpreterAt(now func() time.Time) *RuleInterpreter {
	return &RuleInterpreter{now: now, logger: logging.Nop()}
}

var intentOrder = []Intent{IntentCreate, IntentRead, IntentUpdate, IntentDelete}

var intentPatterns = map[Intent][]*regexp.Regexp{
	IntentCreate: compileAll(
		`(?:create|add|schedule|make|book)\s+(?:a\s+)?(?:meeting|event|appointment)`,
		`(?:安排|创建|添加|预定|新建)\s*(?:会议|事件|日程|约会)?`,
		`(?:set\s+up|plan)\s+(?:a\s+)?(?:meeting|event)`,
	),
	IntentRead: compileAll(
		`(?:show|list|display|view|check|what\s+is)\s+(?:my\s+)?(?:schedule|calendar|events|meetings)`,
		`(?:查看|显示|列出|检查|看看)\s*(?:日程|日历|事件|会议|安排)?`,
		`(?:when\s+is|when\s+do\s+i\s+have)`,
	),
	IntentUpdate: compileAll(
		`(?:update|change|modify|reschedule|move)\s+(?:a\s+)?(?:meeting|event|appointment)`,
		`(?:更新|修改|改变|调整|重新安排)\s*(?:会议|事件|日程)?`,
		`(?:edit|alter)\s+(?:the\s+)?(?:event|meeting)`,
	),
	IntentDelete: compileAll(
		`(?:delete|remove|cancel|clear)\s+(?:a\s+)?(?:meeting|event|appointment)`,
		`(?:删除|取消|移除)\s*(?:会议|事件|日程)?`,
		`(?:drop|scratch)\s+(?:the\s+)?(?:event|meeting)`,
	),
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// Parse implements Interpreter. The returned error is always nil: anything
// the patterns cannot make sense of degrades to IntentNone.
func (p *RuleInterpreter) Parse(_ context.Context, text string) (ParsedCommand, error) {
	normalized := strings.ToLower(strings.TrimSpace(text))

	intent, confidence := classifyIntent(normalized)
	if intent == IntentNone {
		metrics.ObserveParse("rule", string(IntentNone))
		return ParsedCommand{Intent: IntentNone}, nil
	}

	cmd := ParsedCommand{Intent: intent, Confidence: confidence}

	start, end := p.extractTime(normalized)
	cmd.StartTime = start
	cmd.EndTime = end

	cmd.Location = extractLocation(normalized)
	cmd.Title = extractTitle(normalized)
	cmd.Description = extractDescription(normalized, !start.IsZero(), cmd.Location)

	p.logger.Debug("rule parse: intent=%s confidence=%.2f title=%q start=%v",
		cmd.Intent, cmd.Confidence, cmd.Title, cmd.StartTime)
	metrics.ObserveParse("rule", string(cmd.Intent))
	return cmd, nil
}

// classifyIntent scores every pattern set against the text. Each matching
// pattern adds one point; the winner is the highest score with ties broken
// by enumeration order (create, read, update, delete).
func classifyIntent(text string) (Intent, float64) {
	best := IntentNone
	bestScore := 0
	var confidence float64

	for _, intent := range intentOrder {
		patterns := intentPatterns[intent]
		score := 0
		for _, re := range patterns {
			if re.MatchString(text) {
				score++
			}
		}
		if score > bestScore {
			best = intent
			bestScore = score
			confidence = float64(score) / float64(len(patterns))
		}
	}

	return best, confidence
}

// Time extraction. Patterns are tried in order and the first one that both
// matches and parses wins; ranges come before single times so "2pm to 4pm"
// is not consumed as a lone "2pm".
type timePatternKind int

const (
	kindRangeEnglish timePatternKind = iota
	kindRangeChinese
	kindSingleEnglish
	kindSingleChinese
)

var timePatterns = []struct {
	kind timePatternKind
	re   *regexp.Regexp
}{
	{kindRangeEnglish, regexp.MustCompile(`(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\s*(?:to|until|-)\s*(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)},
	{kindRangeChinese, regexp.MustCompile(`(?:从)?(\d{1,2})点(?:\s*(\d{1,2})分)?\s*(?:到|至)\s*(\d{1,2})点(?:\s*(\d{1,2})分)?`)},
	{kindSingleEnglish, regexp.MustCompile(`(?:at|from)\s+(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)},
	{kindSingleEnglish, regexp.MustCompile(`(?:tomorrow|today|next\s+week)\s+(?:at\s+)?(\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)},
	{kindSingleChinese, regexp.MustCompile(`(\d{1,2})点(?:\s*(\d{1,2})分)?`)},
}

func (p *RuleInterpreter) extractTime(text string) (start, end time.Time) {
	base := p.baseDate(text)

	for _, tp := range timePatterns {
		match := tp.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		switch tp.kind {
		case kindRangeEnglish:
			s, okS := parseEnglishClock(match[1], base)
			e, okE := parseEnglishClock(match[2], base)
			if okS && okE {
				return s, e
			}
		case kindRangeChinese:
			s, okS := parseChineseClock(match[1], match[2], text, base)
			e, okE := parseChineseClock(match[3], match[4], text, base)
			if okS && okE {
				return s, e
			}
		case kindSingleEnglish:
			if s, ok := parseEnglishClock(match[1], base); ok {
				// Default duration is exactly one hour, via duration
				// arithmetic so a 23:00 start rolls into the next day.
				return s, s.Add(time.Hour)
			}
		case kindSingleChinese:
			if s, ok := parseChineseClock(match[1], match[2], text, base); ok {
				return s, s.Add(time.Hour)
			}
		}
	}

	return time.Time{}, time.Time{}
}

// baseDate resolves relative-date keywords against the reference clock.
func (p *RuleInterpreter) baseDate(text string) time.Time {
	base := p.now()
	switch {
	case strings.Contains(text, "tomorrow") || strings.Contains(text, "明天"):
		base = base.AddDate(0, 0, 1)
	case strings.Contains(text, "next week") || strings.Contains(text, "下周"):
		base = base.AddDate(0, 0, 7)
	}
	return base
}

var englishClockRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

func parseEnglishClock(s string, base time.Time) (time.Time, bool) {
	match := englishClockRe.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return time.Time{}, false
	}

	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}

	switch match[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return atClock(base, hour, minute), true
}

// parseChineseClock parses "H点[M分]" digits. The 12-hour shift applies only
// when the input text carries the afternoon marker and the hour is below 12.
func parseChineseClock(hourStr, minuteStr, text string, base time.Time) (time.Time, bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return time.Time{}, false
	}
	minute := 0
	if minuteStr != "" {
		if minute, err = strconv.Atoi(minuteStr); err != nil {
			return time.Time{}, false
		}
	}

	if strings.Contains(text, "下午") && hour < 12 {
		hour += 12
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return atClock(base, hour, minute), true
}

func atClock(base time.Time, hour, minute int) time.Time {
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, time.Local)
}

// Slot-stripping patterns shared by the title and description extractors.
var (
	commandPhraseRe = regexp.MustCompile(
		`(?:create|add|schedule|make|book|安排|创建|添加|预定|新建|show|list|display|view|check|update|change|modify|delete|remove|cancel|查看|显示|列出|检查|看看|更新|修改|删除|取消)\s*(?:a\s+)?(?:meeting|event|appointment|会议|事件|日程|约会)?`)
	timeFragmentRe = regexp.MustCompile(
		`(?:at|on|from|to|until|between|\d{1,2}(?::\d{2})?\s*(?:am|pm)?|今天|明天|下周|上午|下午|点|分|点钟)`)
	locationWordRe = regexp.MustCompile(`(?:in|at|location|地点|位置|会议室|room|office|房间)`)
	connectorRe    = regexp.MustCompile(`(?:和|与|with|for|about)`)

	descTimeFragmentRe = regexp.MustCompile(
		`(?:at|on|from|to|until|between|\d{1,2}(?::\d{2})?\s*(?:am|pm)?)`)
	descCommandVerbRe = regexp.MustCompile(`(?:create|add|schedule|make|book|安排|创建|添加|预定)`)
)

// extractTitle strips command phrases, time fragments, location words and
// connectors; whatever survives is the event subject.
func extractTitle(text string) string {
	cleaned := commandPhraseRe.ReplaceAllString(text, "")
	cleaned = timeFragmentRe.ReplaceAllString(cleaned, "")
	cleaned = locationWordRe.ReplaceAllString(cleaned, "")
	cleaned = connectorRe.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

var locationPatterns = compileAll(
	`(?:in|at|location|地点|位置)\s+([^.,!?，。！？]+)`,
	`(?:会议室|room|office)\s+([^.,!?，。！？]+)`,
)

// extractLocation returns the first phrase following a location marker, cut
// at the next punctuation.
func extractLocation(text string) string {
	for _, re := range locationPatterns {
		if match := re.FindStringSubmatch(text); match != nil {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

// extractDescription removes the fragments already attributed to time and
// location plus command verbs, then keeps the remainder when it is long
// enough to carry meaning.
func extractDescription(text string, hasTime bool, location string) string {
	cleaned := text
	if hasTime {
		cleaned = descTimeFragmentRe.ReplaceAllString(cleaned, "")
	}
	if location != "" {
		cleaned = strings.ReplaceAll(cleaned, location, "")
	}
	cleaned = descCommandVerbRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > 3 {
		return cleaned
	}
	return ""
}
