package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"calagent/internal/llm"
	"calagent/internal/logging"
	"calagent/internal/metrics"
)

// systemPromptTemplate instructs the model to answer with a single JSON
// object. The %s slot receives the current local time so relative dates
// resolve against the caller's clock.
const systemPromptTemplate = `你是一个专业的日历助理，专门解析用户对日历事件的指令。

请将用户的自然语言指令解析为结构化的JSON格式，包含以下字段：
- intent: 操作意图 (create, read, update, delete)
- title: 事件标题
- start_time: 开始时间 (ISO格式: YYYY-MM-DDTHH:MM:SS)
- end_time: 结束时间 (ISO格式: YYYY-MM-DDTHH:MM:SS)
- description: 事件描述
- location: 事件地点
- target_event: 目标事件ID (用于更新/删除)

时间解析规则：
- 使用当前时间作为参考：%s
- 基于人类作息习惯合理判断"今天"和"明天"的含义
- 凌晨时段（0-6点）的特殊处理：
  - 如果用户在凌晨说"今天"，通常指的是已经开始的这一天
  - 如果用户在凌晨说"明天"，通常指的是即将到来的白天（即今天白天）
  - 如果用户在凌晨说"后天"，通常指的是24小时后的白天
- 对于查询指令（如"明天有什么事"）：
  - 必须提供准确的start_time和end_time
  - "明天"：start_time = 明天00:00:00，end_time = 明天23:59:59
  - "今天"：start_time = 今天00:00:00，end_time = 今天23:59:59
- "下周" = 当前日期 + 7天
- 对于创建指令，如果没有指定时间，默认为当前时间+1小时开始，持续1小时

意图识别：
- create: 创建、添加、安排、预定、新建
- read: 查看、显示、列出、检查、看看、有什么事、日程安排
- update: 更新、修改、改变、调整、重新安排
- delete: 删除、取消、移除

重要：对于查询类指令（如"明天有什么事"），必须提供准确的时间范围，不能留空。

返回格式必须是纯JSON，不要有其他文本。`

// ModelInterpreter delegates parsing to a chat completion model and
// normalizes the reply into a ParsedCommand. Every failure mode, from an
// unreachable endpoint to unparseable output, degrades to IntentNone with a
// nil error so callers treat it the same as unintelligible input.
type ModelInterpreter struct {
	client llm.Client
	now    func() time.Time
	logger logging.Logger
}

// NewModelInterpreter wraps client as an Interpreter.
func NewModelInterpreter(client llm.Client, logger logging.Logger) *ModelInterpreter {
	return &ModelInterpreter{client: client, now: time.Now, logger: logging.OrNop(logger)}
}

func newModelInterpreterAt(client llm.Client, now func() time.Time) *ModelInterpreter {
	return &ModelInterpreter{client: client, now: now, logger: logging.Nop()}
}

// Parse implements Interpreter.
func (p *ModelInterpreter) Parse(ctx context.Context, text string) (ParsedCommand, error) {
	now := p.now()
	req := llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02T15:04:05"))},
			{Role: "user", Content: text},
		},
		Temperature: 0.1,
		MaxTokens:   500,
	}
	if shouldEnableReasoning(text, now.Hour()) {
		req.ReasoningEffort = "medium"
		p.logger.Debug("model parse: reasoning enabled for %q", text)
	}

	resp, err := p.client.Complete(ctx, req)
	if err != nil {
		p.logger.Warn("model parse: completion failed, degrading to none: %v", err)
		metrics.ObserveParse("model", string(IntentNone))
		return ParsedCommand{Intent: IntentNone}, nil
	}

	cmd := p.normalize(resp.Content)
	metrics.ObserveParse("model", string(cmd.Intent))
	return cmd, nil
}

// modelPayload mirrors the JSON object the prompt asks for. target_event is
// untyped because models occasionally answer with a number.
type modelPayload struct {
	Intent      string `json:"intent"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	Location    string `json:"location"`
	TargetEvent any    `json:"target_event"`
}

// normalize turns raw model output into a ParsedCommand, tolerating prose
// around the JSON object and minor syntax damage.
func (p *ModelInterpreter) normalize(content string) ParsedCommand {
	raw, ok := extractJSONObject(content)
	if !ok {
		p.logger.Warn("model parse: no JSON object in reply")
		return ParsedCommand{Intent: IntentNone}
	}

	var payload modelPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			p.logger.Warn("model parse: unrepairable JSON: %v", err)
			return ParsedCommand{Intent: IntentNone}
		}
		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			p.logger.Warn("model parse: repaired JSON still invalid: %v", err)
			return ParsedCommand{Intent: IntentNone}
		}
	}

	intent := parseIntent(payload.Intent)
	if intent == IntentNone {
		return ParsedCommand{Intent: IntentNone}
	}

	cmd := ParsedCommand{
		Intent:      intent,
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		Location:    strings.TrimSpace(payload.Location),
	}

	// Malformed timestamps are dropped rather than failing the whole parse.
	if payload.StartTime != "" {
		if t, ok := parseLocalTime(payload.StartTime); ok {
			cmd.StartTime = t
		} else {
			p.logger.Warn("model parse: dropping malformed start_time %q", payload.StartTime)
		}
	}
	if payload.EndTime != "" {
		if t, ok := parseLocalTime(payload.EndTime); ok {
			cmd.EndTime = t
		} else {
			p.logger.Warn("model parse: dropping malformed end_time %q", payload.EndTime)
		}
	}

	// The "all" sentinel is only meaningful for bulk deletion; elsewhere a
	// stray target reference is noise.
	if target := stringifyTarget(payload.TargetEvent); target != "" {
		if target != TargetAll || intent == IntentDelete {
			cmd.TargetEvent = target
		}
	}

	return cmd
}

// extractJSONObject cuts content down to the span between the first '{' and
// the last '}'.
func extractJSONObject(content string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

var localTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseLocalTime accepts the ISO shapes models actually emit. Offsets, when
// present, are honored and converted to local wall time.
func parseLocalTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range localTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(time.Local), true
	}
	return time.Time{}, false
}

func stringifyTarget(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
