// Package agent wires an interpreter to a calendar store: parse the
// sentence, branch on intent, execute store calls, render a human-readable
// reply.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"calagent/internal/calendar"
	"calagent/internal/interpreter"
	"calagent/internal/logging"
	"calagent/internal/metrics"
)

// deleteWorkers caps concurrent deletions during a bulk delete.
const deleteWorkers = 4

// Agent is the command dispatcher.
type Agent struct {
	interp          interpreter.Interpreter
	store           calendar.Store
	defaultCalendar string
	now             func() time.Time
	logger          logging.Logger
}

// New builds an agent around the given interpreter and store.
func New(interp interpreter.Interpreter, store calendar.Store, logger logging.Logger) *Agent {
	return &Agent{interp: interp, store: store, now: time.Now, logger: logging.OrNop(logger)}
}

// WithDefaultCalendar sets the calendar used when a request names none.
func (a *Agent) WithDefaultCalendar(name string) *Agent {
	a.defaultCalendar = name
	return a
}

// Calendars lists the store's calendar names.
func (a *Agent) Calendars(ctx context.Context) ([]string, error) {
	return a.store.Calendars(ctx)
}

// Process interprets text and executes the resulting command against
// calendarName (empty selects the default calendar). The returned string is
// a user-facing reply; a non-nil error means the store failed, not that the
// input was unintelligible.
func (a *Agent) Process(ctx context.Context, text, calendarName string) (reply string, err error) {
	if calendarName == "" {
		calendarName = a.defaultCalendar
	}

	cmd, err := a.interp.Parse(ctx, text)
	if err != nil {
		return "", fmt.Errorf("interpret command: %w", err)
	}
	a.logger.Debug("dispatch: intent=%s title=%q target=%q", cmd.Intent, cmd.Title, cmd.TargetEvent)

	defer func() { metrics.ObserveDispatch(string(cmd.Intent), err) }()

	switch cmd.Intent {
	case interpreter.IntentCreate:
		return a.handleCreate(ctx, cmd, calendarName)
	case interpreter.IntentRead:
		return a.handleRead(ctx, cmd, calendarName)
	case interpreter.IntentUpdate:
		return a.handleUpdate(ctx, cmd, calendarName)
	case interpreter.IntentDelete:
		return a.handleDelete(ctx, cmd, calendarName)
	default:
		return "抱歉，我没有理解您的指令。请尝试使用更清晰的表达，比如：'创建明天下午3点的会议' 或 '查看今天的日程'", nil
	}
}

func (a *Agent) handleCreate(ctx context.Context, cmd interpreter.ParsedCommand, calendarName string) (string, error) {
	if cmd.Title == "" {
		return "请提供事件的标题，例如：'创建和张三的会议'", nil
	}
	if cmd.StartTime.IsZero() {
		return "请提供事件的时间，例如：'明天下午3点'", nil
	}

	end := cmd.EndTime
	if end.IsZero() {
		end = cmd.StartTime.Add(time.Hour)
	}

	_, err := a.store.Create(ctx, calendarName, calendar.Event{
		Title:       cmd.Title,
		Start:       cmd.StartTime,
		End:         end,
		Description: cmd.Description,
		Location:    cmd.Location,
	})
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}

	return fmt.Sprintf("✅ 已成功创建事件: %s\n📅 时间: %s - %s\n📍 地点: %s\n📝 描述: %s",
		cmd.Title,
		cmd.StartTime.Format("2006-01-02 15:04"),
		end.Format("15:04"),
		orDefault(cmd.Location, "未指定"),
		orDefault(cmd.Description, "无")), nil
}

func (a *Agent) handleRead(ctx context.Context, cmd interpreter.ParsedCommand, calendarName string) (string, error) {
	start := cmd.StartTime
	if start.IsZero() {
		start = startOfDay(a.now())
	}
	end := cmd.EndTime
	if end.IsZero() {
		end = endOfDay(start)
	}

	var events []calendar.Event
	var err error
	if cmd.Title != "" {
		events, err = a.store.Search(ctx, calendarName, cmd.Title)
	} else {
		events, err = a.store.Events(ctx, calendarName, start, end)
	}
	if err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}

	if len(events) == 0 {
		return a.emptyScheduleReply(start), nil
	}

	var b strings.Builder
	b.WriteString("📅 您的日程安排:\n\n")
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. %s\n   时间: %s - %s\n", i+1, ev.Title,
			formatClock(ev.Start), formatClock(ev.End))
		if ev.Location != "" {
			fmt.Fprintf(&b, "   地点: %s\n", ev.Location)
		}
		if ev.Description != "" {
			fmt.Fprintf(&b, "   描述: %s\n", ev.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func (a *Agent) emptyScheduleReply(queried time.Time) string {
	today := startOfDay(a.now())
	switch startOfDay(queried) {
	case today:
		return "📅 今天没有安排任何事件"
	case today.AddDate(0, 0, 1):
		return "📅 明天没有安排任何事件"
	default:
		return fmt.Sprintf("📅 %s 没有安排任何事件", queried.Format("2006年01月02日"))
	}
}

func (a *Agent) handleUpdate(ctx context.Context, cmd interpreter.ParsedCommand, calendarName string) (string, error) {
	target := cmd.TargetEvent
	if target == "" {
		if cmd.Title == "" {
			return "请指定要更新的事件，例如：'修改和张三的会议时间'", nil
		}
		events, err := a.store.Search(ctx, calendarName, cmd.Title)
		if err != nil {
			return "", fmt.Errorf("search events: %w", err)
		}
		if len(events) == 0 {
			return "找不到指定的事件，请提供更具体的信息", nil
		}
		target = events[0].ID
	}

	patch := patchFromCommand(cmd)
	if err := a.store.Update(ctx, calendarName, target, patch); err != nil {
		if err == calendar.ErrNotFound {
			return "❌ 更新事件失败，请检查事件ID是否正确", nil
		}
		return "", fmt.Errorf("update event: %w", err)
	}
	return "✅ 事件已成功更新", nil
}

func (a *Agent) handleDelete(ctx context.Context, cmd interpreter.ParsedCommand, calendarName string) (string, error) {
	if cmd.TargetEvent == interpreter.TargetAll {
		if cmd.Title == "" {
			return "请指定要删除的事件标题，例如：'删除所有会议'", nil
		}
		return a.deleteMatching(ctx, calendarName, cmd.Title)
	}

	if cmd.TargetEvent == "" {
		if cmd.Title == "" {
			return "请指定要删除的事件，例如：'删除和张三的会议'", nil
		}
		return a.deleteMatching(ctx, calendarName, cmd.Title)
	}

	if err := a.store.Delete(ctx, calendarName, cmd.TargetEvent); err != nil {
		if err == calendar.ErrNotFound {
			return "❌ 删除事件失败，请检查事件ID是否正确", nil
		}
		return "", fmt.Errorf("delete event: %w", err)
	}
	return "✅ 事件已成功删除", nil
}

// deleteMatching removes every event whose title or description matches
// query, counting successes. Individual failures are logged and skipped so
// one stubborn event does not abort the sweep.
func (a *Agent) deleteMatching(ctx context.Context, calendarName, query string) (string, error) {
	events, err := a.store.Search(ctx, calendarName, query)
	if err != nil {
		return "", fmt.Errorf("search events: %w", err)
	}
	if len(events) == 0 {
		return "找不到指定的事件", nil
	}

	var deleted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteWorkers)
	for _, ev := range events {
		g.Go(func() error {
			if err := a.store.Delete(gctx, calendarName, ev.ID); err != nil {
				a.logger.Warn("dispatch: delete %s failed: %v", ev.ID, err)
				return nil
			}
			deleted.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if n := deleted.Load(); n > 0 {
		return fmt.Sprintf("✅ 已成功删除 %d 个事件", n), nil
	}
	return "❌ 删除事件失败", nil
}

func patchFromCommand(cmd interpreter.ParsedCommand) calendar.EventPatch {
	var patch calendar.EventPatch
	if cmd.Title != "" {
		patch.Title = &cmd.Title
	}
	if !cmd.StartTime.IsZero() {
		patch.Start = &cmd.StartTime
	}
	if !cmd.EndTime.IsZero() {
		patch.End = &cmd.EndTime
	}
	if cmd.Description != "" {
		patch.Description = &cmd.Description
	}
	if cmd.Location != "" {
		patch.Location = &cmd.Location
	}
	return patch
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.Local)
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "未知时间"
	}
	return t.Format("15:04")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
