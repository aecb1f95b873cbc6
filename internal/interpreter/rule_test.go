package interpreter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2026-03-02 09:00 local time.
func fixedClock() time.Time {
	return time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
}

func TestRuleParseCreateEnglish(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "create a meeting")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Greater(t, cmd.Confidence, 0.0)
	assert.LessOrEqual(t, cmd.Confidence, 1.0)
	assert.Empty(t, cmd.Title)
	assert.True(t, cmd.StartTime.IsZero())
	assert.True(t, cmd.EndTime.IsZero())
}

func TestRuleParseCreateChineseWithTime(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "安排明天下午3点开会")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Equal(t, "开会", cmd.Title)
	assert.Equal(t, time.Date(2026, 3, 3, 15, 0, 0, 0, time.Local), cmd.StartTime)
	assert.Equal(t, time.Date(2026, 3, 3, 16, 0, 0, 0, time.Local), cmd.EndTime)
}

func TestRuleParseChineseRange(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "安排明天上午10点到11点开会")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Equal(t, time.Date(2026, 3, 3, 10, 0, 0, 0, time.Local), cmd.StartTime)
	assert.Equal(t, time.Date(2026, 3, 3, 11, 0, 0, 0, time.Local), cmd.EndTime)
}

func TestRuleParseEnglishRange(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "schedule a meeting from 2pm to 4pm tomorrow")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Equal(t, time.Date(2026, 3, 3, 14, 0, 0, 0, time.Local), cmd.StartTime)
	assert.Equal(t, time.Date(2026, 3, 3, 16, 0, 0, 0, time.Local), cmd.EndTime)
}

func TestRuleParseEnglishSingleTimeDefaultsOneHour(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "book a meeting at 3pm")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Equal(t, time.Date(2026, 3, 2, 15, 0, 0, 0, time.Local), cmd.StartTime)
	assert.Equal(t, cmd.StartTime.Add(time.Hour), cmd.EndTime)
}

func TestRuleParseSingleTimeRollsOverMidnight(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "安排今天23点值班")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 2, 23, 0, 0, 0, time.Local), cmd.StartTime)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local), cmd.EndTime)
}

func TestRuleParseRead(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	for _, text := range []string{"show my schedule", "查看今天的日程"} {
		cmd, err := p.Parse(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, IntentRead, cmd.Intent, "text: %s", text)
	}
}

func TestRuleParseDeleteChinese(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "取消明天的会议")
	require.NoError(t, err)

	assert.Equal(t, IntentDelete, cmd.Intent)
	assert.Empty(t, cmd.TargetEvent)
}

func TestRuleParseTieBreaksByOrder(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	// Matches one create pattern and one update pattern; enumeration order
	// gives create the win.
	cmd, err := p.Parse(context.Background(), "重新安排会议")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
}

func TestRuleParseLocation(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "安排会议 地点 大会议室")
	require.NoError(t, err)

	assert.Equal(t, IntentCreate, cmd.Intent)
	assert.Equal(t, "大会议室", cmd.Location)
}

func TestRuleParseUnintelligibleIsNone(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	cmd, err := p.Parse(context.Background(), "how about that weather")
	require.NoError(t, err)

	assert.Equal(t, IntentNone, cmd.Intent)
	assert.Empty(t, cmd.Title)
	assert.True(t, cmd.StartTime.IsZero())
	assert.Zero(t, cmd.Confidence)
}

func TestRuleParseDeterministic(t *testing.T) {
	p := newRuleInterpreterAt(fixedClock)

	first, err := p.Parse(context.Background(), "安排明天下午3点开会")
	require.NoError(t, err)
	second, err := p.Parse(context.Background(), "安排明天下午3点开会")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
