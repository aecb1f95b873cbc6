package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCachesClients(t *testing.T) {
	f := NewFactory()

	first, err := f.GetClient("deepseek", "deepseek-chat", Config{APIKey: "k"})
	require.NoError(t, err)
	second, err := f.GetClient("deepseek", "deepseek-chat", Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := f.GetClient("deepseek", "deepseek-reasoner", Config{APIKey: "k"})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestFactoryCacheExpiry(t *testing.T) {
	f := NewFactory()
	f.SetCacheOptions(4, time.Nanosecond)

	first, err := f.GetClient("mock", "mock", Config{})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	second, err := f.GetClient("mock", "mock", Config{})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := NewFactory()
	_, err := f.GetClient("carrier-pigeon", "v1", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestFactoryCacheDisabled(t *testing.T) {
	f := NewFactory()
	f.SetCacheOptions(0, 0)

	first, err := f.GetClient("mock", "mock", Config{})
	require.NoError(t, err)
	second, err := f.GetClient("mock", "mock", Config{})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
