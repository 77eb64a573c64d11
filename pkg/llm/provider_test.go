package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct{ prefix string }

func (p *echoProvider) Converse(_ context.Context, req *ConversationRequest) (string, error) {
	return p.prefix + req.Input, nil
}

func (p *echoProvider) Name() string { return "echo" }

func TestRegistry(t *testing.T) {
	RegisterConversationProvider("echo-test", func(config map[string]any) (ConversationProvider, error) {
		prefix, ok := ConfigString(config, "prefix")
		if !ok {
			return nil, ErrNotConfigured
		}
		return &echoProvider{prefix: prefix}, nil
	})

	p, err := NewConversationProvider("echo-test", map[string]any{"prefix": "> "})
	require.NoError(t, err)
	reply, err := p.Converse(context.Background(), &ConversationRequest{Input: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "> hi", reply)

	_, err = NewConversationProvider("echo-test", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewConversationProvider("missing", nil)
	assert.EqualError(t, err, "unknown conversation provider: missing")

	assert.Contains(t, ListProviders(), "echo-test")
}

func TestConfigHelpers(t *testing.T) {
	cfg := map[string]any{
		"model":       "gemini-2.5-flash",
		"empty":       "",
		"retries":     2,
		"float_int":   3.0,
		"temperature": 0.2,
		"timeout":     "15s",
		"deadline":    5 * time.Second,
		"bad":         "soon",
	}

	s, ok := ConfigString(cfg, "model")
	assert.True(t, ok)
	assert.Equal(t, "gemini-2.5-flash", s)
	_, ok = ConfigString(cfg, "empty")
	assert.False(t, ok)

	n, ok := ConfigInt(cfg, "retries")
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	n, ok = ConfigInt(cfg, "float_int")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	f, ok := ConfigFloat(cfg, "temperature")
	assert.True(t, ok)
	assert.InDelta(t, 0.2, f, 1e-9)

	d, ok := ConfigDuration(cfg, "timeout")
	assert.True(t, ok)
	assert.Equal(t, 15*time.Second, d)
	d, ok = ConfigDuration(cfg, "deadline")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
	_, ok = ConfigDuration(cfg, "bad")
	assert.False(t, ok)
}

func TestUnavailableProvider(t *testing.T) {
	cause := fmt.Errorf("gemini: %w", ErrNotConfigured)
	p := NewUnavailableProvider("gemini", cause)

	_, err := p.Converse(context.Background(), &ConversationRequest{Input: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, cause, p.Cause())

	assert.False(t, IsAvailable(p))
	assert.False(t, IsAvailable(nil))
	assert.ErrorIs(t, NewUnavailableProvider("x", nil).Cause(), ErrNotConfigured)
}
