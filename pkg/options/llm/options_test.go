package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReadsProviderKey(t *testing.T) {
	tests := []struct {
		provider string
		env      string
	}{
		{provider: "gemini", env: "GEMINI_API_KEY"},
		{provider: " OpenAI ", env: "OPENAI_API_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, "key-from-env")
			o := NewProviderOptions()
			o.Provider = tt.provider
			require.NoError(t, o.Complete())
			assert.Equal(t, "key-from-env", o.APIKey)
			assert.Empty(t, o.Validate())
		})
	}
}

func TestConfiguredKeyWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env")
	o := NewProviderOptions()
	o.APIKey = "file"
	require.NoError(t, o.Complete())
	assert.Equal(t, "file", o.APIKey)
}

func TestValidate(t *testing.T) {
	o := NewProviderOptions()
	o.Provider = "ollama"
	o.Timeout = 0
	o.MaxRetries = -1
	assert.Len(t, o.Validate(), 3)
}

func TestValidateRejectsRetries(t *testing.T) {
	tests := []struct {
		retries int
		wantErr bool
	}{
		{retries: 0},
		{retries: 1, wantErr: true},
		{retries: 3, wantErr: true},
	}
	for _, tt := range tests {
		o := NewProviderOptions()
		o.MaxRetries = tt.retries
		errs := o.Validate()
		if !tt.wantErr {
			assert.Empty(t, errs)
			continue
		}
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Error(), "llm.max-retries must be 0")
	}
}

func TestToConfigMap(t *testing.T) {
	o := NewProviderOptions()
	o.APIKey = "k"
	m := o.ToConfigMap()

	assert.Equal(t, "k", m["api_key"])
	assert.Equal(t, "gemini-2.5-flash", m["model"])
	assert.Equal(t, 60*time.Second, m["timeout"])
	assert.NotContains(t, m, "base_url")
}

func TestBreakerConfig(t *testing.T) {
	o := NewProviderOptions()
	cfg := o.BreakerConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, 5, cfg.MaxFailures)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	o.BreakerMaxFailures = 0
	assert.Nil(t, o.BreakerConfig())
}
