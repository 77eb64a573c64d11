package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/pkg/llm"
	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(map[string]any{"model": "gpt-4o"})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)

	p, err := NewProvider(map[string]any{"api_key": "k", "model": "gpt-4o", "temperature": 0.3, "max_tokens": 256})
	require.NoError(t, err)
	cfg := p.(*Provider).config
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 256, cfg.MaxTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func TestConverse(t *testing.T) {
	var got struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Prepayment is allowed."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`))
	}))
	defer srv.Close()

	p := NewProviderWithConfig(&Config{BaseURL: srv.URL, APIKey: "secret", Model: "gpt-4o-mini", Timeout: time.Second})
	reply, err := p.Converse(context.Background(), &llm.ConversationRequest{
		SystemInstruction: "rules",
		History:           []llm.Message{{Role: llm.RoleUser, Content: "hi"}, {Role: llm.RoleModel, Content: "hello"}},
		Input:             "Can I prepay?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Prepayment is allowed.", reply)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, []chatMessage{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "Can I prepay?"},
	}, got.Messages)
}

func TestConverseFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		contains string
	}{
		{
			name:     "api error",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			contains: "Incorrect API key provided",
		},
		{
			name:    "empty choices",
			status:  http.StatusOK,
			body:    `{"id":"c2","object":"chat.completion","choices":[]}`,
			wantErr: llm.ErrEmptyReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewProviderWithConfig(&Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4o-mini", Timeout: time.Second})
			_, err := p.Converse(context.Background(), &llm.ConversationRequest{Input: "hi"})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}
