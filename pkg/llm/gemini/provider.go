// Package gemini 提供 Google Gemini generateContent REST 接口的对话供应商实现。
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/pkg/llm"
	"github.com/kart-io/loan-advisor/pkg/utils/httpclient"
	"github.com/kart-io/loan-advisor/pkg/utils/json"
)

// ProviderName 是 Gemini 供应商的名称标识符。
const ProviderName = "gemini"

// DefaultModel 默认对话模型。
const DefaultModel = "gemini-2.5-flash"

func init() {
	llm.RegisterConversationProvider(ProviderName, NewProvider)
}

// Config Gemini 供应商配置。
type Config struct {
	// BaseURL API 基础地址。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey Google AI API 密钥。
	APIKey string `json:"-" mapstructure:"api_key"`

	// Model 对话模型。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 传输错误和 5xx 的重试次数，默认不重试。
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`

	// KeyInQuery 为 true 时通过 ?key= 传递密钥，否则使用 x-goog-api-key 头。
	KeyInQuery bool `json:"key_in_query" mapstructure:"key_in_query"`

	// Temperature 采样温度，nil 时使用模型默认值。
	Temperature *float64 `json:"temperature,omitempty" mapstructure:"temperature"`

	// MaxOutputTokens 最大输出 token 数，0 表示不限制。
	MaxOutputTokens int `json:"max_output_tokens" mapstructure:"max_output_tokens"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		Model:   DefaultModel,
		Timeout: 60 * time.Second,
	}
}

// Provider Gemini 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

var _ llm.ConversationProvider = (*Provider)(nil)

// NewProvider 从配置 map 创建 Gemini 供应商。api_key 为空时返回 llm.ErrNotConfigured。
func NewProvider(configMap map[string]any) (llm.ConversationProvider, error) {
	cfg := DefaultConfig()

	if v, ok := llm.ConfigString(configMap, "base_url"); ok {
		cfg.BaseURL = v
	}
	if v, ok := llm.ConfigString(configMap, "api_key"); ok {
		cfg.APIKey = v
	}
	if v, ok := llm.ConfigString(configMap, "model"); ok {
		cfg.Model = v
	}
	if v, ok := llm.ConfigDuration(configMap, "timeout"); ok {
		cfg.Timeout = v
	}
	if v, ok := llm.ConfigInt(configMap, "max_retries"); ok && v > 0 {
		cfg.MaxRetries = v
	}
	if v, ok := configMap["key_in_query"].(bool); ok {
		cfg.KeyInQuery = v
	}
	if v, ok := llm.ConfigFloat(configMap, "temperature"); ok {
		cfg.Temperature = &v
	}
	if v, ok := llm.ConfigInt(configMap, "max_output_tokens"); ok {
		cfg.MaxOutputTokens = v
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w", llm.ErrNotConfigured)
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 Gemini 供应商。
func NewProviderWithConfig(cfg *Config, opts ...httpclient.Option) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries, opts...),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// generateRequest generateContent 请求体。
type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// generateResponse generateContent 响应体。
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// errorResponse Gemini 错误响应体。
type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Converse 调用 generateContent。contents 由历史和本轮输入组成，系统指令单独传递。
func (p *Provider) Converse(ctx context.Context, req *llm.ConversationRequest) (string, error) {
	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if !p.config.KeyInQuery {
		httpReq.Header.Set("x-goog-api-key", p.config.APIKey)
	}

	start := time.Now()
	var resp generateResponse
	if err := p.client.DoJSON(httpReq, &resp); err != nil {
		return "", upstreamError(err)
	}

	reply := extractText(&resp)
	logger.Debugw("gemini response received",
		"model", p.config.Model,
		"history", len(req.History),
		"total_tokens", resp.UsageMetadata.TotalTokenCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if strings.TrimSpace(reply) == "" {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini: prompt blocked (%s): %w", resp.PromptFeedback.BlockReason, llm.ErrEmptyReply)
		}
		return "", fmt.Errorf("gemini: %w", llm.ErrEmptyReply)
	}
	return reply, nil
}

func (p *Provider) buildRequest(req *llm.ConversationRequest) *generateRequest {
	contents := make([]content, 0, len(req.History)+1)
	for _, msg := range req.History {
		contents = append(contents, content{
			Role:  string(msg.Role),
			Parts: []part{{Text: msg.Content}},
		})
	}
	contents = append(contents, content{
		Role:  string(llm.RoleUser),
		Parts: []part{{Text: req.Input}},
	})

	out := &generateRequest{Contents: contents}
	if req.SystemInstruction != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.SystemInstruction}}}
	}
	if p.config.Temperature != nil || p.config.MaxOutputTokens > 0 {
		out.GenerationConfig = &generationConfig{
			Temperature:     p.config.Temperature,
			MaxOutputTokens: p.config.MaxOutputTokens,
		}
	}
	return out
}

func (p *Provider) endpoint() string {
	u := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(p.config.BaseURL, "/"), url.PathEscape(p.config.Model))
	if p.config.KeyInQuery {
		u += "?key=" + url.QueryEscape(p.config.APIKey)
	}
	return u
}

func extractText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	return sb.String()
}

// upstreamError 提取上游错误信息，Gemini 错误体中的 message 优先。
func upstreamError(err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return fmt.Errorf("gemini: %w", err)
	}
	var body errorResponse
	if json.Unmarshal([]byte(statusErr.Body), &body) == nil && body.Error.Message != "" {
		return fmt.Errorf("gemini: status %d: %s", statusErr.StatusCode, body.Error.Message)
	}
	return fmt.Errorf("gemini: %w", statusErr)
}
