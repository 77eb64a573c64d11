// Package openai 提供兼容 OpenAI Chat Completions 接口的对话供应商实现。
//
// 基本用法：
//
//	import _ "github.com/kart-io/loan-advisor/pkg/llm/openai"
//
//	provider, err := llm.NewConversationProvider("openai", map[string]any{
//	    "api_key":  "your-api-key",
//	    "base_url": "https://api.deepseek.com/v1", // 可选：兼容服务
//	    "model":    "deepseek-chat",
//	})
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kart-io/logger"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kart-io/loan-advisor/pkg/llm"
)

// ProviderName 是 OpenAI 供应商的名称标识符。
const ProviderName = "openai"

func init() {
	llm.RegisterConversationProvider(ProviderName, NewProvider)
}

// Config OpenAI 供应商配置。
type Config struct {
	// BaseURL API 基础地址，可指向兼容服务。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey API 密钥。
	APIKey string `json:"-" mapstructure:"api_key"`

	// Model 对话模型。
	Model string `json:"model" mapstructure:"model"`

	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// Temperature 采样温度，nil 时使用模型默认值。
	Temperature *float32 `json:"temperature,omitempty" mapstructure:"temperature"`

	// MaxTokens 最大生成 token 数，0 表示不限制。
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   openai.GPT4oMini,
		Timeout: 60 * time.Second,
	}
}

// Provider OpenAI 供应商实现。
type Provider struct {
	config *Config
	api    *openai.Client
}

var _ llm.ConversationProvider = (*Provider)(nil)

// NewProvider 从配置 map 创建 OpenAI 供应商。api_key 为空时返回 llm.ErrNotConfigured。
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
	if v, ok := llm.ConfigString(configMap, "organization"); ok {
		cfg.Organization = v
	}
	if v, ok := llm.ConfigDuration(configMap, "timeout"); ok {
		cfg.Timeout = v
	}
	if v, ok := llm.ConfigFloat(configMap, "temperature"); ok {
		t := float32(v)
		cfg.Temperature = &t
	}
	if v, ok := llm.ConfigInt(configMap, "max_tokens"); ok {
		cfg.MaxTokens = v
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: %w", llm.ErrNotConfigured)
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 OpenAI 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.OrgID = cfg.Organization
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{
		config: cfg,
		api:    openai.NewClientWithConfig(clientCfg),
	}
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// Converse 调用 Chat Completions。系统指令作为 system 消息，model 角色映射为 assistant。
func (p *Provider) Converse(ctx context.Context, req *llm.ConversationRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:     p.config.Model,
		Messages:  buildMessages(req),
		MaxTokens: p.config.MaxTokens,
	}
	if p.config.Temperature != nil {
		chatReq.Temperature = *p.config.Temperature
	}

	start := time.Now()
	resp, err := p.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("openai: %w", err)
	}

	logger.Debugw("openai response received",
		"model", p.config.Model,
		"history", len(req.History),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai: %w", llm.ErrEmptyReply)
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(req *llm.ConversationRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Role == llm.RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Input,
	})
}
