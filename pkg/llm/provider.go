// Package llm 提供对话模型供应商的统一抽象。
// 供应商是无状态的：每次调用都携带系统指令、规范化后的历史和本轮输入。
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotConfigured 表示供应商缺少必需配置（通常是 API Key），无法提供服务。
// 工厂函数在启动时返回该错误，调用方据此进入"不可用"状态而不是持有空客户端。
var ErrNotConfigured = errors.New("llm provider is not configured")

// ErrEmptyReply 表示后端调用成功但没有返回任何文本。
var ErrEmptyReply = errors.New("model returned an empty reply")

// Role 定义发往后端的消息角色。
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message 表示一条发往后端的历史消息。
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationRequest 是一次完整的对话调用。
type ConversationRequest struct {
	// SystemInstruction 系统指令，包含接地上下文。
	SystemInstruction string
	// History 已规范化的历史，角色只包含 user 和 model，且第一条为 user。
	History []Message
	// Input 本轮用户输入。
	Input string
}

// ConversationProvider 定义对话供应商接口。
type ConversationProvider interface {
	// Converse 执行一次对话调用并返回模型回复文本。
	Converse(ctx context.Context, req *ConversationRequest) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (ConversationProvider, error)

var registry = &providerRegistry{
	factories: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// RegisterConversationProvider 注册供应商工厂，同名注册会覆盖。
func RegisterConversationProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[name] = factory
}

// NewConversationProvider 根据名称创建供应商实例。
func NewConversationProvider(name string, config map[string]any) (ConversationProvider, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown conversation provider: %s", name)
	}

	return factory(config)
}

// ListProviders 列出所有已注册的供应商名称（已排序）。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigString 从配置 map 中读取非空字符串。
func ConfigString(config map[string]any, key string) (string, bool) {
	v, ok := config[key].(string)
	return v, ok && v != ""
}

// ConfigInt 从配置 map 中读取整数，兼容 int/int64/float64。
func ConfigInt(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// ConfigFloat 从配置 map 中读取浮点数。
func ConfigFloat(config map[string]any, key string) (float64, bool) {
	switch v := config[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// ConfigDuration 从配置 map 中读取时长，兼容 time.Duration 和 "30s" 形式的字符串。
func ConfigDuration(config map[string]any, key string) (time.Duration, bool) {
	switch v := config[key].(type) {
	case time.Duration:
		return v, v > 0
	case string:
		d, err := time.ParseDuration(v)
		return d, err == nil && d > 0
	}
	return 0, false
}

// UnavailableProvider stands in for a provider whose configuration was missing
// at startup. Every call fails with the startup error, which wraps ErrNotConfigured.
type UnavailableProvider struct {
	name  string
	cause error
}

var _ ConversationProvider = (*UnavailableProvider)(nil)

// NewUnavailableProvider 创建不可用供应商，cause 为空时使用 ErrNotConfigured。
func NewUnavailableProvider(name string, cause error) *UnavailableProvider {
	if cause == nil {
		cause = ErrNotConfigured
	}
	return &UnavailableProvider{name: name, cause: cause}
}

// Converse always returns the startup error.
func (p *UnavailableProvider) Converse(context.Context, *ConversationRequest) (string, error) {
	return "", p.cause
}

// Name returns the configured provider name.
func (p *UnavailableProvider) Name() string {
	return p.name
}

// Cause returns the startup error.
func (p *UnavailableProvider) Cause() error {
	return p.cause
}

// IsAvailable reports whether p can serve requests.
func IsAvailable(p ConversationProvider) bool {
	if p == nil {
		return false
	}
	_, unavailable := p.(*UnavailableProvider)
	return !unavailable
}
