// Package llm provides chat model provider configuration options.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/llm/resilience"
	"github.com/kart-io/loan-advisor/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// 各供应商读取密钥的环境变量。
var apiKeyEnv = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// ProviderOptions 定义对话模型供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称（gemini, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用供应商默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥，为空时从 GEMINI_API_KEY / OPENAI_API_KEY 读取。
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 使用的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 传输层重试次数。对话请求从不自动重试，只接受 0。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（OpenAI 可选）。
	Organization string `json:"organization" mapstructure:"organization"`

	// KeyInQuery 通过 ?key= 传递 Gemini 密钥。
	KeyInQuery bool `json:"key-in-query" mapstructure:"key-in-query"`

	// BreakerMaxFailures 连续失败多少次后熔断，0 表示不启用熔断。
	BreakerMaxFailures int `json:"breaker-max-failures" mapstructure:"breaker-max-failures"`

	// BreakerTimeout 熔断打开持续时间。
	BreakerTimeout time.Duration `json:"breaker-timeout" mapstructure:"breaker-timeout"`
}

// NewProviderOptions 创建默认供应商配置。
func NewProviderOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:           "gemini",
		Model:              "gemini-2.5-flash",
		Timeout:            60 * time.Second,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。空值不写入，由供应商使用默认值。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	m := map[string]any{
		"api_key":      o.APIKey,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"key_in_query": o.KeyInQuery,
	}
	if o.BaseURL != "" {
		m["base_url"] = o.BaseURL
	}
	if o.Model != "" {
		m["model"] = o.Model
	}
	if o.Organization != "" {
		m["organization"] = o.Organization
	}
	return m
}

// BreakerConfig 返回熔断器配置，未启用时返回 nil。
func (o *ProviderOptions) BreakerConfig() *resilience.CircuitBreakerConfig {
	if o.BreakerMaxFailures <= 0 {
		return nil
	}
	cfg := resilience.DefaultCircuitBreakerConfig()
	cfg.MaxFailures = o.BreakerMaxFailures
	if o.BreakerTimeout > 0 {
		cfg.Timeout = o.BreakerTimeout
	}
	return cfg
}

// AddFlags adds flags for provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "llm."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Chat model provider (gemini, openai).")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Provider API base URL; empty uses the provider default.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Chat model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Chat model request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Transport retries for the chat model; chat calls are never retried, so only 0 is accepted.")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "Organization ID (openai, optional).")
	fs.BoolVar(&o.KeyInQuery, p+"key-in-query", o.KeyInQuery, "Send the gemini API key as ?key= instead of a header.")
	fs.IntVar(&o.BreakerMaxFailures, p+"breaker-max-failures", o.BreakerMaxFailures, "Consecutive failures before the circuit opens, 0 disables.")
	fs.DurationVar(&o.BreakerTimeout, p+"breaker-timeout", o.BreakerTimeout, "How long the circuit stays open.")
}

// Validate validates the provider options.
// 缺少 API 密钥不是配置错误，服务照常启动，对话接口返回 503。
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if _, ok := apiKeyEnv[o.Provider]; !ok {
		errs = append(errs, fmt.Errorf("llm.provider %q is not supported", o.Provider))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive"))
	}
	if o.MaxRetries != 0 {
		errs = append(errs, fmt.Errorf("llm.max-retries must be 0, chat requests are never retried automatically"))
	}
	return errs
}

// Complete reads the API key from the provider's environment variable when unset.
func (o *ProviderOptions) Complete() error {
	o.Provider = strings.ToLower(strings.TrimSpace(o.Provider))
	if key, ok := apiKeyEnv[o.Provider]; ok {
		options.EnvFallback(&o.APIKey, key)
	}
	return nil
}
