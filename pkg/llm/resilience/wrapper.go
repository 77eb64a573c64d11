package resilience

import (
	"context"

	"github.com/kart-io/loan-advisor/pkg/llm"
)

// ConversationProvider 为对话供应商加上熔断保护。
type ConversationProvider struct {
	provider llm.ConversationProvider
	cb       *CircuitBreaker
}

var _ llm.ConversationProvider = (*ConversationProvider)(nil)

// Wrap 使用熔断器包装供应商。
func Wrap(provider llm.ConversationProvider, config *CircuitBreakerConfig) *ConversationProvider {
	return &ConversationProvider{
		provider: provider,
		cb:       NewCircuitBreaker(config),
	}
}

// Converse 在熔断器内调用底层供应商。
func (r *ConversationProvider) Converse(ctx context.Context, req *llm.ConversationRequest) (string, error) {
	var reply string
	err := r.cb.Execute(func() error {
		var err error
		reply, err = r.provider.Converse(ctx, req)
		return err
	})
	return reply, err
}

// Name 返回底层供应商名称。
func (r *ConversationProvider) Name() string {
	return r.provider.Name()
}

// CircuitBreaker 返回内部熔断器。
func (r *ConversationProvider) CircuitBreaker() *CircuitBreaker {
	return r.cb
}
