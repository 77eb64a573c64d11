// Package resilience 为对话供应商提供熔断保护。
// 调用失败不会自动重试；熔断打开期间直接返回 ErrCircuitBreakerOpen。
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// ErrCircuitBreakerOpen 熔断器打开错误。
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig 熔断器配置。
type CircuitBreakerConfig struct {
	// MaxFailures 连续失败多少次后打开熔断。
	MaxFailures int
	// Timeout 熔断打开后多久进入半开状态。
	Timeout time.Duration
	// HalfOpenMaxCalls 半开状态允许的探测调用数。
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig 返回默认熔断器配置。
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// State 熔断器状态。
type State int

const (
	// StateClosed 正常放行。
	StateClosed State = iota
	// StateOpen 拒绝所有调用。
	StateOpen
	// StateHalfOpen 放行有限的探测调用。
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Stats 熔断器统计快照。
type Stats struct {
	State           string    `json:"state"`
	Failures        int       `json:"failures"`
	LastFailureTime time.Time `json:"last_failure_time"`
	Rejected        int64     `json:"rejected"`
}

// CircuitBreaker 熔断器实现，并发安全。
type CircuitBreaker struct {
	config *CircuitBreakerConfig
	now    func() time.Time

	mu              sync.Mutex
	state           State
	failures        int
	lastFailureTime time.Time
	halfOpenCalls   int
	rejected        int64
}

// NewCircuitBreaker 创建熔断器，config 为 nil 时使用默认配置。
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = 1
	}
	return &CircuitBreaker{
		config: config,
		now:    time.Now,
	}
}

// Execute 通过熔断器执行 fn。
// 调用方取消（context.Canceled）不计入失败次数。
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.acquire(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) acquire() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.config.Timeout {
			cb.rejected++
			return ErrCircuitBreakerOpen
		}
		logger.Infow("circuit breaker transitioning to half-open")
		cb.state = StateHalfOpen
		cb.halfOpenCalls = 1
		return nil
	default:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			cb.rejected++
			return ErrCircuitBreakerOpen
		}
		cb.halfOpenCalls++
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateHalfOpen {
			logger.Infow("circuit breaker transitioning to closed")
		}
		cb.state = StateClosed
		cb.failures = 0
		return
	}
	if errors.Is(err, context.Canceled) {
		if cb.state == StateHalfOpen {
			cb.halfOpenCalls--
		}
		return
	}

	cb.failures++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			logger.Warnw("circuit breaker opening",
				"failures", cb.failures,
				"max_failures", cb.config.MaxFailures,
			)
			cb.state = StateOpen
		}
	case StateHalfOpen:
		logger.Warnw("circuit breaker re-opening after half-open failure", "error", err.Error())
		cb.state = StateOpen
	}
}

// State 返回当前状态。
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats 返回统计快照。
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return Stats{
		State:           cb.state.String(),
		Failures:        cb.failures,
		LastFailureTime: cb.lastFailureTime,
		Rejected:        cb.rejected,
	}
}

// Reset 重置为关闭状态。
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenCalls = 0
}
