// Package pool provides a bounded goroutine pool for background work.
package pool

import "errors"

// 池相关错误定义
var (
	// ErrPoolClosed 池已关闭
	ErrPoolClosed = errors.New("pool closed")

	// ErrInvalidPoolConfig 无效的池配置
	ErrInvalidPoolConfig = errors.New("invalid pool config")

	// ErrPoolOverload 池已满
	ErrPoolOverload = errors.New("pool overloaded")
)
