package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config defines the configuration for the worker pool.
type Config struct {
	// Capacity 池容量（最大并发 goroutine 数）
	Capacity int
	// ExpiryDuration goroutine 空闲过期时间
	ExpiryDuration time.Duration
	// Nonblocking 提交任务是否非阻塞（若池满则返回错误）
	Nonblocking bool
	// MaxBlockingTasks 当 Nonblocking=false 时，最大等待任务数（0 表示无限制）
	MaxBlockingTasks int
}

// DefaultPoolConfig 返回默认池配置
func DefaultPoolConfig() *Config {
	return &Config{
		Capacity:       100,
		ExpiryDuration: 10 * time.Second,
	}
}

// BackgroundPoolConfig 返回后台任务池配置。
// 缓存回写等任务丢弃不影响正确性，池满时直接拒绝。
func BackgroundPoolConfig() *Config {
	return &Config{
		Capacity:       16,
		ExpiryDuration: 60 * time.Second,
		Nonblocking:    true,
	}
}

// Pool wraps an ants pool with task accounting.
type Pool struct {
	name     string
	pool     *ants.Pool
	stats    poolStatsCounter
	closed   atomic.Bool
	closedMu sync.Mutex
}

type poolStatsCounter struct {
	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64
	panics    atomic.Int64
}

// Stats contains statistics about the worker pool.
type Stats struct {
	SubmittedTasks int64 // 已提交任务数
	CompletedTasks int64 // 已完成任务数
	RejectedTasks  int64 // 拒绝任务数
	PanicRecovered int64 // 恢复的 panic 数
}

// NewPool creates a new worker pool with the given configuration.
func NewPool(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidPoolConfig)
	}

	p := &Pool{name: name}
	pool, err := ants.NewPool(config.Capacity,
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithMaxBlockingTasks(config.MaxBlockingTasks),
		ants.WithPanicHandler(func(r any) {
			p.stats.panics.Add(1)
			logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 ants 池失败: %w", err)
	}
	p.pool = pool

	logger.Infow("Worker pool created", "name", name, "capacity", config.Capacity)
	return p, nil
}

// Name 返回池名称
func (p *Pool) Name() string {
	return p.name
}

// Cap 返回池容量
func (p *Pool) Cap() int {
	return p.pool.Cap()
}

// Running 返回正在运行的 goroutine 数量
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Submit 提交任务到池中执行
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		task()
		p.stats.completed.Add(1)
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.rejected.Add(1)
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	p.stats.submitted.Add(1)
	return nil
}

// Release 关闭池并等待运行中的任务结束，最多等待 timeout。
func (p *Pool) Release(timeout time.Duration) error {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()

	if p.closed.Load() {
		return nil
	}
	p.closed.Store(true)
	err := p.pool.ReleaseTimeout(timeout)
	logger.Infow("Worker pool released", "name", p.name)
	return err
}

// Stats 返回池统计信息快照
func (p *Pool) Stats() Stats {
	return Stats{
		SubmittedTasks: p.stats.submitted.Load(),
		CompletedTasks: p.stats.completed.Load(),
		RejectedTasks:  p.stats.rejected.Load(),
		PanicRecovered: p.stats.panics.Load(),
	}
}
