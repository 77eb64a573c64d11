// Package storage 定义数据源客户端的公共接口，并提供统一的注册、健康检查和关闭管理。
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/loan-advisor/pkg/infra/pool"
)

// Client is the base interface implemented by every datasource client.
type Client interface {
	// Name returns the storage type, e.g. "postgres" or "redis".
	Name() string

	// Ping checks the connection to the backend.
	Ping(ctx context.Context) error

	// Close releases the connection. It must be safe to call more than once.
	Close() error
}

// HealthStatus 单个客户端的健康检查结果。
type HealthStatus struct {
	Name    string
	Healthy bool
	Latency time.Duration
	Error   error
}

// ErrClientNotFound 表示未注册的客户端名称。
var ErrClientNotFound = errors.New("storage client not found")

// Manager 管理多个命名的数据源客户端，并发安全。
type Manager struct {
	mu      sync.RWMutex
	clients map[string]Client
	order   []string
	pool    *pool.Pool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithPool 使用 ants 池并发执行健康检查，未设置时每个检查一个 goroutine。
func WithPool(p *pool.Pool) ManagerOption {
	return func(m *Manager) {
		m.pool = p
	}
}

// NewManager creates a new storage manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{clients: make(map[string]Client)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register registers a client under a unique name.
func (m *Manager) Register(name string, client Client) error {
	if name == "" {
		return fmt.Errorf("storage client name cannot be empty")
	}
	if client == nil {
		return fmt.Errorf("storage client %q cannot be nil", name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[name]; ok {
		return fmt.Errorf("storage client %q already registered", name)
	}
	m.clients[name] = client
	m.order = append(m.order, name)
	return nil
}

// Get returns the client registered under name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.clients[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, name)
	}
	return client, nil
}

// List returns the registered names in registration order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// HealthCheckAll pings every client concurrently.
func (m *Manager) HealthCheckAll(ctx context.Context) []HealthStatus {
	names := m.List()
	statuses := make([]HealthStatus, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		client, err := m.Get(name)
		if err != nil {
			statuses[i] = HealthStatus{Name: name, Error: err}
			continue
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			start := time.Now()
			err := client.Ping(ctx)
			statuses[i] = HealthStatus{
				Name:    name,
				Healthy: err == nil,
				Latency: time.Since(start),
				Error:   err,
			}
		}

		// 池满或已关闭时降级为直接启动 goroutine
		if m.pool == nil || m.pool.Submit(task) != nil {
			go task()
		}
	}
	wg.Wait()

	sort.SliceStable(statuses, func(a, b int) bool { return statuses[a].Name < statuses[b].Name })
	return statuses
}

// Checker 返回指定客户端的 Ping 函数，供就绪探针使用。
func (m *Manager) Checker(name string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		client, err := m.Get(name)
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	}
}

// CloseAll closes every client in reverse registration order.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	names := m.order
	clients := m.clients
	m.order = nil
	m.clients = make(map[string]Client)
	m.mu.Unlock()

	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		if err := clients[names[i]].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}
