package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/pkg/infra/server/transport/http"
)

// Manager manages the HTTP server and auxiliary runnables with a unified lifecycle.
type Manager struct {
	opts       *Options
	httpServer *http.Server
	servers    []Runnable
	mu         sync.Mutex
	started    bool
}

// NewManager creates a new server manager with the given options.
func NewManager(opts ...Option) *Manager {
	serverOpts := NewOptions()
	for _, opt := range opts {
		opt(serverOpts)
	}

	return &Manager{
		opts:       serverOpts,
		httpServer: http.NewServer(serverOpts.HTTP, serverOpts.Middleware),
	}
}

// HTTPServer returns the HTTP server.
func (m *Manager) HTTPServer() *http.Server {
	return m.httpServer
}

// AddServer adds a custom server to the manager.
func (m *Manager) AddServer(server Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, server)
}

// Start starts all servers.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("server manager already started")
	}
	m.started = true
	m.mu.Unlock()

	if err := m.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	logger.Infow("HTTP server started", "addr", m.httpServer.Addr())

	for _, server := range m.servers {
		if err := server.Start(ctx); err != nil {
			_ = m.httpServer.Stop(ctx)
			return fmt.Errorf("failed to start server %s: %w", server.Name(), err)
		}
		logger.Infow("Custom server started", "name", server.Name())
	}
	return nil
}

// Stop stops all servers gracefully.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.mu.Unlock()

	var errs []error
	for _, server := range m.servers {
		if err := server.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", server.Name(), err))
		}
	}
	if err := m.httpServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
	}
	logger.Info("HTTP server stopped")

	return errors.Join(errs...)
}

// Run starts all servers and blocks until ctx is cancelled, then shuts down
// within ShutdownTimeout.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.opts.ShutdownTimeout)
	defer cancel()
	return m.Stop(shutdownCtx)
}
