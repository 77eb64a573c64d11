// Package server runs the HTTP server together with auxiliary runnables
// under one start and shutdown sequence.
package server

import "context"

// Runnable 由 Manager 在 HTTP 服务启动后依次启动，关闭时先于 HTTP 服务停止。
type Runnable interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
