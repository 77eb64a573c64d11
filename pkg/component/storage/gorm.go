package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLPoolOptions 是 SQL 数据源共享的连接池配置。
type SQLPoolOptions struct {
	MaxIdleConnections    int           `json:"max-idle-connections" mapstructure:"max-idle-connections"`
	MaxOpenConnections    int           `json:"max-open-connections" mapstructure:"max-open-connections"`
	MaxConnectionLifeTime time.Duration `json:"max-connection-life-time" mapstructure:"max-connection-life-time"`
	MaxIdleTime           time.Duration `json:"max-idle-time" mapstructure:"max-idle-time"`
	// LogLevel GORM 日志级别：silent, error, warn, info。
	LogLevel string `json:"log-level" mapstructure:"log-level"`
	// SlowThreshold 慢查询阈值。
	SlowThreshold time.Duration `json:"slow-threshold" mapstructure:"slow-threshold"`
}

// NewSQLPoolOptions returns the default pool settings.
func NewSQLPoolOptions() SQLPoolOptions {
	return SQLPoolOptions{
		MaxIdleConnections:    10,
		MaxOpenConnections:    50,
		MaxConnectionLifeTime: time.Hour,
		MaxIdleTime:           10 * time.Minute,
		LogLevel:              "warn",
		SlowThreshold:         200 * time.Millisecond,
	}
}

// ParseGormLogLevel converts a level name to a gorm log level.
func ParseGormLogLevel(level string) (gormlogger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "", "silent":
		return gormlogger.Silent, nil
	case "error":
		return gormlogger.Error, nil
	case "warn":
		return gormlogger.Warn, nil
	case "info":
		return gormlogger.Info, nil
	}
	return gormlogger.Silent, fmt.Errorf("unknown gorm log level %q", level)
}

// OpenGorm 打开 GORM 连接、应用连接池配置并验证连通性。
func OpenGorm(ctx context.Context, name string, dialector gorm.Dialector, opts SQLPoolOptions) (*gorm.DB, error) {
	level, err := ParseGormLogLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(level, opts.SlowThreshold, true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if opts.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConnections)
	}
	if opts.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConnections)
	}
	if opts.MaxConnectionLifeTime > 0 {
		sqlDB.SetConnMaxLifetime(opts.MaxConnectionLifeTime)
	}
	if opts.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.MaxIdleTime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", name, err)
	}
	return db, nil
}

// GormClient 包装 *gorm.DB，实现 Client 接口。
type GormClient struct {
	name string
	db   *gorm.DB
}

var _ Client = (*GormClient)(nil)

// NewGormClient wraps an opened gorm.DB.
func NewGormClient(name string, db *gorm.DB) *GormClient {
	return &GormClient{name: name, db: db}
}

// Name returns the driver name.
func (c *GormClient) Name() string { return c.name }

// Ping checks the database connection.
func (c *GormClient) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying sql.DB.
func (c *GormClient) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the gorm handle.
func (c *GormClient) DB() *gorm.DB { return c.db }
