// Package sqlite opens a pure-Go SQLite catalog datasource, used for local runs and tests.
package sqlite

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/component/storage"
	"github.com/kart-io/loan-advisor/pkg/options"
)

// Options defines configuration options for SQLite.
type Options struct {
	// Path 数据库文件路径，":memory:" 表示内存库。
	Path string `json:"path" mapstructure:"path"`

	storage.SQLPoolOptions `mapstructure:",squash"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	pool := storage.NewSQLPoolOptions()
	// SQLite 单写者，限制为一个连接避免 database is locked
	pool.MaxOpenConnections = 1
	pool.MaxIdleConnections = 1
	return &Options{
		Path:           "loan-advisor.db",
		SQLPoolOptions: pool,
	}
}

// AddFlags adds flags for SQLite options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "sqlite."
	fs.StringVar(&o.Path, p+"path", o.Path, "SQLite database file path, or :memory:.")
	fs.StringVar(&o.LogLevel, p+"log-level", o.LogLevel, "GORM log level (silent, error, warn, info).")
}

// Validate validates the SQLite options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Path == "" {
		errs = append(errs, fmt.Errorf("sqlite.path is required"))
	}
	if _, err := storage.ParseGormLogLevel(o.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("sqlite.log-level: %w", err))
	}
	return errs
}

// DSN returns the connection string for the configured path.
func (o *Options) DSN() string {
	if o.Path == ":memory:" {
		return "file::memory:"
	}
	return o.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// New 打开 SQLite 并返回 storage.GormClient。
func New(ctx context.Context, opts *Options) (*storage.GormClient, error) {
	db, err := storage.OpenGorm(ctx, "sqlite", sqlite.Open(opts.DSN()), opts.SQLPoolOptions)
	if err != nil {
		return nil, err
	}
	return storage.NewGormClient("sqlite", db), nil
}
