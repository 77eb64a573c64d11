// Package mysql opens the MySQL catalog datasource through GORM.
package mysql

import (
	"context"
	"fmt"
	"net/url"

	mysqldriver "gorm.io/driver/mysql"

	"github.com/kart-io/loan-advisor/pkg/component/storage"
)

// BuildDSN creates a MySQL DSN: username:password@tcp(host:port)/database?params.
// 密码经过转义，@ / : 等字符不会破坏 DSN 解析。
func BuildDSN(opts *Options) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		opts.Username,
		url.QueryEscape(opts.Password),
		opts.Host,
		opts.Port,
		opts.Database,
	)
}

// New 连接 MySQL 并返回 storage.GormClient。
func New(ctx context.Context, opts *Options) (*storage.GormClient, error) {
	db, err := storage.OpenGorm(ctx, "mysql", mysqldriver.Open(BuildDSN(opts)), opts.SQLPoolOptions)
	if err != nil {
		return nil, err
	}
	return storage.NewGormClient("mysql", db), nil
}
