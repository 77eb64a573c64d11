// Package postgres opens the PostgreSQL catalog datasource through GORM.
package postgres

import (
	"context"

	pgdriver "gorm.io/driver/postgres"

	"github.com/kart-io/loan-advisor/pkg/component/storage"
)

// New 连接 PostgreSQL 并返回 storage.GormClient。
func New(ctx context.Context, opts *Options) (*storage.GormClient, error) {
	db, err := storage.OpenGorm(ctx, "postgres", pgdriver.Open(BuildDSN(opts)), opts.SQLPoolOptions)
	if err != nil {
		return nil, err
	}
	return storage.NewGormClient("postgres", db), nil
}
