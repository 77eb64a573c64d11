package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/loan-advisor/internal/advisor/store"
	"github.com/kart-io/loan-advisor/pkg/component/mongodb"
	"github.com/kart-io/loan-advisor/pkg/component/mysql"
	"github.com/kart-io/loan-advisor/pkg/component/postgres"
	"github.com/kart-io/loan-advisor/pkg/component/sqlite"
	"github.com/kart-io/loan-advisor/pkg/component/storage"
	catalogopts "github.com/kart-io/loan-advisor/pkg/options/catalog"
)

// catalogBackend 选中的数据源：读接口与导入接口。
type catalogBackend interface {
	store.Catalog
	store.Seeder
}

// openCatalog 按 Driver 连接数据源，注册到 storage.Manager，并完成建表与索引。
func openCatalog(ctx context.Context, opts *catalogopts.Options, mgr *storage.Manager) (catalogBackend, error) {
	var (
		backend catalogBackend
		client  storage.Client
	)

	switch opts.Driver {
	case catalogopts.DriverMongoDB:
		mc, err := mongodb.New(ctx, opts.MongoDB)
		if err != nil {
			return nil, err
		}
		mongoCatalog := store.NewMongoCatalog(mc.Collection())
		if err := mongoCatalog.EnsureIndexes(ctx); err != nil {
			_ = mc.Close()
			return nil, fmt.Errorf("failed to create mongodb indexes: %w", err)
		}
		backend, client = mongoCatalog, mc

	default:
		gc, err := openGorm(ctx, opts)
		if err != nil {
			return nil, err
		}
		gormCatalog := store.NewGormCatalog(gc.DB())
		if opts.AutoMigrate {
			if err := gormCatalog.Migrate(ctx); err != nil {
				_ = gc.Close()
				return nil, fmt.Errorf("failed to migrate catalog: %w", err)
			}
			logger.Info("Catalog migration completed")
		}
		backend, client = gormCatalog, gc
	}

	if err := mgr.Register("catalog", client); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Infow("Catalog datasource initialized", "driver", opts.Driver)
	return backend, nil
}

func openGorm(ctx context.Context, opts *catalogopts.Options) (*storage.GormClient, error) {
	switch opts.Driver {
	case catalogopts.DriverPostgres:
		return postgres.New(ctx, opts.Postgres)
	case catalogopts.DriverMySQL:
		return mysql.New(ctx, opts.MySQL)
	case catalogopts.DriverSQLite:
		return sqlite.New(ctx, opts.SQLite)
	default:
		return nil, fmt.Errorf("catalog driver %q is not supported", opts.Driver)
	}
}

// seedFixtures 导入产品文件，path 为空时跳过。
func seedFixtures(ctx context.Context, seeder store.Seeder, path string) error {
	if path == "" {
		return nil
	}

	start := time.Now()
	products, err := store.LoadFixtures(path)
	if err != nil {
		return err
	}
	n, err := seeder.Seed(ctx, products)
	if err != nil {
		return fmt.Errorf("failed to seed catalog from %s: %w", path, err)
	}
	logger.Infow("Catalog fixtures imported",
		"file", path,
		"products", n,
		"duration", time.Since(start).String(),
	)
	return nil
}
