// Package catalog provides product catalog datasource options.
package catalog

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/component/mongodb"
	"github.com/kart-io/loan-advisor/pkg/component/mysql"
	"github.com/kart-io/loan-advisor/pkg/component/postgres"
	"github.com/kart-io/loan-advisor/pkg/component/sqlite"
	"github.com/kart-io/loan-advisor/pkg/options"
)

// Supported catalog drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"
)

var _ options.IOptions = (*Options)(nil)

// Options 产品目录数据源配置，只有 Driver 选中的后端会被校验和连接。
type Options struct {
	// Driver 数据源类型：postgres, mysql, sqlite, mongodb。
	Driver string `json:"driver" mapstructure:"driver"`

	// AutoMigrate 启动时执行 AutoMigrate（仅 SQL 驱动）。
	AutoMigrate bool `json:"auto-migrate" mapstructure:"auto-migrate"`

	// Fixtures 启动时导入的产品文件（YAML 或 JSON），为空则不导入。
	Fixtures string `json:"fixtures" mapstructure:"fixtures"`

	Postgres *postgres.Options `json:"postgres" mapstructure:"postgres"`
	MySQL    *mysql.Options    `json:"mysql" mapstructure:"mysql"`
	SQLite   *sqlite.Options   `json:"sqlite" mapstructure:"sqlite"`
	MongoDB  *mongodb.Options  `json:"mongodb" mapstructure:"mongodb"`
}

// NewOptions creates catalog options backed by a local SQLite file.
func NewOptions() *Options {
	return &Options{
		Driver:      DriverSQLite,
		AutoMigrate: true,
		Postgres:    postgres.NewOptions(),
		MySQL:       mysql.NewOptions(),
		SQLite:      sqlite.NewOptions(),
		MongoDB:     mongodb.NewOptions(),
	}
}

// AddFlags adds flags for catalog options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "catalog."
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "Catalog datasource (postgres, mysql, sqlite, mongodb).")
	fs.BoolVar(&o.AutoMigrate, p+"auto-migrate", o.AutoMigrate, "Create or update the products table on startup (SQL drivers).")
	fs.StringVar(&o.Fixtures, p+"fixtures", o.Fixtures, "YAML or JSON product file imported on startup.")

	nested := append(prefixes, "catalog")
	o.Postgres.AddFlags(fs, nested...)
	o.MySQL.AddFlags(fs, nested...)
	o.SQLite.AddFlags(fs, nested...)
	o.MongoDB.AddFlags(fs, nested...)
}

// Complete normalizes the driver name and completes the selected backend.
func (o *Options) Complete() error {
	o.Driver = strings.ToLower(strings.TrimSpace(o.Driver))
	switch o.Driver {
	case DriverPostgres:
		return o.Postgres.Complete()
	case DriverMySQL:
		return o.MySQL.Complete()
	case DriverMongoDB:
		return o.MongoDB.Complete()
	}
	return nil
}

// Validate validates the selected backend only.
func (o *Options) Validate() []error {
	switch o.Driver {
	case DriverPostgres:
		return o.Postgres.Validate()
	case DriverMySQL:
		return o.MySQL.Validate()
	case DriverSQLite:
		return o.SQLite.Validate()
	case DriverMongoDB:
		return o.MongoDB.Validate()
	default:
		return []error{fmt.Errorf("catalog.driver %q is not supported", o.Driver)}
	}
}

// IsSQL reports whether the selected driver is served by GORM.
func (o *Options) IsSQL() bool {
	return o.Driver != DriverMongoDB
}
