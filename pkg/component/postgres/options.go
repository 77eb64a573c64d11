package postgres

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/component/storage"
	"github.com/kart-io/loan-advisor/pkg/options"
)

// Options defines configuration options for PostgreSQL.
type Options struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"ssl-mode" mapstructure:"ssl-mode"`

	storage.SQLPoolOptions `mapstructure:",squash"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:           "127.0.0.1",
		Port:           5432,
		Username:       "postgres",
		Database:       "loan_advisor",
		SSLMode:        "disable",
		SQLPoolOptions: storage.NewSQLPoolOptions(),
	}
}

// String returns a representation with the password redacted.
func (o *Options) String() string {
	return fmt.Sprintf("PostgreSQL{host=%s, port=%d, user=%s, password=%s, database=%s}",
		o.Host, o.Port, o.Username, options.Redact(o.Password), o.Database)
}

// AddFlags adds flags for PostgreSQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "postgres."
	fs.StringVar(&o.Host, p+"host", o.Host, "PostgreSQL host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "PostgreSQL port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "PostgreSQL username.")
	fs.StringVar(&o.Database, p+"database", o.Database, "PostgreSQL database.")
	fs.StringVar(&o.SSLMode, p+"ssl-mode", o.SSLMode, "PostgreSQL sslmode (disable, require, verify-ca, verify-full).")
	fs.IntVar(&o.MaxOpenConnections, p+"max-open-connections", o.MaxOpenConnections, "PostgreSQL max open connections.")
	fs.IntVar(&o.MaxIdleConnections, p+"max-idle-connections", o.MaxIdleConnections, "PostgreSQL max idle connections.")
	fs.StringVar(&o.LogLevel, p+"log-level", o.LogLevel, "GORM log level (silent, error, warn, info).")
}

// Complete 密码只从配置文件或 POSTGRES_PASSWORD 读取，不提供命令行参数。
func (o *Options) Complete() error {
	options.EnvFallback(&o.Password, "POSTGRES_PASSWORD")
	return nil
}

// Validate validates the PostgreSQL options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("postgres.host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("postgres.port %d is out of range", o.Port))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("postgres.database is required"))
	}
	if _, err := storage.ParseGormLogLevel(o.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("postgres.log-level: %w", err))
	}
	return errs
}
