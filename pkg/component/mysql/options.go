package mysql

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/component/storage"
	"github.com/kart-io/loan-advisor/pkg/options"
)

// Options defines configuration options for MySQL.
type Options struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"-" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`

	storage.SQLPoolOptions `mapstructure:",squash"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:           "127.0.0.1",
		Port:           3306,
		Username:       "root",
		Database:       "loan_advisor",
		SQLPoolOptions: storage.NewSQLPoolOptions(),
	}
}

// String returns a representation with the password redacted.
func (o *Options) String() string {
	return fmt.Sprintf("MySQL{host=%s, port=%d, user=%s, password=%s, database=%s}",
		o.Host, o.Port, o.Username, options.Redact(o.Password), o.Database)
}

// AddFlags adds flags for MySQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mysql."
	fs.StringVar(&o.Host, p+"host", o.Host, "MySQL host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "MySQL port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "MySQL username.")
	fs.StringVar(&o.Database, p+"database", o.Database, "MySQL database.")
	fs.IntVar(&o.MaxOpenConnections, p+"max-open-connections", o.MaxOpenConnections, "MySQL max open connections.")
	fs.IntVar(&o.MaxIdleConnections, p+"max-idle-connections", o.MaxIdleConnections, "MySQL max idle connections.")
	fs.StringVar(&o.LogLevel, p+"log-level", o.LogLevel, "GORM log level (silent, error, warn, info).")
}

// Complete reads the password from MYSQL_PASSWORD when it is not configured.
func (o *Options) Complete() error {
	options.EnvFallback(&o.Password, "MYSQL_PASSWORD")
	return nil
}

// Validate validates the MySQL options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Host == "" {
		errs = append(errs, fmt.Errorf("mysql.host is required"))
	}
	if o.Port <= 0 || o.Port > 65535 {
		errs = append(errs, fmt.Errorf("mysql.port %d is out of range", o.Port))
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mysql.database is required"))
	}
	if _, err := storage.ParseGormLogLevel(o.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("mysql.log-level: %w", err))
	}
	return errs
}
