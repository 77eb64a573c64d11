package mongodb

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// Options defines configuration options for MongoDB.
type Options struct {
	// URI 完整连接串，设置后忽略 host/port/username。
	URI        string `json:"uri" mapstructure:"uri"`
	Host       string `json:"host" mapstructure:"host"`
	Port       int    `json:"port" mapstructure:"port"`
	Username   string `json:"username" mapstructure:"username"`
	Password   string `json:"-" mapstructure:"password"`
	Database   string `json:"database" mapstructure:"database"`
	Collection string `json:"collection" mapstructure:"collection"`
	AuthSource string `json:"auth-source" mapstructure:"auth-source"`
	ReplicaSet string `json:"replica-set" mapstructure:"replica-set"`
	Direct     bool   `json:"direct" mapstructure:"direct"`

	MaxPoolSize            uint64        `json:"max-pool-size" mapstructure:"max-pool-size"`
	MinPoolSize            uint64        `json:"min-pool-size" mapstructure:"min-pool-size"`
	MaxConnIdleTime        time.Duration `json:"max-conn-idle-time" mapstructure:"max-conn-idle-time"`
	ConnectTimeout         time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`
	ServerSelectionTimeout time.Duration `json:"server-selection-timeout" mapstructure:"server-selection-timeout"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Host:                   "127.0.0.1",
		Port:                   27017,
		Database:               "loan_advisor",
		Collection:             "products",
		AuthSource:             "admin",
		MaxPoolSize:            50,
		MinPoolSize:            2,
		MaxConnIdleTime:        5 * time.Minute,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
	}
}

// String returns a representation with the password redacted.
func (o *Options) String() string {
	return fmt.Sprintf("MongoDB{host=%s, port=%d, user=%s, password=%s, database=%s}",
		o.Host, o.Port, o.Username, options.Redact(o.Password), o.Database)
}

// AddFlags adds flags for MongoDB options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "mongodb."
	fs.StringVar(&o.URI, p+"uri", o.URI, "MongoDB URI (mongodb://...), overrides host and port.")
	fs.StringVar(&o.Host, p+"host", o.Host, "MongoDB host.")
	fs.IntVar(&o.Port, p+"port", o.Port, "MongoDB port.")
	fs.StringVar(&o.Username, p+"username", o.Username, "MongoDB username.")
	fs.StringVar(&o.Database, p+"database", o.Database, "MongoDB database.")
	fs.StringVar(&o.Collection, p+"collection", o.Collection, "MongoDB collection holding loan products.")
	fs.StringVar(&o.AuthSource, p+"auth-source", o.AuthSource, "MongoDB auth source.")
	fs.StringVar(&o.ReplicaSet, p+"replica-set", o.ReplicaSet, "MongoDB replica set.")
	fs.BoolVar(&o.Direct, p+"direct", o.Direct, "MongoDB direct connection.")
	fs.Uint64Var(&o.MaxPoolSize, p+"max-pool-size", o.MaxPoolSize, "MongoDB max pool size.")
	fs.DurationVar(&o.ConnectTimeout, p+"connect-timeout", o.ConnectTimeout, "MongoDB connect timeout.")
	fs.DurationVar(&o.ServerSelectionTimeout, p+"server-selection-timeout", o.ServerSelectionTimeout, "MongoDB server selection timeout.")
}

// Complete reads the password from MONGODB_PASSWORD when it is not configured.
func (o *Options) Complete() error {
	options.EnvFallback(&o.Password, "MONGODB_PASSWORD")
	return nil
}

// Validate validates the MongoDB options.
func (o *Options) Validate() []error {
	var errs []error
	if o.URI == "" {
		if o.Host == "" {
			errs = append(errs, fmt.Errorf("mongodb.host is required when uri is not provided"))
		}
		if o.Port <= 0 || o.Port > 65535 {
			errs = append(errs, fmt.Errorf("mongodb.port %d is out of range", o.Port))
		}
	}
	if o.Database == "" {
		errs = append(errs, fmt.Errorf("mongodb.database is required"))
	}
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("mongodb.collection is required"))
	}
	return errs
}
