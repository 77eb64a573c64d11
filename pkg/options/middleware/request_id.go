package middleware

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// 请求 ID 生成器类型。
const (
	GeneratorRandom = "random"
	GeneratorULID   = "ulid"
)

// RequestIDOptions defines request ID middleware options.
type RequestIDOptions struct {
	// Header 请求 ID 使用的 HTTP 头。
	Header string `json:"header" mapstructure:"header"`
	// GeneratorType 生成器类型: random (16 字节 hex) 或 ulid。
	GeneratorType string `json:"generator" mapstructure:"generator"`
}

// NewRequestIDOptions creates default request ID options.
func NewRequestIDOptions() *RequestIDOptions {
	return &RequestIDOptions{
		Header:        "X-Request-ID",
		GeneratorType: GeneratorULID,
	}
}

// AddFlags adds flags for request ID options to the specified FlagSet.
func (o *RequestIDOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Header, options.Join(prefixes...)+"middleware.request-id.header", o.Header, "Request ID header name.")
	fs.StringVar(&o.GeneratorType, options.Join(prefixes...)+"middleware.request-id.generator", o.GeneratorType,
		"Request ID generator: random or ulid.")
}

// Validate validates the request ID options.
func (o *RequestIDOptions) Validate() []error {
	var errs []error
	if o.Header == "" {
		errs = append(errs, fmt.Errorf("middleware.request-id.header is required"))
	}
	switch o.GeneratorType {
	case GeneratorRandom, GeneratorULID:
	default:
		errs = append(errs, fmt.Errorf("unsupported request id generator %q", o.GeneratorType))
	}
	return errs
}
