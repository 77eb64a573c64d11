// Package options defines the generic options interface and common utilities.
package options

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Join concatenates prefixes with "." separator.
// If the result is non-empty, it appends a trailing ".".
// This is used to build flag names like "mysql.host" or "prefix.mysql.host".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}

// IOptions defines methods to implement a generic options.
type IOptions interface {
	// Validate validates all the required options.
	// It can also used to complete options if needed.
	Validate() []error

	// AddFlags adds flags related to given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// EnvFallback 当 *v 为空时从环境变量 key 读取，用于密钥类配置。
func EnvFallback(v *string, key string) {
	if *v == "" {
		*v = os.Getenv(key)
	}
}

// Redact 返回可安全输出到日志的密钥占位符。
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "[REDACTED]"
}
