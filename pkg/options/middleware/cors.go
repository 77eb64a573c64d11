package middleware

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kart-io/loan-advisor/pkg/options"
)

// CORSOptions defines CORS middleware options.
type CORSOptions struct {
	AllowOrigins     []string `json:"allow-origins" mapstructure:"allow-origins"`
	AllowMethods     []string `json:"allow-methods" mapstructure:"allow-methods"`
	AllowHeaders     []string `json:"allow-headers" mapstructure:"allow-headers"`
	ExposeHeaders    []string `json:"expose-headers" mapstructure:"expose-headers"`
	AllowCredentials bool     `json:"allow-credentials" mapstructure:"allow-credentials"`
	MaxAge           int      `json:"max-age" mapstructure:"max-age"`
}

// NewCORSOptions creates default CORS options.
func NewCORSOptions() *CORSOptions {
	return &CORSOptions{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}

// AddFlags adds flags for CORS options to the specified FlagSet.
func (o *CORSOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringSliceVar(&o.AllowOrigins, options.Join(prefixes...)+"middleware.cors.allow-origins", o.AllowOrigins, "CORS allowed origins.")
	fs.StringSliceVar(&o.AllowMethods, options.Join(prefixes...)+"middleware.cors.allow-methods", o.AllowMethods, "CORS allowed methods.")
	fs.StringSliceVar(&o.AllowHeaders, options.Join(prefixes...)+"middleware.cors.allow-headers", o.AllowHeaders, "CORS allowed headers.")
	fs.StringSliceVar(&o.ExposeHeaders, options.Join(prefixes...)+"middleware.cors.expose-headers", o.ExposeHeaders, "CORS exposed headers.")
	fs.BoolVar(&o.AllowCredentials, options.Join(prefixes...)+"middleware.cors.allow-credentials", o.AllowCredentials, "CORS allow credentials.")
	fs.IntVar(&o.MaxAge, options.Join(prefixes...)+"middleware.cors.max-age", o.MaxAge, "CORS preflight max age.")
}

// Validate validates the CORS options.
func (o *CORSOptions) Validate() []error {
	if o == nil {
		return nil
	}
	if len(o.AllowOrigins) == 0 {
		return []error{errors.New("CORS: AllowOrigins must be explicitly configured, empty list not allowed")}
	}

	var errs []error
	for _, origin := range o.AllowOrigins {
		if origin == "*" {
			continue
		}
		if err := validateOriginFormat(origin); err != nil {
			errs = append(errs, fmt.Errorf("CORS: invalid origin format '%s': %w", origin, err))
		}
	}
	// RFC6454: 通配来源不能携带凭证
	if o.AllowCredentials && slices.Contains(o.AllowOrigins, "*") {
		errs = append(errs, errors.New("CORS: cannot use wildcard origin '*' with AllowCredentials=true"))
	}
	return errs
}

// validateOriginFormat 校验 origin 必须是 scheme://host[:port]。
func validateOriginFormat(origin string) error {
	scheme, rest, ok := strings.Cut(origin, "://")
	if !ok || scheme == "" {
		return errors.New("origin must include scheme (http:// or https://)")
	}
	if rest == "" {
		return errors.New("origin must include host")
	}
	if strings.ContainsAny(rest, "/?#") {
		return errors.New("origin should not include path, query, or fragment")
	}
	return nil
}
