package validator

import (
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagNotBlank     = "notblank"     // 去掉首尾空白后非空
	TagNoWhitespace = "nowhitespace" // No whitespace characters
	TagTrimmed      = "trimmed"      // No leading/trailing spaces
	TagFinite       = "finite"       // 浮点数不能是 NaN 或 ±Inf
)

// registerCustomRules registers all custom validation rules.
func (v *Validator) registerCustomRules() {
	_ = v.validate.RegisterValidation(TagNotBlank, validateNotBlank)
	_ = v.validate.RegisterValidation(TagNoWhitespace, validateNoWhitespace)
	_ = v.validate.RegisterValidation(TagTrimmed, validateTrimmed)
	_ = v.validate.RegisterValidation(TagFinite, validateFinite)
}

// validateNotBlank rejects strings that are empty after trimming.
// 与 required 不同，"   " 也会被拒绝。
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// validateNoWhitespace validates that string contains no whitespace.
func validateNoWhitespace(fl validator.FieldLevel) bool {
	for _, char := range fl.Field().String() {
		if unicode.IsSpace(char) {
			return false
		}
	}
	return true
}

// validateTrimmed validates that string has no leading/trailing whitespace.
func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == strings.TrimSpace(value)
}

// validateFinite rejects NaN and infinities; non-float fields always pass.
func validateFinite(fl validator.FieldLevel) bool {
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return true
	}
}
