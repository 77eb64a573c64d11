// Package validator wraps go-playground/validator with JSON field names,
// EN/ZH translated messages and a gin binding adapter.
package validator

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

// Language constants for i18n support.
const (
	LangEN = "en"
	LangZH = "zh"
)

// Validator wraps go-playground/validator with additional features.
type Validator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
	trans    map[string]ut.Translator
	mu       sync.RWMutex
}

var (
	globalValidator *Validator
	globalMu        sync.RWMutex
	once            sync.Once
)

// Global returns the global validator instance.
func Global() *Validator {
	once.Do(func() {
		globalMu.Lock()
		if globalValidator == nil {
			globalValidator = New()
		}
		globalMu.Unlock()
	})
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalValidator
}

// SetGlobal sets the global validator instance.
func SetGlobal(v *Validator) {
	once.Do(func() {})
	globalMu.Lock()
	globalValidator = v
	globalMu.Unlock()
}

// New creates a new Validator instance with default configuration.
func New() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		trans:    make(map[string]ut.Translator),
	}

	// 错误中的字段名使用 json/form 标签
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	enLocale := en.New()
	v.uni = ut.New(enLocale, enLocale, zh.New())

	enTrans, _ := v.uni.GetTranslator(LangEN)
	_ = en_translations.RegisterDefaultTranslations(v.validate, enTrans)
	v.trans[LangEN] = enTrans

	zhTrans, _ := v.uni.GetTranslator(LangZH)
	_ = zh_translations.RegisterDefaultTranslations(v.validate, zhTrans)
	v.trans[LangZH] = zhTrans

	v.registerCustomRules()
	v.registerCustomTranslations()

	return v
}

// Validate validates a struct and returns the raw validator error.
func (v *Validator) Validate(s any) error {
	return v.validate.Struct(s)
}

// ValidateWithLang validates a struct and returns translated validation errors.
// It returns nil when s is valid.
func (v *Validator) ValidateWithLang(s any, lang string) *ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	if verrs := v.Translate(err, lang); verrs != nil {
		return verrs
	}
	return NewValidationError("unknown", "unknown", err.Error())
}

// Translate converts a validation error, e.g. one returned by gin's
// ShouldBind after NewGinValidator is installed, into translated errors.
// 非校验错误返回 nil。
func (v *Validator) Translate(err error, lang string) *ValidationErrors {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}
	return v.translateErrors(validationErrors, v.GetTranslator(lang))
}

// ValidateVar validates a single variable.
func (v *Validator) ValidateVar(field any, tag string) error {
	return v.validate.Var(field, tag)
}

// GetTranslator returns a translator for the specified language, English by default.
func (v *Validator) GetTranslator(lang string) ut.Translator {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if trans, ok := v.trans[lang]; ok {
		return trans
	}
	return v.trans[LangEN]
}

// RegisterValidation registers a custom validation function.
func (v *Validator) RegisterValidation(tag string, fn validator.Func, callValidationEvenIfNull ...bool) error {
	return v.validate.RegisterValidation(tag, fn, callValidationEvenIfNull...)
}

// Engine returns the underlying validator.Validate instance.
func (v *Validator) Engine() *validator.Validate {
	return v.validate
}

// translateErrors translates validation errors to human-readable messages.
// Field 使用去掉根结构体名的命名空间，例如 history[1].role。
func (v *Validator) translateErrors(errs validator.ValidationErrors, trans ut.Translator) *ValidationErrors {
	result := &ValidationErrors{
		Errors: make([]FieldError, 0, len(errs)),
	}

	for _, err := range errs {
		result.Errors = append(result.Errors, FieldError{
			Field:   fieldPath(err),
			Tag:     err.Tag(),
			Value:   encodableValue(err.Value()),
			Param:   err.Param(),
			Message: err.Translate(trans),
		})
	}

	return result
}

// encodableValue 将 NaN/±Inf 转为字符串，保证错误详情可以 JSON 编码。
func encodableValue(value any) any {
	var f float64
	switch n := value.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	default:
		return value
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return value
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// ginValidator adapts Validator to gin's binding.StructValidator.
type ginValidator struct {
	v *Validator
}

var _ binding.StructValidator = (*ginValidator)(nil)

// NewGinValidator returns a binding.StructValidator backed by v.
// 安装后 ShouldBind 系列方法使用同一套规则：binding.Validator = NewGinValidator(Global())
func NewGinValidator(v *Validator) binding.StructValidator {
	return &ginValidator{v: v}
}

func (g *ginValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		return g.v.Validate(obj)
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			if err := g.ValidateStruct(value.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ginValidator) Engine() any {
	return g.v.validate
}
