// Package validation checks request bodies and reports problems in
// Vietnamese, keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/vi"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

// Validator wraps a configured validator/v10 instance and its translator.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var texts = map[string]string{
	"required": "{0} không được để trống",
	"max":      "{0} không được dài quá {1} ký tự",
	"min":      "{0} phải có ít nhất {1} ký tự",
	"url":      "{0} phải là một URL hợp lệ",
	"gte":      "{0} phải lớn hơn hoặc bằng {1}",
	"lte":      "{0} phải nhỏ hơn hoặc bằng {1}",
	"oneof":    "{0} phải là một trong [{1}]",
}

func New() *Validator {
	loc := vi.New()
	uni := ut.New(loc, loc)
	trans, _ := uni.GetTranslator("vi")

	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, text := range texts {
		registerTranslation(v, trans, tag, text)
	}
	return &Validator{validate: v, translator: trans}
}

// registerTranslation adds text for tag; {0} is the field and {1} the param.
func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(
		tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field(), fe.Param())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
}

// Struct validates s. It returns nil or the translated messages, one per
// failing field, in struct field order.
func (v *Validator) Struct(s any) []string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Translate(v.translator))
	}
	return out
}
