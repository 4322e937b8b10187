package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

const requiredText = "this field is required"

// customValidators are the tags available to every package. Tags without a func only get a message.
var customValidators = []struct {
	tag  string
	fn   validator.Func
	text string
}{
	{tag: "notblank", fn: notBlankValidation, text: "this field cannot be blank"},
	{tag: "required", text: requiredText},
	{tag: "required_with", text: requiredText},
}

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, cv := range customValidators {
		if cv.fn == nil {
			RegisterCustomTranslation(cv.tag, cv.text, true)
			continue
		}
		_ = Validate.RegisterValidation(cv.tag, cv.fn)
		RegisterCustomTranslation(cv.tag, cv.text)
	}
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// FieldErrors converts struct validation errors into translated FieldErrors.
// It returns nil, false if `err` is not a validator.ValidationErrors.
func FieldErrors(err error) ([]FieldError, bool) {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return nil, false
	}
	flds := make([]FieldError, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, FieldError{Field: vErr.Field(), Error: vErr.Translate(Translator)})
	}
	return flds, true
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
