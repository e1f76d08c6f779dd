// Package validation checks request payloads using struct tags and reports
// failures as field-keyed, human readable messages.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"
	requiredText = "{0} is required"
)

// FieldError is one failed rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects every failed rule of a payload
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Message)
	}
	return strings.Join(parts, "; ")
}

// AsErrors unwraps validation failures from err
func AsErrors(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func instance() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		english := en.New()
		translator, _ = ut.New(english, english).GetTranslator("en")

		validate = validator.New()
		_ = en_translations.RegisterDefaultTranslations(validate, translator)

		// Report JSON names rather than Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})

		_ = validate.RegisterValidation(notBlankTag, notBlank)
		registerTranslation(notBlankTag, notBlankText)
		registerTranslation("required", requiredText)
	})
	return validate, translator
}

func registerTranslation(tag, text string) {
	_ = validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// notBlank rejects strings that are empty after trimming whitespace
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}

// Struct validates s against its `validate` tags
func Struct(s interface{}) error {
	v, trans := instance()
	return translate(v.Struct(s), trans, "")
}

// Var validates a single value, reporting failures under field
func Var(field string, value interface{}, tag string) error {
	v, trans := instance()
	return translate(v.Var(value, tag), trans, field)
}

func translate(err error, trans ut.Translator, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		msg := fe.Translate(trans)
		if field != "" {
			name = field
			// Var errors have no field name, so prefix it
			msg = field + " " + strings.TrimSpace(msg)
		}
		out = append(out, FieldError{Field: name, Message: msg})
	}
	return out
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	return Var("email", strings.TrimSpace(email), "required,email")
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	return Var("password", password, "required,min=8,max=72")
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	return Var("name", strings.TrimSpace(name), "required,min=2,max=100")
}
