package validator

import (
	"encoding/json"
	"errors"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/otpgate/internal/pkg/strcase"
)

var reOTP = regexp.MustCompile(`^[0-9]{6}$`)

var ErrTranslatorNotFound = errors.New("validator: english translator not found")

// V10ValidationError maps snake_case field names to English messages.
type V10ValidationError map[string]string

func (e V10ValidationError) Error() string {
	b, err := json.Marshal(map[string]string(e))
	if err != nil || len(e) == 0 {
		return "validation error"
	}
	return string(b)
}

func (e V10ValidationError) Values() map[string]string {
	return e
}

// V10Validator is backed by go-playground/validator with English messages.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	locale := en.New()
	trans, ok := ut.New(locale, locale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, r := range customRules {
		if err := r.register(validate, trans); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, trans: trans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.trans)
	}

	return out
}

type rule struct {
	tag     string
	pattern *regexp.Regexp
	message string
}

var customRules = []rule{
	{tag: "otp", pattern: reOTP, message: "{0} must be exactly 6 digits"},
}

func (r rule) register(validate *validator.Validate, trans ut.Translator) error {
	err := validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.pattern.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error {
			return t.Add(r.tag, r.message, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}
