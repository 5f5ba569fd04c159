package validate

import (
	"regexp"

	"storefront-be/internal/apperr"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var ErrInvalid = apperr.New(apperr.KindValidation, apperr.CodeInvalidInput, "invalid input")

var currencyRe = regexp.MustCompile(`^\d+(\.\d{2})?$`)

var validate *validator.Validate

var translator ut.Translator

func init() {
	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyRe.MatchString(fl.Field().String())
	})
	validate.RegisterTranslation("currency", translator,
		func(ut ut.Translator) error {
			return ut.Add("currency", "{0} must have exactly two decimal places", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("currency", fe.Field())
			return t
		},
	)
}

// Check validates val and returns the first failure as a validation error
// with a human readable message.
func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return ErrInvalid.Wrap(err)
		}

		if len(verrors) < 1 {
			return nil
		}

		e := *ErrInvalid
		e.Message = verrors[0].Translate(translator)
		return &e
	}

	return nil
}

// Var validates a single value against tag.
func Var(field any, tag string) error {
	if err := validate.Var(field, tag); err != nil {
		return ErrInvalid.Wrap(err)
	}
	return nil
}
